// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gov

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/authority"
	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/kv"
	"github.com/CodeChain-io/codechain-sub002/log"
	"github.com/CodeChain-io/codechain-sub002/metrics"
	"github.com/CodeChain-io/codechain-sub002/slashing"
	"github.com/CodeChain-io/codechain-sub002/staking"
	"github.com/CodeChain-io/codechain-sub002/state"
	"github.com/CodeChain-io/codechain-sub002/term"
)

var (
	logger = log.WithContext("pkg", "gov")

	metricBlocks = metrics.LazyLoad(func() metrics.CountMeter {
		return metrics.Counter("gov_processed_blocks_count")
	})
	metricActions = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("gov_actions_count", []string{"kind", "result"})
	})
)

// ErrStaleBlock is returned when a block does not extend the processed head.
var ErrStaleBlock = errors.New("block does not extend the head")

// Block is the governance-relevant content of one chain block. Contributors
// are the committee members credited with liveness for this block.
type Block struct {
	Number       uint64
	Timestamp    uint64 // unix seconds
	Contributors []codechain.Address
	Actions      []Action
}

// Engine is the governance state machine. Blocks are fed in order; each one
// commits atomically, including any term transition its processing triggers.
type Engine struct {
	mu         sync.RWMutex
	state      *state.State
	ledger     *staking.Ledger
	controller *term.Controller
	snapshots  *authority.Snapshots
	slasher    *slashing.Slasher
	store      store
}

// New opens the engine over the database, applying the genesis config on
// first start.
func New(db kv.Store, genesis *Genesis, opts ...authority.Option) (*Engine, error) {
	st := state.New(db)
	ledger := staking.NewLedger(st)
	controller := term.NewController(st, ledger, authority.NewSelector(opts...))

	e := &Engine{
		state:      st,
		ledger:     ledger,
		controller: controller,
		snapshots:  controller.Snapshots(),
		store:      store{st},
	}
	e.slasher = slashing.NewSlasher(ledger, e)

	if _, ok, err := e.store.getHead(); err != nil {
		return nil, err
	} else if !ok {
		if genesis == nil {
			return nil, errors.New("genesis required for an empty database")
		}
		if err := e.applyGenesis(genesis); err != nil {
			return nil, errors.Wrap(err, "failed to apply genesis")
		}
	}
	return e, nil
}

func (e *Engine) applyGenesis(genesis *Genesis) error {
	if err := genesis.Validate(); err != nil {
		return err
	}
	params := e.ledger.Params()
	for name, value := range genesis.Params {
		key, _ := codechain.KeyByName(name)
		if err := params.Set(key, value); err != nil {
			return err
		}
	}
	for _, account := range genesis.Accounts {
		if err := e.ledger.AddBalance(account.Address, account.Balance); err != nil {
			return err
		}
	}
	for _, nomination := range genesis.Nominations {
		if err := e.ledger.SelfNominate(nomination.Address, nomination.Deposit, []byte(nomination.Metadata), 0); err != nil {
			return errors.Wrapf(err, "genesis nomination of %v", nomination.Address)
		}
	}
	for _, delegation := range genesis.Delegations {
		if err := e.ledger.Delegate(delegation.Delegator, delegation.Delegatee, delegation.Quantity); err != nil {
			return errors.Wrapf(err, "genesis delegation of %v", delegation.Delegator)
		}
	}
	if err := e.store.setParamSigners(&genesis.ParamSigners); err != nil {
		return err
	}
	if err := e.controller.Bootstrap(genesis.Timestamp); err != nil {
		return err
	}
	if err := e.store.setHead(0); err != nil {
		return err
	}
	if err := e.state.Commit(); err != nil {
		return err
	}
	logger.Info("genesis applied", "accounts", len(genesis.Accounts),
		"nominations", len(genesis.Nominations))
	return nil
}

// Head returns the number of the last processed block.
func (e *Engine) Head() (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	head, ok, err := e.store.getHead()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.New("engine not initialized")
	}
	return head, nil
}

// ProcessBlock applies one block. Actions that fail a ledger rule are
// skipped individually; the rest of the block still lands. A failing term
// transition rejects the whole block. Returns the slash receipts produced.
func (e *Engine) ProcessBlock(block *Block) ([]*slashing.SlashReceipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	head, ok, err := e.store.getHead()
	if err != nil {
		return nil, err
	}
	if !ok || block.Number != head+1 {
		return nil, errors.Wrapf(ErrStaleBlock, "number %d, head %d", block.Number, head)
	}

	for _, contributor := range block.Contributors {
		if err := e.controller.RecordContribution(contributor); err != nil {
			e.state.RevertTo(0)
			return nil, err
		}
	}

	var receipts []*slashing.SlashReceipt
	for i := range block.Actions {
		action := &block.Actions[i]
		checkpoint := e.state.NewCheckpoint()
		receipt, err := e.applyAction(action)
		switch {
		case err == nil:
			metricActions().AddWithLabel(1, map[string]string{"kind": action.Kind.String(), "result": "ok"})
			if receipt != nil {
				receipts = append(receipts, receipt)
			}
		case staking.IsLedgerError(err) || isRejection(err):
			e.state.RevertTo(checkpoint)
			metricActions().AddWithLabel(1, map[string]string{"kind": action.Kind.String(), "result": "rejected"})
			logger.Warn("action rejected", "kind", action.Kind, "sender", action.Sender, "err", err)
		default:
			e.state.RevertTo(0)
			return nil, err
		}
	}

	closes, err := e.controller.ShouldClose(block.Number, block.Timestamp)
	if err != nil {
		e.state.RevertTo(0)
		return nil, err
	}
	if closes {
		if err := e.controller.Close(block.Number, block.Timestamp); err != nil {
			e.state.RevertTo(0)
			return nil, errors.Wrap(err, "term transition failed")
		}
	}

	if len(receipts) > 0 {
		if err := e.store.setReceipts(block.Number, receipts); err != nil {
			e.state.RevertTo(0)
			return nil, err
		}
	}
	if err := e.store.setHead(block.Number); err != nil {
		e.state.RevertTo(0)
		return nil, err
	}
	if err := e.state.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit block")
	}

	metricBlocks().Add(1)
	return receipts, nil
}

func (e *Engine) applyAction(action *Action) (*slashing.SlashReceipt, error) {
	record, err := e.controller.Current()
	if err != nil {
		return nil, err
	}

	switch action.Kind {
	case KindTransfer:
		var p TransferPayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		return nil, e.ledger.TransferCCS(action.Sender, p.To, p.Quantity)

	case KindSelfNominate:
		var p SelfNominatePayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		return nil, e.ledger.SelfNominate(action.Sender, p.Deposit, p.Metadata, record.ID)

	case KindDelegate:
		var p DelegatePayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		return nil, e.ledger.Delegate(action.Sender, p.Delegatee, p.Quantity)

	case KindRevoke:
		var p RevokePayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		return nil, e.ledger.Revoke(action.Sender, p.Delegatee, p.Quantity)

	case KindRedelegate:
		var p RedelegatePayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		return nil, e.ledger.Redelegate(action.Sender, p.PrevDelegatee, p.NextDelegatee, p.Quantity)

	case KindReportDoubleVote:
		var p ReportPayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		return e.slasher.ReportDoubleVote(&p.Evidence)

	case KindChangeParams:
		var p ChangeParamsPayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		return nil, e.changeParams(&p)

	default:
		return nil, errors.Errorf("unknown action kind %d", action.Kind)
	}
}

// CommitteeAt implements slashing.CommitteeResolver against the per-term
// snapshots. The full elected membership resolves, so evidence against
// since-banned members still convicts. Heights beyond the processed head
// have no committee yet and do not resolve.
func (e *Engine) CommitteeAt(height uint64) (*authority.Committee, error) {
	head, ok, err := e.store.getHead()
	if err != nil {
		return nil, err
	}
	if !ok || height > head {
		return nil, errors.Wrapf(authority.ErrNoSnapshot, "height %d beyond head", height)
	}
	snapshot, err := e.snapshots.AtHeight(height)
	if err != nil {
		return nil, err
	}
	return snapshot.Committee(), nil
}
