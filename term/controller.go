// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package term

import (
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/authority"
	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/log"
	"github.com/CodeChain-io/codechain-sub002/metrics"
	"github.com/CodeChain-io/codechain-sub002/staking"
	"github.com/CodeChain-io/codechain-sub002/state"
)

var (
	logger = log.WithContext("pkg", "term")

	metricTermID = metrics.LazyLoad(func() metrics.GaugeMeter {
		return metrics.Gauge("term_current_id")
	})
	metricJailed = metrics.LazyLoad(func() metrics.CountMeter {
		return metrics.Counter("term_jailed_count")
	})
	metricSeats = metrics.LazyLoad(func() metrics.GaugeMeter {
		return metrics.Gauge("term_committee_seats")
	})
)

// Controller drives the term lifecycle: liveness bookkeeping while a term is
// open, and the close sequence that jails, releases, prunes and re-elects.
type Controller struct {
	storage   storage
	ledger    *staking.Ledger
	selector  *authority.Selector
	snapshots *authority.Snapshots
}

// NewController creates a controller sharing the given state.
func NewController(st *state.State, ledger *staking.Ledger, selector *authority.Selector) *Controller {
	return &Controller{
		storage:   storage{st},
		ledger:    ledger,
		selector:  selector,
		snapshots: authority.NewSnapshots(st),
	}
}

// Snapshots returns the per-term snapshot store.
func (c *Controller) Snapshots() *authority.Snapshots {
	return c.snapshots
}

// Current returns the open term record.
func (c *Controller) Current() (*Record, error) {
	return c.storage.getRecord()
}

// Bootstrap opens term 0, electing the initial committee from the genesis
// candidate pool.
func (c *Controller) Bootstrap(startTime uint64) error {
	committee, err := c.elect(0)
	switch errors.Cause(err) {
	case nil:
	case authority.ErrInsufficientCandidates:
		// an undersized genesis pool opens term 0 without a committee;
		// later closes elect one once enough candidates nominate
		committee = authority.NewCommittee(nil)
		logger.Warn("genesis pool below minimum, term 0 opens without a committee")
	default:
		return errors.Wrap(err, "genesis election")
	}
	for _, m := range committee.Members() {
		if err := c.ledger.Elect(m.Address); err != nil {
			return err
		}
	}
	if err := c.storage.setRecord(&Record{StartTime: startTime}); err != nil {
		return err
	}
	return c.snapshot(0, 0, committee)
}

// RecordContribution counts one liveness contribution of a sitting committee
// member in the open term.
func (c *Controller) RecordContribution(addr codechain.Address) error {
	record, err := c.storage.getRecord()
	if err != nil {
		return err
	}
	count, err := c.storage.getContributions(record.ID, addr)
	if err != nil {
		return err
	}
	return c.storage.setContributions(record.ID, addr, count+1)
}

// ShouldClose reports whether processing the given block closes the open
// term. A term closes when the block count since the term start reaches the
// termBlocks param, or when the block timestamp crosses a termSeconds period
// boundary. The block-count trigger is inactive while termBlocks is 0.
func (c *Controller) ShouldClose(blockNumber, blockTime uint64) (bool, error) {
	record, err := c.storage.getRecord()
	if err != nil {
		return false, err
	}
	params := c.ledger.Params()

	termBlocks, err := params.Get(codechain.KeyTermBlocks)
	if err != nil {
		return false, err
	}
	if termBlocks > 0 && blockNumber-record.StartBlock+1 >= termBlocks {
		return true, nil
	}

	termSeconds, err := params.Get(codechain.KeyTermSeconds)
	if err != nil {
		return false, err
	}
	if termSeconds > 0 && blockTime/termSeconds > record.StartTime/termSeconds {
		return true, nil
	}
	return false, nil
}

// Close runs the term transition at the given block:
//  1. committee members without a contribution this term are jailed
//  2. custody of previously jailed accounts elapses by one term; fully
//     served accounts return to the candidate pool
//  3. candidates whose nomination expired are pruned with a deposit refund
//  4. the next committee is elected; if too few candidates remain, the
//     sitting committee stays for another term
//  5. the new term opens and the closed term's liveness records are dropped
func (c *Controller) Close(blockNumber, blockTime uint64) error {
	record, err := c.storage.getRecord()
	if err != nil {
		return err
	}
	params := c.ledger.Params()
	nextID := record.ID + 1

	// jailed before this close; newly jailed members do not serve custody
	// in the term that jailed them
	previouslyJailed, err := c.ledger.JailedAccounts()
	if err != nil {
		return err
	}

	if err := c.jailIdleMembers(record, params); err != nil {
		return err
	}
	if err := c.serveCustody(previouslyJailed, params); err != nil {
		return err
	}
	if err := c.pruneExpired(nextID); err != nil {
		return err
	}

	committee, err := c.elect(nextID)
	switch errors.Cause(err) {
	case nil:
		if err := c.reseat(committee); err != nil {
			return err
		}
	case authority.ErrInsufficientCandidates:
		// the sitting committee carries over in its prior seat order;
		// members jailed by this close drop out
		committee, err = c.retainedCommittee(record.ID)
		if err != nil {
			return err
		}
		logger.Warn("election failed, committee retained", "term", nextID, "seats", committee.Len())
	default:
		return err
	}

	if err := c.storage.setRecord(&Record{
		ID:                nextID,
		StartBlock:        blockNumber + 1,
		StartTime:         blockTime,
		LastFinishedBlock: blockNumber,
	}); err != nil {
		return err
	}
	if err := c.snapshot(nextID, blockNumber+1, committee); err != nil {
		return err
	}
	if err := c.storage.clearLiveness(record.ID); err != nil {
		return err
	}

	metricTermID().Set(int64(nextID))
	metricSeats().Set(int64(committee.Len()))
	logger.Info("term closed", "term", record.ID, "next", nextID,
		"block", blockNumber, "seats", committee.Len())
	return nil
}

func (c *Controller) jailIdleMembers(record *Record, params *staking.Params) error {
	custody, err := params.Get(codechain.KeyCustodyPeriod)
	if err != nil {
		return err
	}
	members, err := c.ledger.AccountsWithStatus(staking.StatusCommittee)
	if err != nil {
		return err
	}
	for _, addr := range members {
		count, err := c.storage.getContributions(record.ID, addr)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := c.ledger.Jail(addr, record.ID, custody); err != nil {
			return err
		}
		metricJailed().Add(1)
		logger.Info("jailed for inactivity", "addr", addr, "term", record.ID)
	}
	return nil
}

func (c *Controller) serveCustody(jailed []staking.Jailed, params *staking.Params) error {
	releasePeriod, err := params.Get(codechain.KeyReleasePeriod)
	if err != nil {
		return err
	}
	for _, j := range jailed {
		served, err := c.ledger.DecrementCustody(j.Address)
		if err != nil {
			return err
		}
		if served {
			if err := c.ledger.Release(j.Address, releasePeriod); err != nil {
				return err
			}
			logger.Info("released from custody", "addr", j.Address)
		}
	}
	return nil
}

func (c *Controller) pruneExpired(nextID uint64) error {
	candidates, err := c.ledger.AccountsWithStatus(staking.StatusCandidate)
	if err != nil {
		return err
	}
	for _, addr := range candidates {
		entry, err := c.ledger.GetEntry(addr)
		if err != nil {
			return err
		}
		if entry.NominationExpiry >= nextID {
			continue
		}
		if err := c.ledger.Expire(addr); err != nil {
			return err
		}
	}
	return nil
}

// elect ranks the eligible pool for the given term. Sitting members count as
// part of the pool.
func (c *Controller) elect(termID uint64) (*authority.Committee, error) {
	params := c.ledger.Params()
	threshold, err := params.Get(codechain.KeyDelegationThreshold)
	if err != nil {
		return nil, err
	}
	minSeats, err := params.Get(codechain.KeyMinNumOfValidators)
	if err != nil {
		return nil, err
	}
	maxSeats, err := params.Get(codechain.KeyMaxNumOfValidators)
	if err != nil {
		return nil, err
	}
	pool, err := c.ledger.Candidates(termID)
	if err != nil {
		return nil, err
	}
	return c.selector.Select(pool, threshold, minSeats, maxSeats)
}

// reseat applies the election result: members losing their seat are deposed,
// new members are elected.
func (c *Controller) reseat(committee *authority.Committee) error {
	sitting, err := c.ledger.AccountsWithStatus(staking.StatusCommittee)
	if err != nil {
		return err
	}
	for _, addr := range sitting {
		if !committee.Contains(addr) {
			if err := c.ledger.Depose(addr); err != nil {
				return err
			}
		}
	}
	for _, m := range committee.Members() {
		entry, err := c.ledger.GetEntry(m.Address)
		if err != nil {
			return err
		}
		if entry.Status != staking.StatusCommittee {
			if err := c.ledger.Elect(m.Address); err != nil {
				return err
			}
		}
	}
	return nil
}

// committeeOf rebuilds a committee from the sitting members with their
// current weights, ranked by the selector's rule.
// retainedCommittee rebuilds the closing term's committee in its snapshot
// seat order, dropping members no longer seated and refreshing their
// weights and deposits.
func (c *Controller) retainedCommittee(termID uint64) (*authority.Committee, error) {
	snapshot, err := c.snapshots.ByTerm(termID)
	if err != nil {
		return nil, err
	}
	members := make([]authority.Member, 0, len(snapshot.Members))
	for _, m := range snapshot.Members {
		entry, err := c.ledger.GetEntry(m.Address)
		if err != nil {
			return nil, err
		}
		if entry.Status != staking.StatusCommittee {
			continue
		}
		members = append(members, authority.Member{
			Address: m.Address,
			Weight:  entry.Delegated,
			Deposit: entry.Deposit,
		})
	}
	return authority.NewCommittee(members), nil
}

func (c *Controller) snapshot(termID, startBlock uint64, committee *authority.Committee) error {
	candidates, err := c.ledger.Candidates(termID)
	if err != nil {
		return err
	}
	// elected members appear as committee seats, not in the candidates view
	remaining := candidates[:0]
	for _, candidate := range candidates {
		if !committee.Contains(candidate.Address) {
			remaining = append(remaining, candidate)
		}
	}
	jailed, err := c.ledger.JailedAccounts()
	if err != nil {
		return err
	}
	banned, err := c.ledger.AccountsWithStatus(staking.StatusBanned)
	if err != nil {
		return err
	}
	delegations, err := c.ledger.AllDelegations()
	if err != nil {
		return err
	}
	return c.snapshots.Save(&authority.Snapshot{
		TermID:      termID,
		StartBlock:  startBlock,
		Members:     committee.Members(),
		Candidates:  remaining,
		Jailed:      jailed,
		Banned:      banned,
		Delegations: delegations,
	})
}
