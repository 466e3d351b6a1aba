// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gov

import (
	"github.com/CodeChain-io/codechain-sub002/authority"
	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/slashing"
	"github.com/CodeChain-io/codechain-sub002/staking"
)

// TermMetadata describes the open term at a point in the chain.
type TermMetadata struct {
	ID                uint64 `json:"id"`
	StartBlock        uint64 `json:"startBlock"`
	LastFinishedBlock uint64 `json:"lastTermFinishedBlock"`
}

// snapshotAt resolves the snapshot covering the height, or the live head
// term when height is nil.
func (e *Engine) snapshotAt(height *uint64) (*authority.Snapshot, error) {
	if height != nil {
		return e.snapshots.AtHeight(*height)
	}
	head, err := e.snapshots.Head()
	if err != nil {
		return nil, err
	}
	return e.snapshots.ByTerm(head)
}

// GetPossibleAuthors returns the addresses allowed to author blocks at the
// given height, in seat order. For the current term, members banned since
// election are excluded; for a historical height the elected set of that
// term is returned as it was.
func (e *Engine) GetPossibleAuthors(height *uint64) ([]codechain.Address, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snapshot, err := e.snapshotAt(height)
	if err != nil {
		return nil, err
	}
	if height != nil {
		return snapshot.Committee().Addresses(), nil
	}

	authors := make([]codechain.Address, 0, len(snapshot.Members))
	for _, m := range snapshot.Members {
		entry, err := e.ledger.GetEntry(m.Address)
		if err != nil {
			return nil, err
		}
		if entry.Status != staking.StatusBanned {
			authors = append(authors, m.Address)
		}
	}
	return authors, nil
}

// GetCommittee returns the elected seats of the term covering the height.
func (e *Engine) GetCommittee(height *uint64) ([]authority.Member, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snapshot, err := e.snapshotAt(height)
	if err != nil {
		return nil, err
	}
	return snapshot.Members, nil
}

// GetCandidates returns the electable pool outside the committee.
func (e *Engine) GetCandidates(height *uint64) ([]staking.Candidate, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if height != nil {
		snapshot, err := e.snapshots.AtHeight(*height)
		if err != nil {
			return nil, err
		}
		return snapshot.Candidates, nil
	}

	record, err := e.controller.Current()
	if err != nil {
		return nil, err
	}
	pool, err := e.ledger.Candidates(record.ID)
	if err != nil {
		return nil, err
	}
	head, err := e.snapshots.ByTerm(record.ID)
	if err != nil {
		return nil, err
	}
	committee := head.Committee()
	candidates := pool[:0]
	for _, candidate := range pool {
		if !committee.Contains(candidate.Address) {
			candidates = append(candidates, candidate)
		}
	}
	return candidates, nil
}

// GetJailed returns the jailed set with remaining custody.
func (e *Engine) GetJailed(height *uint64) ([]staking.Jailed, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if height != nil {
		snapshot, err := e.snapshots.AtHeight(*height)
		if err != nil {
			return nil, err
		}
		return snapshot.Jailed, nil
	}
	return e.ledger.JailedAccounts()
}

// GetBanned returns the permanently excluded addresses.
func (e *Engine) GetBanned(height *uint64) ([]codechain.Address, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if height != nil {
		snapshot, err := e.snapshots.AtHeight(*height)
		if err != nil {
			return nil, err
		}
		return snapshot.Banned, nil
	}
	return e.ledger.AccountsWithStatus(staking.StatusBanned)
}

// GetDelegations returns the delegator's edges, or every edge when the
// delegator is nil.
func (e *Engine) GetDelegations(delegator *codechain.Address, height *uint64) ([]staking.Delegation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if height != nil {
		snapshot, err := e.snapshots.AtHeight(*height)
		if err != nil {
			return nil, err
		}
		if delegator == nil {
			return snapshot.Delegations, nil
		}
		var edges []staking.Delegation
		for _, edge := range snapshot.Delegations {
			if edge.Delegator == *delegator {
				edges = append(edges, edge)
			}
		}
		return edges, nil
	}

	if delegator == nil {
		return e.ledger.AllDelegations()
	}
	return e.ledger.GetDelegations(*delegator)
}

// GetBalance returns the free stake-token balance of the account.
func (e *Engine) GetBalance(addr codechain.Address) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.GetBalance(addr)
}

// GetEntry returns the full lifecycle entry of the account.
func (e *Engine) GetEntry(addr codechain.Address) (*staking.Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.GetEntry(addr)
}

// GetTermMetadata describes the term covering the height.
func (e *Engine) GetTermMetadata(height *uint64) (*TermMetadata, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if height != nil {
		snapshot, err := e.snapshots.AtHeight(*height)
		if err != nil {
			return nil, err
		}
		meta := &TermMetadata{ID: snapshot.TermID, StartBlock: snapshot.StartBlock}
		if snapshot.StartBlock > 0 {
			meta.LastFinishedBlock = snapshot.StartBlock - 1
		}
		return meta, nil
	}

	record, err := e.controller.Current()
	if err != nil {
		return nil, err
	}
	return &TermMetadata{
		ID:                record.ID,
		StartBlock:        record.StartBlock,
		LastFinishedBlock: record.LastFinishedBlock,
	}, nil
}

// GetParam returns the current value of the named governance param.
func (e *Engine) GetParam(name string) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	key, ok := codechain.KeyByName(name)
	if !ok {
		return 0, ErrUnknownParam
	}
	return e.ledger.Params().Get(key)
}

// GetReceipts returns the slash receipts produced by the given block.
func (e *Engine) GetReceipts(blockNumber uint64) ([]*slashing.SlashReceipt, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.getReceipts(blockNumber)
}
