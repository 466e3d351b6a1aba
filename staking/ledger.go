// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/log"
	"github.com/CodeChain-io/codechain-sub002/metrics"
	"github.com/CodeChain-io/codechain-sub002/state"
)

var (
	logger = log.WithContext("pkg", "staking")

	metricSeveredEdges = metrics.LazyLoad(func() metrics.CountMeter {
		return metrics.Counter("staking_severed_edges_count")
	})
)

// Ledger owns stake-token balances, delegation edges and the per-account
// lifecycle entries. All other governance components read and write through it.
type Ledger struct {
	storage storage
	params  *Params
}

// NewLedger creates a ledger over the given state.
func NewLedger(st *state.State) *Ledger {
	return &Ledger{
		storage: storage{st},
		params:  NewParams(st),
	}
}

// Params returns the params accessor sharing the ledger's state.
func (l *Ledger) Params() *Params {
	return l.params
}

//
// Getters - no state change
//

// GetEntry returns the lifecycle entry of the account.
// An absent account yields an empty entry.
func (l *Ledger) GetEntry(addr codechain.Address) (*Entry, error) {
	return l.storage.getEntry(addr)
}

// GetBalance returns the free (undelegated, unlocked) stake-token balance.
func (l *Ledger) GetBalance(addr codechain.Address) (uint64, error) {
	return l.storage.getBalance(addr)
}

// GetDelegations returns all edges held by the delegator, in delegatee order.
func (l *Ledger) GetDelegations(delegator codechain.Address) ([]Delegation, error) {
	var edges []Delegation
	err := l.storage.iterateOutbound(delegator, func(delegatee codechain.Address, quantity uint64) error {
		edges = append(edges, Delegation{Delegator: delegator, Delegatee: delegatee, Quantity: quantity})
		return nil
	})
	return edges, err
}

// AllDelegations returns every edge in the ledger, in (delegator, delegatee) order.
func (l *Ledger) AllDelegations() ([]Delegation, error) {
	var edges []Delegation
	err := l.storage.iterateEdges(func(delegator, delegatee codechain.Address, quantity uint64) error {
		edges = append(edges, Delegation{Delegator: delegator, Delegatee: delegatee, Quantity: quantity})
		return nil
	})
	return edges, err
}

// Candidates returns the pool of electable accounts as of the given term:
// candidates and sitting committee members whose nomination has not expired
// and whose deposit meets the minimum. Ranking is left to the selector.
func (l *Ledger) Candidates(currentTerm uint64) ([]Candidate, error) {
	minDeposit, err := l.params.Get(codechain.KeyMinDeposit)
	if err != nil {
		return nil, err
	}

	var pool []Candidate
	err = l.storage.iterateEntries(func(addr codechain.Address, entry *Entry) error {
		if entry.Status != StatusCandidate && entry.Status != StatusCommittee {
			return nil
		}
		if entry.NominationExpiry < currentTerm {
			return nil
		}
		if entry.Deposit < minDeposit {
			return nil
		}
		pool = append(pool, Candidate{
			Address:   addr,
			Deposit:   entry.Deposit,
			Delegated: entry.Delegated,
			Expiry:    entry.NominationExpiry,
			Metadata:  entry.Metadata,
		})
		return nil
	})
	return pool, err
}

// AccountsWithStatus returns all accounts currently in the given status.
func (l *Ledger) AccountsWithStatus(status Status) ([]codechain.Address, error) {
	var addrs []codechain.Address
	err := l.storage.iterateEntries(func(addr codechain.Address, entry *Entry) error {
		if entry.Status == status {
			addrs = append(addrs, addr)
		}
		return nil
	})
	return addrs, err
}

// JailedAccounts returns the jailed set with remaining custody.
func (l *Ledger) JailedAccounts() ([]Jailed, error) {
	var jailed []Jailed
	err := l.storage.iterateEntries(func(addr codechain.Address, entry *Entry) error {
		if entry.Status == StatusJailed {
			jailed = append(jailed, Jailed{Address: addr, CustodyRemaining: entry.CustodyRemaining})
		}
		return nil
	})
	return jailed, err
}

//
// Setters - state change
//

// AddBalance credits free balance. Used by genesis and by edge severing.
func (l *Ledger) AddBalance(addr codechain.Address, quantity uint64) error {
	balance, err := l.storage.getBalance(addr)
	if err != nil {
		return err
	}
	return l.storage.setBalance(addr, balance+quantity)
}

// TransferCCS moves free stake tokens between accounts.
func (l *Ledger) TransferCCS(from, to codechain.Address, quantity uint64) error {
	balance, err := l.storage.getBalance(from)
	if err != nil {
		return err
	}
	if balance < quantity {
		return ErrInsufficientBalance
	}
	if err := l.storage.setBalance(from, balance-quantity); err != nil {
		return err
	}
	return l.AddBalance(to, quantity)
}

// SelfNominate creates or renews the account's candidacy, locking deposit
// out of the free balance. Renewal tops up the deposit and resets the
// nomination expiry. Jailed accounts must wait for release; banned accounts
// are rejected forever.
func (l *Ledger) SelfNominate(addr codechain.Address, deposit uint64, metadata []byte, currentTerm uint64) error {
	entry, err := l.storage.getEntry(addr)
	if err != nil {
		return err
	}
	switch entry.Status {
	case StatusBanned:
		return ErrBanned
	case StatusJailed:
		return ErrJailed
	}
	if entry.IsEmpty() && deposit == 0 {
		return ErrDepositTooLow
	}

	balance, err := l.storage.getBalance(addr)
	if err != nil {
		return err
	}
	if balance < deposit {
		return ErrInsufficientBalance
	}

	expiration, err := l.params.Get(codechain.KeyNominationExpiration)
	if err != nil {
		return err
	}

	status, err := Transit(entry.Status, EventNominate)
	if err != nil {
		return err
	}

	if err := l.storage.setBalance(addr, balance-deposit); err != nil {
		return err
	}
	entry.Status = status
	entry.Deposit += deposit
	entry.NominationExpiry = currentTerm + expiration
	if len(metadata) > 0 {
		entry.Metadata = metadata
	}
	if err := l.storage.setEntry(addr, entry); err != nil {
		return err
	}

	logger.Info("self-nominated", "addr", addr, "deposit", entry.Deposit, "expiry", entry.NominationExpiry)
	return nil
}

// Delegate creates or increments the delegation edge, moving quantity out of
// the delegator's free balance. The delegatee must be an active candidate or
// a sitting committee member.
func (l *Ledger) Delegate(delegator, delegatee codechain.Address, quantity uint64) error {
	if quantity == 0 {
		return ErrInsufficientBalance
	}

	target, err := l.storage.getEntry(delegatee)
	if err != nil {
		return err
	}
	if target.Status != StatusCandidate && target.Status != StatusCommittee {
		return ErrInvalidDelegatee
	}

	balance, err := l.storage.getBalance(delegator)
	if err != nil {
		return err
	}
	if balance < quantity {
		return ErrInsufficientBalance
	}

	edge, err := l.storage.getEdge(delegator, delegatee)
	if err != nil {
		return err
	}

	if err := l.storage.setBalance(delegator, balance-quantity); err != nil {
		return err
	}
	if err := l.storage.setEdge(delegator, delegatee, edge+quantity); err != nil {
		return err
	}
	target.Delegated += quantity
	if err := l.storage.setEntry(delegatee, target); err != nil {
		return err
	}

	logger.Debug("delegated", "delegator", delegator, "delegatee", delegatee, "quantity", quantity)
	return nil
}

// Revoke decrements or deletes the delegation edge, crediting the
// delegator's free balance immediately. Committee re-ranking only picks the
// change up at the next term transition.
func (l *Ledger) Revoke(delegator, delegatee codechain.Address, quantity uint64) error {
	if quantity == 0 {
		return ErrInsufficientBalance
	}

	edge, err := l.storage.getEdge(delegator, delegatee)
	if err != nil {
		return err
	}
	if edge < quantity {
		return ErrInsufficientBalance
	}

	if err := l.storage.setEdge(delegator, delegatee, edge-quantity); err != nil {
		return err
	}
	if err := l.AddBalance(delegator, quantity); err != nil {
		return err
	}

	target, err := l.storage.getEntry(delegatee)
	if err != nil {
		return err
	}
	if !target.IsEmpty() {
		target.Delegated -= quantity
		if err := l.storage.setEntry(delegatee, target); err != nil {
			return err
		}
	}

	logger.Debug("revoked", "delegator", delegator, "delegatee", delegatee, "quantity", quantity)
	return nil
}

// Redelegate moves quantity of an existing edge to another active candidate
// without passing through the free balance.
func (l *Ledger) Redelegate(delegator, prevDelegatee, nextDelegatee codechain.Address, quantity uint64) error {
	if quantity == 0 {
		return ErrInsufficientBalance
	}

	next, err := l.storage.getEntry(nextDelegatee)
	if err != nil {
		return err
	}
	if next.Status != StatusCandidate && next.Status != StatusCommittee {
		return ErrInvalidDelegatee
	}

	edge, err := l.storage.getEdge(delegator, prevDelegatee)
	if err != nil {
		return err
	}
	if edge < quantity {
		return ErrInsufficientBalance
	}

	if err := l.storage.setEdge(delegator, prevDelegatee, edge-quantity); err != nil {
		return err
	}
	prev, err := l.storage.getEntry(prevDelegatee)
	if err != nil {
		return err
	}
	if !prev.IsEmpty() {
		prev.Delegated -= quantity
		if err := l.storage.setEntry(prevDelegatee, prev); err != nil {
			return err
		}
	}

	nextEdge, err := l.storage.getEdge(delegator, nextDelegatee)
	if err != nil {
		return err
	}
	if err := l.storage.setEdge(delegator, nextDelegatee, nextEdge+quantity); err != nil {
		return err
	}
	// reload in case prev == next
	next, err = l.storage.getEntry(nextDelegatee)
	if err != nil {
		return err
	}
	next.Delegated += quantity
	if err := l.storage.setEntry(nextDelegatee, next); err != nil {
		return err
	}

	logger.Debug("redelegated", "delegator", delegator,
		"prev", prevDelegatee, "next", nextDelegatee, "quantity", quantity)
	return nil
}

// Elect marks the account as a sitting committee member.
func (l *Ledger) Elect(addr codechain.Address) error {
	return l.transit(addr, EventElect, nil)
}

// Depose returns a sitting committee member to the candidate pool.
func (l *Ledger) Depose(addr codechain.Address) error {
	return l.transit(addr, EventDepose, nil)
}

// Jail suspends a sitting committee member for custody terms.
func (l *Ledger) Jail(addr codechain.Address, jailedAtTerm, custody uint64) error {
	return l.transit(addr, EventJail, func(entry *Entry) {
		entry.JailedAt = jailedAtTerm
		entry.CustodyRemaining = custody
	})
}

// Release returns a jailed account to the candidate pool, keeping its
// deposit and accumulated delegation. The nomination window restarts from
// the jailing term, bounded by the release period.
func (l *Ledger) Release(addr codechain.Address, releasePeriod uint64) error {
	return l.transit(addr, EventRelease, func(entry *Entry) {
		entry.NominationExpiry = entry.JailedAt + releasePeriod
		entry.JailedAt = 0
		entry.CustodyRemaining = 0
	})
}

// DecrementCustody lowers the remaining custody of a jailed account by one
// term. It reports whether custody has fully elapsed.
func (l *Ledger) DecrementCustody(addr codechain.Address) (bool, error) {
	entry, err := l.storage.getEntry(addr)
	if err != nil {
		return false, err
	}
	if entry.Status != StatusJailed {
		return false, errors.Errorf("account %v is not jailed", addr)
	}
	if entry.CustodyRemaining > 0 {
		entry.CustodyRemaining--
	}
	if err := l.storage.setEntry(addr, entry); err != nil {
		return false, err
	}
	return entry.CustodyRemaining == 0, nil
}

// Expire prunes a candidate whose nomination lapsed, refunding the locked
// deposit and returning inbound delegations to the delegators.
func (l *Ledger) Expire(addr codechain.Address) error {
	entry, err := l.storage.getEntry(addr)
	if err != nil {
		return err
	}
	status, err := Transit(entry.Status, EventExpire)
	if err != nil {
		return err
	}

	if err := l.severInboundDelegations(addr, true); err != nil {
		return err
	}
	if err := l.AddBalance(addr, entry.Deposit); err != nil {
		return err
	}

	entry = &Entry{Status: status}
	if err := l.storage.setEntry(addr, entry); err != nil {
		return err
	}
	logger.Info("nomination expired", "addr", addr)
	return nil
}

// Ban permanently excludes the account. The locked deposit is slashed and
// every inbound delegation edge is severed: delegators keep the quantity as
// free balance, nothing is redirected. Returns the slashed deposit.
func (l *Ledger) Ban(addr codechain.Address, evidence codechain.Bytes32) (uint64, error) {
	entry, err := l.storage.getEntry(addr)
	if err != nil {
		return 0, err
	}
	status, err := Transit(entry.Status, EventBan)
	if err != nil {
		return 0, err
	}

	if err := l.severInboundDelegations(addr, true); err != nil {
		return 0, err
	}

	slashed := entry.Deposit
	banned := &Entry{Status: status, BanEvidence: evidence}
	if err := l.storage.setEntry(addr, banned); err != nil {
		return 0, err
	}

	logger.Info("banned", "addr", addr, "slashed", slashed, "evidence", evidence)
	return slashed, nil
}

// severInboundDelegations removes all edges pointing at addr. When refund is
// set, the quantity is credited to each delegator's free balance.
func (l *Ledger) severInboundDelegations(addr codechain.Address, refund bool) error {
	type edge struct {
		delegator codechain.Address
		quantity  uint64
	}
	var edges []edge
	if err := l.storage.iterateInbound(addr, func(delegator codechain.Address, quantity uint64) error {
		edges = append(edges, edge{delegator, quantity})
		return nil
	}); err != nil {
		return err
	}

	for _, e := range edges {
		if err := l.storage.setEdge(e.delegator, addr, 0); err != nil {
			return err
		}
		if refund {
			if err := l.AddBalance(e.delegator, e.quantity); err != nil {
				return err
			}
		}
	}
	if len(edges) > 0 {
		metricSeveredEdges().Add(int64(len(edges)))
	}
	return nil
}

func (l *Ledger) transit(addr codechain.Address, event Event, update func(*Entry)) error {
	entry, err := l.storage.getEntry(addr)
	if err != nil {
		return err
	}
	status, err := Transit(entry.Status, event)
	if err != nil {
		return err
	}
	entry.Status = status
	if update != nil {
		update(entry)
	}
	return l.storage.setEntry(addr, entry)
}
