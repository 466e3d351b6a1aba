// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/lvldb"
	"github.com/CodeChain-io/codechain-sub002/state"
	"github.com/CodeChain-io/codechain-sub002/test/datagen"
)

func newTestLedger(t *testing.T) *Ledger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLedger(state.New(db))
}

func fund(t *testing.T, l *Ledger, addr codechain.Address, amount uint64) {
	require.NoError(t, l.AddBalance(addr, amount))
}

func TestTransferCCS(t *testing.T) {
	l := newTestLedger(t)
	alice := datagen.RandAddress()
	bob := datagen.RandAddress()
	fund(t, l, alice, 1000)

	require.NoError(t, l.TransferCCS(alice, bob, 300))

	balance, err := l.GetBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), balance)
	balance, err = l.GetBalance(bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), balance)

	assert.Equal(t, ErrInsufficientBalance, l.TransferCCS(alice, bob, 701))
}

func TestSelfNominate(t *testing.T) {
	l := newTestLedger(t)
	addr := datagen.RandAddress()
	fund(t, l, addr, 1000)

	// first nomination needs a positive deposit
	assert.Equal(t, ErrDepositTooLow, l.SelfNominate(addr, 0, nil, 1))

	require.NoError(t, l.SelfNominate(addr, 600, []byte("node-1"), 1))

	entry, err := l.GetEntry(addr)
	require.NoError(t, err)
	assert.Equal(t, StatusCandidate, entry.Status)
	assert.Equal(t, uint64(600), entry.Deposit)
	assert.Equal(t, uint64(1+codechain.InitialNominationExpiration), entry.NominationExpiry)
	assert.Equal(t, []byte("node-1"), entry.Metadata)

	balance, err := l.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), balance)

	// renewal tops up the deposit, resets expiry, keeps metadata when empty
	require.NoError(t, l.SelfNominate(addr, 100, nil, 5))
	entry, err = l.GetEntry(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), entry.Deposit)
	assert.Equal(t, uint64(5+codechain.InitialNominationExpiration), entry.NominationExpiry)
	assert.Equal(t, []byte("node-1"), entry.Metadata)

	assert.Equal(t, ErrInsufficientBalance, l.SelfNominate(addr, 10000, nil, 5))
}

func TestDelegateRevoke(t *testing.T) {
	l := newTestLedger(t)
	candidate := datagen.RandAddress()
	delegator := datagen.RandAddress()
	fund(t, l, candidate, 100)
	fund(t, l, delegator, 1000)
	require.NoError(t, l.SelfNominate(candidate, 100, nil, 1))

	// delegating to a non-candidate is rejected
	assert.Equal(t, ErrInvalidDelegatee, l.Delegate(delegator, datagen.RandAddress(), 10))

	require.NoError(t, l.Delegate(delegator, candidate, 400))

	entry, err := l.GetEntry(candidate)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), entry.Delegated)

	balance, err := l.GetBalance(delegator)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), balance)

	edges, err := l.GetDelegations(delegator)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, Delegation{Delegator: delegator, Delegatee: candidate, Quantity: 400}, edges[0])

	// revoke more than delegated is rejected
	assert.Equal(t, ErrInsufficientBalance, l.Revoke(delegator, candidate, 401))

	// revoke is the exact inverse of delegate
	require.NoError(t, l.Revoke(delegator, candidate, 400))
	balance, err = l.GetBalance(delegator)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)
	entry, err = l.GetEntry(candidate)
	require.NoError(t, err)
	assert.Zero(t, entry.Delegated)
	edges, err = l.GetDelegations(delegator)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestRedelegate(t *testing.T) {
	l := newTestLedger(t)
	a := datagen.RandAddress()
	b := datagen.RandAddress()
	delegator := datagen.RandAddress()
	fund(t, l, a, 100)
	fund(t, l, b, 100)
	fund(t, l, delegator, 500)
	require.NoError(t, l.SelfNominate(a, 100, nil, 1))
	require.NoError(t, l.SelfNominate(b, 100, nil, 1))
	require.NoError(t, l.Delegate(delegator, a, 500))

	require.NoError(t, l.Redelegate(delegator, a, b, 200))

	entryA, err := l.GetEntry(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), entryA.Delegated)
	entryB, err := l.GetEntry(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), entryB.Delegated)

	// free balance is untouched
	balance, err := l.GetBalance(delegator)
	require.NoError(t, err)
	assert.Zero(t, balance)

	assert.Equal(t, ErrInsufficientBalance, l.Redelegate(delegator, a, b, 301))
}

func TestLifecycleTable(t *testing.T) {
	tests := []struct {
		from    Status
		event   Event
		to      Status
		illegal bool
	}{
		{StatusAbsent, EventNominate, StatusCandidate, false},
		{StatusAbsent, EventBan, StatusBanned, false},
		{StatusAbsent, EventElect, 0, true},
		{StatusCandidate, EventElect, StatusCommittee, false},
		{StatusCandidate, EventExpire, StatusAbsent, false},
		{StatusCandidate, EventJail, 0, true},
		{StatusCommittee, EventDepose, StatusCandidate, false},
		{StatusCommittee, EventJail, StatusJailed, false},
		{StatusCommittee, EventExpire, 0, true},
		{StatusJailed, EventRelease, StatusCandidate, false},
		{StatusJailed, EventNominate, 0, true},
		{StatusJailed, EventElect, 0, true},
		{StatusBanned, EventNominate, 0, true},
		{StatusBanned, EventRelease, 0, true},
		{StatusBanned, EventBan, 0, true},
	}

	for _, tt := range tests {
		to, err := Transit(tt.from, tt.event)
		if tt.illegal {
			assert.Error(t, err, "%v on %v", tt.event, tt.from)
		} else {
			require.NoError(t, err, "%v on %v", tt.event, tt.from)
			assert.Equal(t, tt.to, to)
		}
	}
}

func TestJailReleaseBookkeeping(t *testing.T) {
	l := newTestLedger(t)
	addr := datagen.RandAddress()
	fund(t, l, addr, 100)
	require.NoError(t, l.SelfNominate(addr, 100, nil, 1))
	require.NoError(t, l.Elect(addr))

	require.NoError(t, l.Jail(addr, 7, 3))
	entry, err := l.GetEntry(addr)
	require.NoError(t, err)
	assert.Equal(t, StatusJailed, entry.Status)
	assert.Equal(t, uint64(7), entry.JailedAt)
	assert.Equal(t, uint64(3), entry.CustodyRemaining)

	// jailed accounts can neither renominate nor receive delegations
	assert.Equal(t, ErrJailed, l.SelfNominate(addr, 1, nil, 8))
	assert.Equal(t, ErrInvalidDelegatee, l.Delegate(datagen.RandAddress(), addr, 1))

	for i, done := range []bool{false, false, true} {
		elapsed, err := l.DecrementCustody(addr)
		require.NoError(t, err)
		assert.Equal(t, done, elapsed, "decrement %d", i)
	}

	require.NoError(t, l.Release(addr, 24))
	entry, err = l.GetEntry(addr)
	require.NoError(t, err)
	assert.Equal(t, StatusCandidate, entry.Status)
	assert.Equal(t, uint64(100), entry.Deposit)
	assert.Equal(t, uint64(7+24), entry.NominationExpiry)
	assert.Zero(t, entry.JailedAt)
	assert.Zero(t, entry.CustodyRemaining)
}

func TestExpireRefundsDepositAndDelegations(t *testing.T) {
	l := newTestLedger(t)
	candidate := datagen.RandAddress()
	delegator := datagen.RandAddress()
	fund(t, l, candidate, 100)
	fund(t, l, delegator, 500)
	require.NoError(t, l.SelfNominate(candidate, 100, nil, 1))
	require.NoError(t, l.Delegate(delegator, candidate, 500))

	require.NoError(t, l.Expire(candidate))

	entry, err := l.GetEntry(candidate)
	require.NoError(t, err)
	assert.True(t, entry.IsEmpty())

	balance, err := l.GetBalance(candidate)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
	balance, err = l.GetBalance(delegator)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance)

	edges, err := l.AllDelegations()
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestBan(t *testing.T) {
	l := newTestLedger(t)
	candidate := datagen.RandAddress()
	delegator := datagen.RandAddress()
	fund(t, l, candidate, 100)
	fund(t, l, delegator, 500)
	require.NoError(t, l.SelfNominate(candidate, 100, nil, 1))
	require.NoError(t, l.Delegate(delegator, candidate, 500))

	evidence := datagen.RandBytes32()
	slashed, err := l.Ban(candidate, evidence)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), slashed)

	entry, err := l.GetEntry(candidate)
	require.NoError(t, err)
	assert.Equal(t, StatusBanned, entry.Status)
	assert.Equal(t, evidence, entry.BanEvidence)
	assert.Zero(t, entry.Deposit)
	assert.Zero(t, entry.Delegated)

	// deposit is slashed, not refunded; delegations come back
	balance, err := l.GetBalance(candidate)
	require.NoError(t, err)
	assert.Zero(t, balance)
	balance, err = l.GetBalance(delegator)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance)

	// banned is terminal
	assert.Equal(t, ErrBanned, l.SelfNominate(candidate, 1, nil, 2))
	assert.Equal(t, ErrInvalidDelegatee, l.Delegate(delegator, candidate, 1))
	_, err = l.Ban(candidate, evidence)
	assert.Error(t, err)

	// banning an absent account is legal
	_, err = l.Ban(datagen.RandAddress(), evidence)
	assert.NoError(t, err)
}

func TestCandidatesEligibility(t *testing.T) {
	l := newTestLedger(t)
	p := l.Params()
	require.NoError(t, p.Set(codechain.KeyMinDeposit, 100))

	eligible := datagen.RandAddress()
	lowDeposit := datagen.RandAddress()
	expired := datagen.RandAddress()
	for _, addr := range []codechain.Address{eligible, lowDeposit, expired} {
		fund(t, l, addr, 1000)
	}
	require.NoError(t, l.SelfNominate(eligible, 100, nil, 10))
	require.NoError(t, l.SelfNominate(lowDeposit, 99, nil, 10))
	require.NoError(t, l.SelfNominate(expired, 100, nil, 10))

	// sitting committee members stay in the pool
	require.NoError(t, l.Elect(eligible))

	currentTerm := uint64(10 + codechain.InitialNominationExpiration + 1)
	entry, err := l.GetEntry(expired)
	require.NoError(t, err)
	assert.Less(t, entry.NominationExpiry, currentTerm)

	// renew the eligible ones into the current term
	require.NoError(t, l.SelfNominate(eligible, 0, nil, currentTerm))
	require.NoError(t, l.SelfNominate(lowDeposit, 0, nil, currentTerm))

	pool, err := l.Candidates(currentTerm)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, eligible, pool[0].Address)
}

func TestParamsFallbackToInitial(t *testing.T) {
	l := newTestLedger(t)
	p := l.Params()

	val, err := p.Get(codechain.KeyCustodyPeriod)
	require.NoError(t, err)
	assert.Equal(t, uint64(codechain.InitialCustodyPeriod), val)

	require.NoError(t, p.Set(codechain.KeyCustodyPeriod, 48))
	val, err = p.Get(codechain.KeyCustodyPeriod)
	require.NoError(t, err)
	assert.Equal(t, uint64(48), val)

	val, err = p.Get(codechain.KeyTermBlocks)
	require.NoError(t, err)
	assert.Zero(t, val)
}
