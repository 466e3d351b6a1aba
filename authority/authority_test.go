// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/lvldb"
	"github.com/CodeChain-io/codechain-sub002/staking"
	"github.com/CodeChain-io/codechain-sub002/state"
	"github.com/CodeChain-io/codechain-sub002/test/datagen"
)

func candidate(addr codechain.Address, delegated, deposit uint64) staking.Candidate {
	return staking.Candidate{Address: addr, Delegated: delegated, Deposit: deposit}
}

func TestSelectRanking(t *testing.T) {
	a := codechain.BytesToAddress([]byte{0x0a})
	b := codechain.BytesToAddress([]byte{0x0b})
	c := codechain.BytesToAddress([]byte{0x0c})
	d := codechain.BytesToAddress([]byte{0x0d})

	pool := []staking.Candidate{
		candidate(d, 100, 50),
		candidate(b, 300, 10),
		candidate(c, 100, 80),
		candidate(a, 100, 50),
	}

	committee, err := NewSelector().Select(pool, 0, 1, 10)
	require.NoError(t, err)

	// delegation desc, then deposit desc, then address asc
	assert.Equal(t, []codechain.Address{b, c, a, d}, committee.Addresses())

	idx, ok := committee.IndexOf(c)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	member, ok := committee.MemberAt(0)
	require.True(t, ok)
	assert.Equal(t, b, member.Address)
	assert.Equal(t, uint64(300), member.Weight)

	_, ok = committee.MemberAt(4)
	assert.False(t, ok)
	_, ok = committee.IndexOf(datagen.RandAddress())
	assert.False(t, ok)
}

func TestSelectBounds(t *testing.T) {
	var pool []staking.Candidate
	for i := 0; i < 10; i++ {
		pool = append(pool, candidate(datagen.RandAddress(), uint64(1000+i), 100))
	}

	// maxSeats truncates after ranking
	committee, err := NewSelector().Select(pool, 0, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, committee.Len())
	for _, m := range committee.Members() {
		assert.GreaterOrEqual(t, m.Weight, uint64(1006))
	}

	// delegation threshold filters before the minimum check
	_, err = NewSelector().Select(pool, 2000, 1, 4)
	assert.Equal(t, ErrInsufficientCandidates, err)

	_, err = NewSelector().Select(pool[:3], 0, 4, 10)
	assert.Equal(t, ErrInsufficientCandidates, err)
}

func TestSelectDeterminism(t *testing.T) {
	var pool []staking.Candidate
	for i := 0; i < 20; i++ {
		pool = append(pool, candidate(datagen.RandAddress(), uint64(i%5), 100))
	}

	first, err := NewSelector().Select(pool, 0, 1, 20)
	require.NoError(t, err)

	// reversed input yields the identical ranking
	reversed := make([]staking.Candidate, len(pool))
	for i, c := range pool {
		reversed[len(pool)-1-i] = c
	}
	second, err := NewSelector().Select(reversed, 0, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, first.Addresses(), second.Addresses())
}

func TestWithComparator(t *testing.T) {
	a := codechain.BytesToAddress([]byte{0x0a})
	b := codechain.BytesToAddress([]byte{0x0b})
	pool := []staking.Candidate{candidate(a, 100, 1), candidate(b, 200, 1)}

	byAddress := func(x, y staking.Candidate) bool {
		return x.Address.Compare(y.Address) < 0
	}
	committee, err := NewSelector(WithComparator(byAddress)).Select(pool, 0, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []codechain.Address{a, b}, committee.Addresses())
}

func TestSnapshots(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := state.New(db)
	snapshots := NewSnapshots(st)

	_, err = snapshots.Head()
	assert.Equal(t, ErrNoSnapshot, err)
	_, err = snapshots.ByTerm(0)
	assert.Equal(t, ErrNoSnapshot, err)

	members := []Member{
		{Address: datagen.RandAddress(), Weight: 500, Deposit: 100},
		{Address: datagen.RandAddress(), Weight: 300, Deposit: 100},
	}
	starts := []uint64{0, 30, 60, 95}
	for termID, start := range starts {
		require.NoError(t, snapshots.Save(&Snapshot{
			TermID:     uint64(termID),
			StartBlock: start,
			Members:    members,
			Banned:     []codechain.Address{datagen.RandAddress()},
		}))
	}
	require.NoError(t, st.Commit())

	head, err := snapshots.Head()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), head)

	snapshot, err := snapshots.ByTerm(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), snapshot.StartBlock)
	assert.Equal(t, members[0].Address, snapshot.Committee().Members()[0].Address)

	for _, tt := range []struct{ height, term uint64 }{
		{0, 0}, {29, 0}, {30, 1}, {59, 1}, {60, 2}, {94, 2}, {95, 3}, {1000, 3},
	} {
		snapshot, err := snapshots.AtHeight(tt.height)
		require.NoError(t, err)
		assert.Equal(t, tt.term, snapshot.TermID, "height %d", tt.height)
	}

	// a reopened store reads the committed snapshots
	reopened := NewSnapshots(state.New(db))
	snapshot, err = reopened.ByTerm(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), snapshot.StartBlock)
	assert.Len(t, snapshot.Banned, 1)
}
