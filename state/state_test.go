// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeChain-io/codechain-sub002/lvldb"
	"github.com/CodeChain-io/codechain-sub002/state"
)

func newState(t *testing.T) (*state.State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.New(db), db
}

func TestGetSetDelete(t *testing.T) {
	st, _ := newState(t)

	_, ok, err := st.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	st.Set([]byte("k"), []byte("v"))
	v, ok, err := st.Get([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	st.Delete([]byte("k"))
	_, ok, err = st.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckpointRevert(t *testing.T) {
	st, _ := newState(t)

	st.Set([]byte("a"), []byte("1"))
	cp := st.NewCheckpoint()
	st.Set([]byte("a"), []byte("2"))
	st.Set([]byte("b"), []byte("3"))

	st.RevertTo(cp)

	v, ok, _ := st.Get([]byte("a"))
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
	_, ok, _ = st.Get([]byte("b"))
	assert.False(t, ok)

	// state stays writable after a full revert
	st.RevertTo(0)
	st.Set([]byte("c"), []byte("4"))
	_, ok, _ = st.Get([]byte("c"))
	assert.True(t, ok)
}

func TestCommitAtomic(t *testing.T) {
	st, db := newState(t)

	st.Set([]byte("a"), []byte("1"))
	st.Set([]byte("b"), []byte("2"))
	st.Delete([]byte("b"))

	// nothing in the store before commit
	_, err := db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, st.Commit())

	v, err := db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	_, err = db.Get([]byte("b"))
	assert.True(t, db.IsNotFound(err))

	// staging area reset, backing values still visible
	v, ok, err := st.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
}

func TestEncodedRoundTrip(t *testing.T) {
	st, _ := newState(t)

	type record struct {
		Quantity uint64
		Tag      []byte
	}
	require.NoError(t, st.SetEncoded([]byte("r"), &record{42, []byte("x")}))

	var got record
	ok, err := st.GetDecoded([]byte("r"), &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, record{42, []byte("x")}, got)
}

func TestIterateMergesStagedAndStored(t *testing.T) {
	st, db := newState(t)

	require.NoError(t, db.Put([]byte("p1"), []byte("stored")))
	require.NoError(t, db.Put([]byte("p3"), []byte("deleted-later")))
	require.NoError(t, db.Put([]byte("q1"), []byte("other-prefix")))

	st.Set([]byte("p2"), []byte("staged"))
	st.Set([]byte("p3"), []byte("overridden"))
	st.Set([]byte("p4"), []byte("staged-tail"))
	st.Delete([]byte("p4"))

	var keys, vals []string
	require.NoError(t, st.Iterate([]byte("p"), func(key, val []byte) error {
		keys = append(keys, string(key))
		vals = append(vals, string(val))
		return nil
	}))
	assert.Equal(t, []string{"p1", "p2", "p3"}, keys)
	assert.Equal(t, []string{"stored", "staged", "overridden"}, vals)
}
