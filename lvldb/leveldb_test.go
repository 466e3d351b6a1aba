// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeChain-io/codechain-sub002/kv"
)

func TestGetPutDelete(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := db.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete([]byte("k")))
	has, err = db.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBatchAtomicity(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("stale"), []byte("x")))

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	require.NoError(t, batch.Delete([]byte("stale")))
	assert.Equal(t, 3, batch.Len())
	require.NoError(t, batch.Write())

	v, err := db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	_, err = db.Get([]byte("stale"))
	assert.True(t, db.IsNotFound(err))
}

func TestIterateRange(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	for _, k := range []byte{1, 2, 3, 4} {
		require.NoError(t, db.Put([]byte{k}, []byte{k}))
	}

	iter := db.Iterate(kv.Range{Start: []byte{2}, Limit: []byte{4}})
	defer iter.Release()

	var got []byte
	for iter.Next() {
		got = append(got, iter.Key()[0])
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []byte{2, 3}, got)
}
