// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeChain-io/codechain-sub002/stackedmap"
)

func TestStackedMap(t *testing.T) {
	src := map[string]string{"base": "b"}
	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	v, ok, err := sm.Get("base")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	depth0 := sm.Push()
	sm.Put("k", "v1")
	sm.Push()
	sm.Put("k", "v2")
	sm.Put("base", "overridden")

	v, ok, _ = sm.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	v, _, _ = sm.Get("base")
	assert.Equal(t, "overridden", v)

	sm.Pop()
	v, ok, _ = sm.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	v, _, _ = sm.Get("base")
	assert.Equal(t, "b", v)

	sm.PopTo(depth0)
	assert.Equal(t, 0, sm.Depth())
	_, ok, _ = sm.Get("k")
	assert.False(t, ok)
}

func TestJournalOrder(t *testing.T) {
	sm := stackedmap.New(func(key string) (string, bool, error) {
		return "", false, nil
	})

	sm.Push()
	sm.Put("a", "1")
	sm.Push()
	sm.Put("b", "2")
	sm.Put("a", "3")

	var got []string
	sm.Journal(func(k, v string) bool {
		got = append(got, k+v)
		return true
	})
	assert.Equal(t, []string{"a1", "b2", "a3"}, got)

	// aborted iteration
	got = got[:0]
	sm.Journal(func(k, v string) bool {
		got = append(got, k+v)
		return false
	})
	assert.Equal(t, []string{"a1"}, got)
}
