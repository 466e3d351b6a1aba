// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/kv"
	"github.com/CodeChain-io/codechain-sub002/stackedmap"
)

type slot struct {
	val     []byte
	deleted bool
}

// State is a staged, revertible view over a kv store.
//
// All mutations are buffered in a stacked map. Checkpoints allow reverting a
// failed action without losing earlier writes of the same block; Commit
// flushes the whole journal into one atomic kv batch. All replaying nodes
// apply mutations in the same order, so the committed bytes are identical.
type State struct {
	store kv.Store
	sm    *stackedmap.StackedMap[string, slot]
}

// New creates a state backed by the given store.
func New(store kv.Store) *State {
	state := &State{store: store}
	state.sm = stackedmap.New(func(key string) (slot, bool, error) {
		val, err := store.Get([]byte(key))
		if err != nil {
			if store.IsNotFound(err) {
				return slot{}, false, nil
			}
			return slot{}, false, err
		}
		return slot{val: val}, true, nil
	})
	state.sm.Push()
	return state
}

// Get returns the raw value for the given key.
// ok is false if the key does not exist.
func (s *State) Get(key []byte) (val []byte, ok bool, err error) {
	v, found, err := s.sm.Get(string(key))
	if err != nil {
		return nil, false, errors.Wrap(err, "state get")
	}
	if !found || v.deleted {
		return nil, false, nil
	}
	return v.val, true, nil
}

// Set stages the raw value for the given key.
func (s *State) Set(key, val []byte) {
	s.sm.Put(string(key), slot{val: val})
}

// Delete stages deletion of the given key.
func (s *State) Delete(key []byte) {
	s.sm.Put(string(key), slot{deleted: true})
}

// GetDecoded rlp-decodes the value for the given key into target.
// ok is false if the key does not exist.
func (s *State) GetDecoded(key []byte, target any) (ok bool, err error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, target); err != nil {
		return false, errors.Wrap(err, "state decode")
	}
	return true, nil
}

// SetEncoded stages the rlp-encoded value for the given key.
func (s *State) SetEncoded(key []byte, val any) error {
	raw, err := rlp.EncodeToBytes(val)
	if err != nil {
		return errors.Wrap(err, "state encode")
	}
	s.Set(key, raw)
	return nil
}

// NewCheckpoint creates a checkpoint and returns it.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts all mutations staged after the given checkpoint.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
	if s.sm.Depth() == 0 {
		// keep the base level alive
		s.sm.Push()
	}
}

// Iterate walks key/value pairs prefixed with the given prefix in ascending
// key order, merging staged mutations over the backing store. The walk aborts
// when cb returns an error.
func (s *State) Iterate(prefix []byte, cb func(key, val []byte) error) error {
	// final staged value per key under the prefix
	staged := make(map[string]slot)
	s.sm.Journal(func(key string, v slot) bool {
		if bytes.HasPrefix([]byte(key), prefix) {
			staged[key] = v
		}
		return true
	})

	stagedKeys := make([]string, 0, len(staged))
	for k := range staged {
		stagedKeys = append(stagedKeys, k)
	}
	sort.Strings(stagedKeys)

	emitStaged := func(upTo []byte) error {
		for len(stagedKeys) > 0 {
			k := stagedKeys[0]
			if upTo != nil && bytes.Compare([]byte(k), upTo) >= 0 {
				return nil
			}
			stagedKeys = stagedKeys[1:]
			if v := staged[k]; !v.deleted {
				if err := cb([]byte(k), v.val); err != nil {
					return err
				}
			}
		}
		return nil
	}

	iter := s.store.Iterate(kv.PrefixRange(prefix))
	defer iter.Release()

	for iter.Next() {
		key := iter.Key()
		// staged keys ordered before the current store key go first
		if err := emitStaged(key); err != nil {
			return err
		}
		if v, overridden := staged[string(key)]; overridden {
			if len(stagedKeys) > 0 && stagedKeys[0] == string(key) {
				stagedKeys = stagedKeys[1:]
			}
			if v.deleted {
				continue
			}
			if err := cb(key, v.val); err != nil {
				return err
			}
			continue
		}
		if err := cb(key, iter.Value()); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "state iterate")
	}
	// remaining staged-only keys beyond the last store key
	return emitStaged(nil)
}

// Commit writes the staged journal into the backing store as one atomic batch
// and resets the staging area.
func (s *State) Commit() error {
	batch := s.store.NewBatch()

	final := make(map[string]slot)
	order := make([]string, 0)
	s.sm.Journal(func(key string, v slot) bool {
		if _, seen := final[key]; !seen {
			order = append(order, key)
		}
		final[key] = v
		return true
	})

	for _, key := range order {
		v := final[key]
		var err error
		if v.deleted {
			err = batch.Delete([]byte(key))
		} else {
			err = batch.Put([]byte(key), v.val)
		}
		if err != nil {
			return errors.Wrap(err, "state commit")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "state commit")
	}

	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
