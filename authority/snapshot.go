// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/staking"
	"github.com/CodeChain-io/codechain-sub002/state"
)

var (
	prefixSnapshot  = []byte("s")
	keySnapshotHead = []byte("S")
)

// ErrNoSnapshot is returned when no snapshot covers the requested term or
// height.
var ErrNoSnapshot = errors.New("no snapshot for the requested point")

// Snapshot freezes the governance views of one term at the block that opened
// it. Historical queries are answered from snapshots; only the current term
// is served from live state.
type Snapshot struct {
	TermID     uint64
	StartBlock uint64

	Members     []Member
	Candidates  []staking.Candidate
	Jailed      []staking.Jailed
	Banned      []codechain.Address
	Delegations []staking.Delegation
}

// Committee reconstructs the ordered committee of the snapshot. The result
// includes every elected seat, even members banned later in the term, so
// evidence against them still resolves.
func (s *Snapshot) Committee() *Committee {
	return NewCommittee(s.Members)
}

// Snapshots persists one snapshot per term, keyed by term id.
type Snapshots struct {
	state *state.State
	cache *lru.Cache
}

// NewSnapshots creates the snapshot store over the given state.
func NewSnapshots(st *state.State) *Snapshots {
	cache, _ := lru.New(16)
	return &Snapshots{st, cache}
}

func snapshotKey(termID uint64) []byte {
	key := make([]byte, 0, len(prefixSnapshot)+8)
	key = append(key, prefixSnapshot...)
	return binary.BigEndian.AppendUint64(key, termID)
}

// Save stages the snapshot and advances the head term. It commits together
// with the rest of the block.
func (s *Snapshots) Save(snapshot *Snapshot) error {
	if err := s.state.SetEncoded(snapshotKey(snapshot.TermID), snapshot); err != nil {
		return errors.Wrap(err, "failed to save snapshot")
	}
	if err := s.state.SetEncoded(keySnapshotHead, snapshot.TermID); err != nil {
		return errors.Wrap(err, "failed to save snapshot head")
	}
	s.cache.Add(snapshot.TermID, snapshot)
	return nil
}

// Head returns the id of the latest snapshotted term.
func (s *Snapshots) Head() (uint64, error) {
	var head uint64
	ok, err := s.state.GetDecoded(keySnapshotHead, &head)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get snapshot head")
	}
	if !ok {
		return 0, ErrNoSnapshot
	}
	return head, nil
}

// ByTerm returns the snapshot of the given term.
func (s *Snapshots) ByTerm(termID uint64) (*Snapshot, error) {
	if cached, ok := s.cache.Get(termID); ok {
		return cached.(*Snapshot), nil
	}

	var snapshot Snapshot
	ok, err := s.state.GetDecoded(snapshotKey(termID), &snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get snapshot")
	}
	if !ok {
		return nil, ErrNoSnapshot
	}
	s.cache.Add(termID, &snapshot)
	return &snapshot, nil
}

// AtHeight returns the snapshot of the term that was current at the given
// block height. Term ids are dense and start blocks are monotonic, so a
// binary search over the term range finds it.
func (s *Snapshots) AtHeight(height uint64) (*Snapshot, error) {
	head, err := s.Head()
	if err != nil {
		return nil, err
	}

	lo, hi := uint64(0), head
	for lo < hi {
		mid := (lo + hi + 1) / 2
		snapshot, err := s.ByTerm(mid)
		if err != nil {
			return nil, err
		}
		if snapshot.StartBlock <= height {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return s.ByTerm(lo)
}
