// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package term

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/state"
)

var (
	keyRecord      = []byte("T")
	prefixLiveness = []byte("v") // term id || address -> contribution count
)

// Record tracks the currently open term.
type Record struct {
	ID         uint64
	StartBlock uint64
	StartTime  uint64 // unix seconds of the block that opened the term

	// number of the block whose processing closed the previous term
	LastFinishedBlock uint64
}

type storage struct {
	state *state.State
}

func livenessKey(termID uint64, addr codechain.Address) []byte {
	key := make([]byte, 0, len(prefixLiveness)+8+codechain.AddressLength)
	key = append(key, prefixLiveness...)
	key = binary.BigEndian.AppendUint64(key, termID)
	return append(key, addr.Bytes()...)
}

func (s *storage) getRecord() (*Record, error) {
	var record Record
	ok, err := s.state.GetDecoded(keyRecord, &record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get term record")
	}
	if !ok {
		return nil, errors.New("term record not initialized")
	}
	return &record, nil
}

func (s *storage) setRecord(record *Record) error {
	if err := s.state.SetEncoded(keyRecord, record); err != nil {
		return errors.Wrap(err, "failed to set term record")
	}
	return nil
}

func (s *storage) getContributions(termID uint64, addr codechain.Address) (uint64, error) {
	var count uint64
	if _, err := s.state.GetDecoded(livenessKey(termID, addr), &count); err != nil {
		return 0, errors.Wrap(err, "failed to get liveness record")
	}
	return count, nil
}

func (s *storage) setContributions(termID uint64, addr codechain.Address, count uint64) error {
	if err := s.state.SetEncoded(livenessKey(termID, addr), count); err != nil {
		return errors.Wrap(err, "failed to set liveness record")
	}
	return nil
}

// clearLiveness drops all liveness records of the term.
func (s *storage) clearLiveness(termID uint64) error {
	prefix := make([]byte, 0, len(prefixLiveness)+8)
	prefix = append(prefix, prefixLiveness...)
	prefix = binary.BigEndian.AppendUint64(prefix, termID)

	var keys [][]byte
	if err := s.state.Iterate(prefix, func(key, _ []byte) error {
		keys = append(keys, append([]byte{}, key...))
		return nil
	}); err != nil {
		return err
	}
	for _, key := range keys {
		s.state.Delete(key)
	}
	return nil
}
