// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gov

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/slashing"
	"github.com/CodeChain-io/codechain-sub002/state"
)

var (
	keyHead         = []byte("H")
	keyParamSigners = []byte("G")
	keyParamSeq     = []byte("q")
	prefixReceipts  = []byte("r") // block number -> slash receipts
)

// store holds the engine's own bookkeeping next to the ledger.
type store struct {
	state *state.State
}

func receiptsKey(blockNumber uint64) []byte {
	key := make([]byte, 0, len(prefixReceipts)+8)
	key = append(key, prefixReceipts...)
	return binary.BigEndian.AppendUint64(key, blockNumber)
}

func (s *store) getHead() (uint64, bool, error) {
	var head uint64
	ok, err := s.state.GetDecoded(keyHead, &head)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get head")
	}
	return head, ok, nil
}

func (s *store) setHead(blockNumber uint64) error {
	if err := s.state.SetEncoded(keyHead, blockNumber); err != nil {
		return errors.Wrap(err, "failed to set head")
	}
	return nil
}

func (s *store) getParamSigners() (*GenesisParamSigners, error) {
	var signers GenesisParamSigners
	if _, err := s.state.GetDecoded(keyParamSigners, &signers); err != nil {
		return nil, errors.Wrap(err, "failed to get param signers")
	}
	return &signers, nil
}

func (s *store) setParamSigners(signers *GenesisParamSigners) error {
	if err := s.state.SetEncoded(keyParamSigners, signers); err != nil {
		return errors.Wrap(err, "failed to set param signers")
	}
	return nil
}

func (s *store) getParamSeq() (uint64, error) {
	var seq uint64
	if _, err := s.state.GetDecoded(keyParamSeq, &seq); err != nil {
		return 0, errors.Wrap(err, "failed to get param seq")
	}
	return seq, nil
}

func (s *store) setParamSeq(seq uint64) error {
	if err := s.state.SetEncoded(keyParamSeq, seq); err != nil {
		return errors.Wrap(err, "failed to set param seq")
	}
	return nil
}

func (s *store) getReceipts(blockNumber uint64) ([]*slashing.SlashReceipt, error) {
	var receipts []*slashing.SlashReceipt
	if _, err := s.state.GetDecoded(receiptsKey(blockNumber), &receipts); err != nil {
		return nil, errors.Wrap(err, "failed to get receipts")
	}
	return receipts, nil
}

func (s *store) setReceipts(blockNumber uint64, receipts []*slashing.SlashReceipt) error {
	if err := s.state.SetEncoded(receiptsKey(blockNumber), receipts); err != nil {
		return errors.Wrap(err, "failed to set receipts")
	}
	return nil
}
