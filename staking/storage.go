// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/state"
)

func decodeValue(raw []byte, target any) error {
	if err := rlp.DecodeBytes(raw, target); err != nil {
		return errors.Wrap(err, "failed to decode stored value")
	}
	return nil
}

var (
	prefixEntry   = []byte("e")
	prefixBalance = []byte("b")
	prefixEdge    = []byte("d") // delegator || delegatee -> quantity
	prefixInbound = []byte("i") // delegatee || delegator -> quantity
)

// storage holds the key scheme of the stake ledger.
type storage struct {
	state *state.State
}

func entryKey(addr codechain.Address) []byte {
	return append(append([]byte{}, prefixEntry...), addr.Bytes()...)
}

func balanceKey(addr codechain.Address) []byte {
	return append(append([]byte{}, prefixBalance...), addr.Bytes()...)
}

func edgeKey(delegator, delegatee codechain.Address) []byte {
	key := append(append([]byte{}, prefixEdge...), delegator.Bytes()...)
	return append(key, delegatee.Bytes()...)
}

func inboundKey(delegatee, delegator codechain.Address) []byte {
	key := append(append([]byte{}, prefixInbound...), delegatee.Bytes()...)
	return append(key, delegator.Bytes()...)
}

func (s *storage) getEntry(addr codechain.Address) (*Entry, error) {
	var entry Entry
	if _, err := s.state.GetDecoded(entryKey(addr), &entry); err != nil {
		return nil, errors.Wrap(err, "failed to get entry")
	}
	return &entry, nil
}

func (s *storage) setEntry(addr codechain.Address, entry *Entry) error {
	if entry.IsEmpty() {
		s.state.Delete(entryKey(addr))
		return nil
	}
	if err := s.state.SetEncoded(entryKey(addr), entry); err != nil {
		return errors.Wrap(err, "failed to set entry")
	}
	return nil
}

func (s *storage) getBalance(addr codechain.Address) (uint64, error) {
	var balance uint64
	if _, err := s.state.GetDecoded(balanceKey(addr), &balance); err != nil {
		return 0, errors.Wrap(err, "failed to get balance")
	}
	return balance, nil
}

func (s *storage) setBalance(addr codechain.Address, balance uint64) error {
	if balance == 0 {
		s.state.Delete(balanceKey(addr))
		return nil
	}
	if err := s.state.SetEncoded(balanceKey(addr), balance); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}

func (s *storage) getEdge(delegator, delegatee codechain.Address) (uint64, error) {
	var quantity uint64
	if _, err := s.state.GetDecoded(edgeKey(delegator, delegatee), &quantity); err != nil {
		return 0, errors.Wrap(err, "failed to get delegation edge")
	}
	return quantity, nil
}

// setEdge maintains the edge and its inbound index together. A zero quantity
// deletes the edge.
func (s *storage) setEdge(delegator, delegatee codechain.Address, quantity uint64) error {
	if quantity == 0 {
		s.state.Delete(edgeKey(delegator, delegatee))
		s.state.Delete(inboundKey(delegatee, delegator))
		return nil
	}
	if err := s.state.SetEncoded(edgeKey(delegator, delegatee), quantity); err != nil {
		return errors.Wrap(err, "failed to set delegation edge")
	}
	if err := s.state.SetEncoded(inboundKey(delegatee, delegator), quantity); err != nil {
		return errors.Wrap(err, "failed to set inbound index")
	}
	return nil
}

// iterateEntries walks all governance entries in address order.
func (s *storage) iterateEntries(cb func(addr codechain.Address, entry *Entry) error) error {
	return s.state.Iterate(prefixEntry, func(key, val []byte) error {
		var entry Entry
		if err := decodeValue(val, &entry); err != nil {
			return err
		}
		return cb(codechain.BytesToAddress(key[len(prefixEntry):]), &entry)
	})
}

// iterateOutbound walks all edges held by the delegator.
func (s *storage) iterateOutbound(delegator codechain.Address, cb func(delegatee codechain.Address, quantity uint64) error) error {
	prefix := append(append([]byte{}, prefixEdge...), delegator.Bytes()...)
	return s.state.Iterate(prefix, func(key, val []byte) error {
		var quantity uint64
		if err := decodeValue(val, &quantity); err != nil {
			return err
		}
		return cb(codechain.BytesToAddress(key[len(prefix):]), quantity)
	})
}

// iterateInbound walks all edges pointing at the delegatee.
func (s *storage) iterateInbound(delegatee codechain.Address, cb func(delegator codechain.Address, quantity uint64) error) error {
	prefix := append(append([]byte{}, prefixInbound...), delegatee.Bytes()...)
	return s.state.Iterate(prefix, func(key, val []byte) error {
		var quantity uint64
		if err := decodeValue(val, &quantity); err != nil {
			return err
		}
		return cb(codechain.BytesToAddress(key[len(prefix):]), quantity)
	})
}

// iterateEdges walks every delegation edge in the ledger.
func (s *storage) iterateEdges(cb func(delegator, delegatee codechain.Address, quantity uint64) error) error {
	return s.state.Iterate(prefixEdge, func(key, val []byte) error {
		var quantity uint64
		if err := decodeValue(val, &quantity); err != nil {
			return err
		}
		rest := key[len(prefixEdge):]
		delegator := codechain.BytesToAddress(rest[:codechain.AddressLength])
		delegatee := codechain.BytesToAddress(rest[codechain.AddressLength:])
		return cb(delegator, delegatee, quantity)
	})
}
