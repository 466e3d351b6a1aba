// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/cry"
)

// Step is the consensus round step a vote belongs to.
type Step uint8

const (
	StepPropose Step = iota
	StepPrevote
	StepPrecommit
	StepCommit
)

// String implements the stringer interface.
func (s Step) String() string {
	switch s {
	case StepPropose:
		return "propose"
	case StepPrevote:
		return "prevote"
	case StepPrecommit:
		return "precommit"
	case StepCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// VoteOn is the voted-on consensus round. A nil BlockHash is a nil-vote.
type VoteOn struct {
	Height    uint64
	View      uint64
	Step      Step
	BlockHash *codechain.Bytes32 `rlp:"nil"`
}

// Equal reports whether two rounds refer to the same (height, view, step).
func (v *VoteOn) Equal(other *VoteOn) bool {
	return v.Height == other.Height && v.View == other.View && v.Step == other.Step
}

// SameTarget reports whether two votes point at the same block hash.
func (v *VoteOn) SameTarget(other *VoteOn) bool {
	if v.BlockHash == nil || other.BlockHash == nil {
		return v.BlockHash == other.BlockHash
	}
	return bytes.Equal(v.BlockHash.Bytes(), other.BlockHash.Bytes())
}

// VoteMessage is one signed consensus vote. SignerIdx refers to the seat in
// the committee of the term the vote's height belongs to.
type VoteMessage struct {
	On        VoteOn
	SignerIdx uint64
	Signature []byte
}

// SigningHash returns the digest the vote signature commits to: the blake2b
// hash of the canonical encoding of the voted-on round.
func (v *VoteMessage) SigningHash() (codechain.Bytes32, error) {
	encoded, err := rlp.EncodeToBytes(&v.On)
	if err != nil {
		return codechain.Bytes32{}, errors.Wrap(err, "failed to encode vote")
	}
	return codechain.Blake2b(encoded), nil
}

// Signer recovers the public-key address that produced the signature.
func (v *VoteMessage) Signer() (codechain.Address, error) {
	hash, err := v.SigningHash()
	if err != nil {
		return codechain.Address{}, err
	}
	signer, err := cry.Signer(hash, v.Signature)
	if err != nil {
		return codechain.Address{}, errors.Wrap(err, "failed to recover vote signer")
	}
	return signer, nil
}

// Hash identifies the vote, signature included.
func (v *VoteMessage) Hash() (codechain.Bytes32, error) {
	encoded, err := rlp.EncodeToBytes(v)
	if err != nil {
		return codechain.Bytes32{}, errors.Wrap(err, "failed to encode vote")
	}
	return codechain.Blake2b(encoded), nil
}
