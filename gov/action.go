// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gov

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/slashing"
)

// Kind discriminates the payload of an action.
type Kind uint8

const (
	KindTransfer Kind = iota
	KindSelfNominate
	KindDelegate
	KindRevoke
	KindRedelegate
	KindReportDoubleVote
	KindChangeParams
)

// String implements the stringer interface.
func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindSelfNominate:
		return "selfNominate"
	case KindDelegate:
		return "delegate"
	case KindRevoke:
		return "revoke"
	case KindRedelegate:
		return "redelegate"
	case KindReportDoubleVote:
		return "reportDoubleVote"
	case KindChangeParams:
		return "changeParams"
	default:
		return "unknown"
	}
}

// Action is one governance operation carried by a block. The payload is the
// canonical encoding of the kind-specific struct.
type Action struct {
	Kind    Kind
	Sender  codechain.Address
	Payload []byte
}

// NewAction encodes the payload into an action envelope.
func NewAction(kind Kind, sender codechain.Address, payload any) (Action, error) {
	encoded, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return Action{}, errors.Wrap(err, "failed to encode action payload")
	}
	return Action{Kind: kind, Sender: sender, Payload: encoded}, nil
}

// ErrMalformedPayload rejects an action whose payload fails to decode.
var ErrMalformedPayload = errors.New("malformed action payload")

func (a *Action) decode(target any) error {
	if err := rlp.DecodeBytes(a.Payload, target); err != nil {
		return errors.Wrapf(ErrMalformedPayload, "%v: %v", a.Kind, err)
	}
	return nil
}

// TransferPayload moves free stake tokens to another account.
type TransferPayload struct {
	To       codechain.Address
	Quantity uint64
}

// SelfNominatePayload enters or renews the sender's candidacy.
type SelfNominatePayload struct {
	Deposit  uint64
	Metadata []byte
}

// DelegatePayload delegates free stake tokens to a candidate.
type DelegatePayload struct {
	Delegatee codechain.Address
	Quantity  uint64
}

// RevokePayload takes a delegation back.
type RevokePayload struct {
	Delegatee codechain.Address
	Quantity  uint64
}

// RedelegatePayload moves an existing delegation to another candidate.
type RedelegatePayload struct {
	PrevDelegatee codechain.Address
	NextDelegatee codechain.Address
	Quantity      uint64
}

// ReportPayload carries double-vote evidence. Anyone may report.
type ReportPayload struct {
	Evidence slashing.DoubleVote
}

// ChangeParamsPayload updates one governance param, authorized by a quorum
// of the configured governance signers. Seq must equal the current change
// sequence; it increments on success so a payload cannot replay.
type ChangeParamsPayload struct {
	Seq        uint64
	Key        codechain.Bytes32
	Value      uint64
	Signatures [][]byte
}

// SigningHash returns the digest the governance signatures commit to. The
// signatures themselves are excluded.
func (p *ChangeParamsPayload) SigningHash() (codechain.Bytes32, error) {
	encoded, err := rlp.EncodeToBytes([]interface{}{p.Seq, p.Key, p.Value})
	if err != nil {
		return codechain.Bytes32{}, errors.Wrap(err, "failed to encode param change")
	}
	return codechain.Blake2b(encoded), nil
}
