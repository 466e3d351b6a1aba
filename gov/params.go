// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gov

import (
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/authority"
	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/cry"
	"github.com/CodeChain-io/codechain-sub002/slashing"
)

// changeParams rejections.
var (
	ErrChangeDisabled   = errors.New("param changes are disabled")
	ErrStaleSeq         = errors.New("param change sequence mismatch")
	ErrUnknownParam     = errors.New("unknown param key")
	ErrQuorumNotReached = errors.New("not enough governance signatures")
)

// changeParams verifies the quorum and applies the param update. The new
// value takes effect from the next evaluation of the param, so term policy
// changes apply to the running term.
func (e *Engine) changeParams(p *ChangeParamsPayload) error {
	signers, err := e.store.getParamSigners()
	if err != nil {
		return err
	}
	if len(signers.Signers) == 0 {
		return ErrChangeDisabled
	}

	seq, err := e.store.getParamSeq()
	if err != nil {
		return err
	}
	if p.Seq != seq {
		return errors.Wrapf(ErrStaleSeq, "got %d, want %d", p.Seq, seq)
	}
	if !knownParamKey(p.Key) {
		return ErrUnknownParam
	}

	hash, err := p.SigningHash()
	if err != nil {
		return err
	}
	approved := make(map[codechain.Address]bool)
	for _, sig := range p.Signatures {
		signer, err := cry.Signer(hash, sig)
		if err != nil {
			continue
		}
		for _, authorized := range signers.Signers {
			if signer == authorized {
				approved[signer] = true
			}
		}
	}
	if uint64(len(approved)) < signers.Threshold {
		return errors.Wrapf(ErrQuorumNotReached, "%d of %d", len(approved), signers.Threshold)
	}

	if err := e.ledger.Params().Set(p.Key, p.Value); err != nil {
		return err
	}
	if err := e.store.setParamSeq(seq + 1); err != nil {
		return err
	}
	logger.Info("param changed", "key", p.Key, "value", p.Value, "seq", seq)
	return nil
}

func knownParamKey(key codechain.Bytes32) bool {
	for _, name := range codechain.ParamNames {
		if key == codechain.BytesToBytes32([]byte(name)) {
			return true
		}
	}
	return false
}

// isRejection classifies errors that invalidate one action without failing
// the block.
func isRejection(err error) bool {
	switch errors.Cause(err) {
	case ErrMalformedPayload,
		ErrChangeDisabled, ErrStaleSeq, ErrUnknownParam, ErrQuorumNotReached,
		slashing.ErrMismatchedVoteContext, slashing.ErrNotConflicting,
		slashing.ErrUnknownSigner, slashing.ErrInvalidSignature,
		authority.ErrNoSnapshot:
		return true
	default:
		return false
	}
}
