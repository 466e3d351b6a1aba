// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/state"
)

var prefixParams = []byte("p")

// Params provides access to the persisted governance parameters.
type Params struct {
	state *state.State
}

// NewParams creates a params accessor over the given state.
func NewParams(st *state.State) *Params {
	return &Params{st}
}

func paramKey(key codechain.Bytes32) []byte {
	return append(append([]byte{}, prefixParams...), key.Bytes()...)
}

// Get returns the value of the given param key, or its initial value if the
// key was never set.
func (p *Params) Get(key codechain.Bytes32) (uint64, error) {
	var val uint64
	ok, err := p.state.GetDecoded(paramKey(key), &val)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get param")
	}
	if !ok {
		return initialValue(key), nil
	}
	return val, nil
}

// Set updates the value of the given param key.
func (p *Params) Set(key codechain.Bytes32, val uint64) error {
	if err := p.state.SetEncoded(paramKey(key), val); err != nil {
		return errors.Wrap(err, "failed to set param")
	}
	return nil
}

func initialValue(key codechain.Bytes32) uint64 {
	switch key {
	case codechain.KeyTermSeconds:
		return codechain.InitialTermSeconds
	case codechain.KeyMaxNumOfValidators:
		return codechain.InitialMaxNumOfValidators
	case codechain.KeyMinNumOfValidators:
		return codechain.InitialMinNumOfValidators
	case codechain.KeyDelegationThreshold:
		return codechain.InitialDelegationThreshold
	case codechain.KeyMinDeposit:
		return codechain.InitialMinDeposit
	case codechain.KeyCustodyPeriod:
		return codechain.InitialCustodyPeriod
	case codechain.KeyReleasePeriod:
		return codechain.InitialReleasePeriod
	case codechain.KeyNominationExpiration:
		return codechain.InitialNominationExpiration
	default:
		// includes KeyTermBlocks: block-count trigger is opt-in
		return 0
	}
}
