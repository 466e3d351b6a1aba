// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/pkg/errors"

// Ledger-integrity errors. All of them are raised before any state mutation,
// so a rejected action leaves the ledger untouched.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidDelegatee    = errors.New("delegatee is not an active candidate")
	ErrDepositTooLow       = errors.New("deposit is below the required minimum")
	ErrBanned              = errors.New("account is banned")
	ErrJailed              = errors.New("account is jailed")
)

// IsLedgerError reports whether err is one of the ledger-integrity errors.
func IsLedgerError(err error) bool {
	switch errors.Cause(err) {
	case ErrInsufficientBalance, ErrInvalidDelegatee, ErrDepositTooLow, ErrBanned, ErrJailed:
		return true
	default:
		return false
	}
}
