// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package codechain

// Keys of governance params.
var (
	KeyTermSeconds          = BytesToBytes32([]byte("term-seconds"))
	KeyTermBlocks           = BytesToBytes32([]byte("term-blocks"))
	KeyMaxNumOfValidators   = BytesToBytes32([]byte("max-num-of-validators"))
	KeyMinNumOfValidators   = BytesToBytes32([]byte("min-num-of-validators"))
	KeyDelegationThreshold  = BytesToBytes32([]byte("delegation-threshold"))
	KeyMinDeposit           = BytesToBytes32([]byte("min-deposit"))
	KeyCustodyPeriod        = BytesToBytes32([]byte("custody-period"))
	KeyReleasePeriod        = BytesToBytes32([]byte("release-period"))
	KeyNominationExpiration = BytesToBytes32([]byte("nomination-expiration"))
)

// ParamNames lists every recognized governance param in a stable order.
var ParamNames = []string{
	"term-seconds",
	"term-blocks",
	"max-num-of-validators",
	"min-num-of-validators",
	"delegation-threshold",
	"min-deposit",
	"custody-period",
	"release-period",
	"nomination-expiration",
}

// KeyByName resolves a param name to its key.
func KeyByName(name string) (Bytes32, bool) {
	for _, known := range ParamNames {
		if name == known {
			return BytesToBytes32([]byte(name)), true
		}
	}
	return Bytes32{}, false
}

// Initial values of governance params.
const (
	InitialTermSeconds          uint64 = 3600
	InitialMaxNumOfValidators   uint64 = 30
	InitialMinNumOfValidators   uint64 = 4
	InitialDelegationThreshold  uint64 = 100000
	InitialMinDeposit           uint64 = 10000000
	InitialCustodyPeriod        uint64 = 24  // terms
	InitialReleasePeriod        uint64 = 240 // terms, counted from the jailing term
	InitialNominationExpiration uint64 = 24  // terms
)
