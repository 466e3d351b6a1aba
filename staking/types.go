// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/CodeChain-io/codechain-sub002/codechain"
)

// Status is the lifecycle state of an account in the governance layer.
// An account is in exactly one state at any time; the zero value means the
// account holds no stake-related record at all.
type Status uint8

const (
	StatusAbsent    Status = iota // no record
	StatusCandidate               // self-nominated, eligible for election
	StatusCommittee               // elected into the sitting committee
	StatusJailed                  // suspended for failing liveness duty
	StatusBanned                  // permanently excluded, terminal
)

// String implements the stringer interface.
func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusCandidate:
		return "candidate"
	case StatusCommittee:
		return "committee"
	case StatusJailed:
		return "jailed"
	case StatusBanned:
		return "banned"
	default:
		return "unknown"
	}
}

// Entry is the authoritative per-account governance record. Candidate,
// committee, jailed and banned bookkeeping all live here so that the
// mutual-exclusion invariant is enforced by construction.
type Entry struct {
	Status    Status
	Deposit   uint64 // locked by self-nomination
	Delegated uint64 // cached sum of inbound delegation edges

	// valid while Status is Candidate or Committee
	NominationExpiry uint64 // last term id the nomination is valid for
	Metadata         []byte

	// valid while Status is Jailed
	JailedAt         uint64 // id of the term that was closing when jailed
	CustodyRemaining uint64 // term closings left until release

	// valid while Status is Banned
	BanEvidence codechain.Bytes32 // reference to the convicting evidence
}

// IsEmpty returns whether the entry holds no record.
func (e *Entry) IsEmpty() bool {
	return e.Status == StatusAbsent
}

// Candidate is the pool view of an electable account.
type Candidate struct {
	Address   codechain.Address `json:"address"`
	Deposit   uint64            `json:"deposit"`
	Delegated uint64            `json:"delegated"`
	Expiry    uint64            `json:"nominationExpiry"`
	Metadata  []byte            `json:"metadata,omitempty"`
}

// Delegation is one delegation edge. Quantity is always > 0; an edge
// reaching 0 is deleted.
type Delegation struct {
	Delegator codechain.Address `json:"delegator"`
	Delegatee codechain.Address `json:"delegatee"`
	Quantity  uint64            `json:"quantity"`
}

// Jailed is the query view of a jailed account.
type Jailed struct {
	Address          codechain.Address `json:"address"`
	CustodyRemaining uint64            `json:"custodyRemaining"`
}
