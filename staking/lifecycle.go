// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/pkg/errors"

// Event is a lifecycle transition trigger.
type Event uint8

const (
	EventNominate Event = iota // self-nomination or renewal
	EventElect                 // selected into the committee
	EventDepose                // not reselected at term close
	EventJail                  // failed liveness duty
	EventRelease               // custody period elapsed
	EventExpire                // nomination expired without renewal
	EventBan                   // convicted by double-vote evidence
)

// String implements the stringer interface.
func (e Event) String() string {
	switch e {
	case EventNominate:
		return "nominate"
	case EventElect:
		return "elect"
	case EventDepose:
		return "depose"
	case EventJail:
		return "jail"
	case EventRelease:
		return "release"
	case EventExpire:
		return "expire"
	case EventBan:
		return "ban"
	default:
		return "unknown"
	}
}

// transitions is the explicit lifecycle table: state × event → state.
// Absence of an entry means the transition is illegal. Ban is accepted from
// every non-terminal state; nothing leaves Banned.
var transitions = map[Status]map[Event]Status{
	StatusAbsent: {
		EventNominate: StatusCandidate,
		EventBan:      StatusBanned,
	},
	StatusCandidate: {
		EventNominate: StatusCandidate,
		EventElect:    StatusCommittee,
		EventExpire:   StatusAbsent,
		EventBan:      StatusBanned,
	},
	StatusCommittee: {
		EventNominate: StatusCommittee,
		EventElect:    StatusCommittee,
		EventDepose:   StatusCandidate,
		EventJail:     StatusJailed,
		EventBan:      StatusBanned,
	},
	StatusJailed: {
		EventRelease: StatusCandidate,
		EventBan:     StatusBanned,
	},
	StatusBanned: {},
}

// Transit resolves the lifecycle table for the given state and event.
func Transit(from Status, event Event) (Status, error) {
	to, ok := transitions[from][event]
	if !ok {
		return from, errors.Errorf("illegal transition: %v on %v", event, from)
	}
	return to, nil
}
