// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/log"
	"github.com/CodeChain-io/codechain-sub002/staking"
)

var logger = log.WithContext("pkg", "authority")

// ErrInsufficientCandidates is returned when fewer eligible candidates exist
// than the configured minimum committee size. The caller keeps the previous
// committee in place.
var ErrInsufficientCandidates = errors.New("insufficient eligible candidates")

// Comparator ranks two candidates. It returns true when a outranks b.
type Comparator func(a, b staking.Candidate) bool

// DefaultComparator ranks by delegated stake descending, then locked deposit
// descending, then address ascending. Every pair of distinct candidates is
// strictly ordered, so election is deterministic.
func DefaultComparator(a, b staking.Candidate) bool {
	if a.Delegated != b.Delegated {
		return a.Delegated > b.Delegated
	}
	if a.Deposit != b.Deposit {
		return a.Deposit > b.Deposit
	}
	return a.Address.Compare(b.Address) < 0
}

// Selector elects the committee of a term from the candidate pool.
type Selector struct {
	compare Comparator
}

// Option configures a Selector.
type Option func(*Selector)

// WithComparator overrides the ranking rule.
func WithComparator(compare Comparator) Option {
	return func(s *Selector) {
		s.compare = compare
	}
}

// NewSelector creates a selector with the default ranking.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{compare: DefaultComparator}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select ranks the pool, drops candidates below the delegation threshold and
// returns the top seats. The pool is not modified.
func (s *Selector) Select(pool []staking.Candidate, delegationThreshold, minSeats, maxSeats uint64) (*Committee, error) {
	eligible := make([]staking.Candidate, 0, len(pool))
	for _, c := range pool {
		if c.Delegated >= delegationThreshold {
			eligible = append(eligible, c)
		}
	}

	if uint64(len(eligible)) < minSeats {
		logger.Warn("election failed", "eligible", len(eligible), "min", minSeats)
		return nil, ErrInsufficientCandidates
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return s.compare(eligible[i], eligible[j])
	})
	if uint64(len(eligible)) > maxSeats {
		eligible = eligible[:maxSeats]
	}

	members := make([]Member, len(eligible))
	for i, c := range eligible {
		members[i] = Member{Address: c.Address, Weight: c.Delegated, Deposit: c.Deposit}
	}
	return NewCommittee(members), nil
}
