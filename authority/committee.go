// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"github.com/CodeChain-io/codechain-sub002/codechain"
)

// Member is one validator seat. Weight is the delegation backing the seat at
// election time; it never changes for the lifetime of the term.
type Member struct {
	Address codechain.Address `json:"address"`
	Weight  uint64            `json:"weight"`
	Deposit uint64            `json:"deposit"`
}

// Committee is the ordered validator set of one term. The order is the
// election rank and assigns each member its signer index.
type Committee struct {
	members []Member
	index   map[codechain.Address]int
}

// NewCommittee builds a committee from ranked members.
func NewCommittee(members []Member) *Committee {
	index := make(map[codechain.Address]int, len(members))
	for i, m := range members {
		index[m.Address] = i
	}
	return &Committee{members, index}
}

// Len returns the number of seats.
func (c *Committee) Len() int {
	return len(c.members)
}

// Members returns the seats in rank order. The returned slice must not be
// modified.
func (c *Committee) Members() []Member {
	return c.members
}

// MemberAt returns the seat at the given signer index.
func (c *Committee) MemberAt(signerIdx int) (Member, bool) {
	if signerIdx < 0 || signerIdx >= len(c.members) {
		return Member{}, false
	}
	return c.members[signerIdx], true
}

// IndexOf returns the signer index of the address.
func (c *Committee) IndexOf(addr codechain.Address) (int, bool) {
	i, ok := c.index[addr]
	return i, ok
}

// Contains reports whether the address holds a seat.
func (c *Committee) Contains(addr codechain.Address) bool {
	_, ok := c.index[addr]
	return ok
}

// Addresses returns the member addresses in rank order.
func (c *Committee) Addresses() []codechain.Address {
	addrs := make([]codechain.Address, len(c.members))
	for i, m := range c.members {
		addrs[i] = m.Address
	}
	return addrs
}
