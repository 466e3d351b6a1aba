// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/authority"
	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/log"
	"github.com/CodeChain-io/codechain-sub002/metrics"
	"github.com/CodeChain-io/codechain-sub002/staking"
)

var (
	logger = log.WithContext("pkg", "slashing")

	metricBans = metrics.LazyLoad(func() metrics.CountMeter {
		return metrics.Counter("slashing_bans_count")
	})
)

// Evidence-verification errors. An action carrying invalid evidence is
// rejected without touching the ledger.
var (
	ErrMismatchedVoteContext = errors.New("votes are not on the same round")
	ErrNotConflicting        = errors.New("votes point at the same block")
	ErrUnknownSigner         = errors.New("signer index outside the committee")
	ErrInvalidSignature      = errors.New("vote signature does not match the seat")
)

// CommitteeResolver yields the committee that was seated when the given
// block height was produced. Every elected seat of that term must resolve,
// including members banned later.
type CommitteeResolver interface {
	CommitteeAt(height uint64) (*authority.Committee, error)
}

// DoubleVote is a pair of votes proving a seat voted twice in one round.
type DoubleVote struct {
	First  VoteMessage
	Second VoteMessage
}

// Hash identifies the evidence by its first vote. Any second conflicting
// vote convicts the same seat, so the first vote alone keys the record.
func (d *DoubleVote) Hash() (codechain.Bytes32, error) {
	return d.First.Hash()
}

// Verify checks the evidence against the committee seated at the voted
// height and returns the convicted address. It checks, in order: the two
// votes share a round and a seat, their targets conflict, the seat exists,
// and both signatures verify against the seat's address.
func (d *DoubleVote) Verify(resolver CommitteeResolver) (codechain.Address, error) {
	if !d.First.On.Equal(&d.Second.On) || d.First.SignerIdx != d.Second.SignerIdx {
		return codechain.Address{}, ErrMismatchedVoteContext
	}
	if d.First.On.SameTarget(&d.Second.On) {
		return codechain.Address{}, ErrNotConflicting
	}

	committee, err := resolver.CommitteeAt(d.First.On.Height)
	if err != nil {
		return codechain.Address{}, err
	}
	seat, ok := committee.MemberAt(int(d.First.SignerIdx))
	if !ok {
		return codechain.Address{}, ErrUnknownSigner
	}

	for _, vote := range []*VoteMessage{&d.First, &d.Second} {
		signer, err := vote.Signer()
		if err != nil {
			return codechain.Address{}, ErrInvalidSignature
		}
		if signer != seat.Address {
			return codechain.Address{}, ErrInvalidSignature
		}
	}
	return seat.Address, nil
}

// SlashReceipt records one conviction.
type SlashReceipt struct {
	Criminal codechain.Address `json:"criminal"`
	Evidence codechain.Bytes32 `json:"evidence"`
	Slashed  uint64            `json:"slashed"`
}

// Slasher turns verified double-vote evidence into permanent bans.
type Slasher struct {
	ledger   *staking.Ledger
	resolver CommitteeResolver
}

// NewSlasher creates a slasher over the ledger.
func NewSlasher(ledger *staking.Ledger, resolver CommitteeResolver) *Slasher {
	return &Slasher{ledger, resolver}
}

// ReportDoubleVote verifies the evidence and bans the convicted seat,
// slashing its deposit and returning inbound delegations. Reporting an
// already-banned account is a no-op so duplicate evidence cannot fail a
// block. The receipt is nil for a no-op.
func (s *Slasher) ReportDoubleVote(evidence *DoubleVote) (*SlashReceipt, error) {
	criminal, err := evidence.Verify(s.resolver)
	if err != nil {
		return nil, err
	}

	entry, err := s.ledger.GetEntry(criminal)
	if err != nil {
		return nil, err
	}
	if entry.Status == staking.StatusBanned {
		logger.Debug("duplicate evidence ignored", "criminal", criminal)
		return nil, nil
	}

	hash, err := evidence.Hash()
	if err != nil {
		return nil, err
	}
	slashed, err := s.ledger.Ban(criminal, hash)
	if err != nil {
		return nil, err
	}

	metricBans().Add(1)
	logger.Info("double vote convicted", "criminal", criminal,
		"height", evidence.First.On.Height, "slashed", slashed)
	return &SlashReceipt{Criminal: criminal, Evidence: hash, Slashed: slashed}, nil
}
