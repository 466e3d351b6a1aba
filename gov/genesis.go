// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gov

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/CodeChain-io/codechain-sub002/codechain"
)

// Genesis is the chain-start configuration of the governance layer.
type Genesis struct {
	Timestamp uint64            `yaml:"timestamp"`
	Params    map[string]uint64 `yaml:"params,omitempty"`

	Accounts    []GenesisAccount    `yaml:"accounts"`
	Nominations []GenesisNomination `yaml:"nominations"`
	Delegations []GenesisDelegation `yaml:"delegations"`

	// quorum rule for changeParams actions
	ParamSigners GenesisParamSigners `yaml:"paramSigners"`
}

// GenesisAccount funds one account with free stake tokens.
type GenesisAccount struct {
	Address codechain.Address `yaml:"address"`
	Balance uint64            `yaml:"balance"`
}

// GenesisNomination opens a candidacy at term 0.
type GenesisNomination struct {
	Address  codechain.Address `yaml:"address"`
	Deposit  uint64            `yaml:"deposit"`
	Metadata string            `yaml:"metadata,omitempty"`
}

// GenesisDelegation creates a delegation edge at term 0.
type GenesisDelegation struct {
	Delegator codechain.Address `yaml:"delegator"`
	Delegatee codechain.Address `yaml:"delegatee"`
	Quantity  uint64            `yaml:"quantity"`
}

// GenesisParamSigners configures the multisig quorum that authorizes param
// changes. An empty signer list disables changeParams entirely.
type GenesisParamSigners struct {
	Threshold uint64              `yaml:"threshold"`
	Signers   []codechain.Address `yaml:"signers"`
}

// LoadGenesis reads a genesis config from a yaml file.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read genesis file")
	}
	var genesis Genesis
	if err := yaml.Unmarshal(raw, &genesis); err != nil {
		return nil, errors.Wrap(err, "failed to parse genesis file")
	}
	if err := genesis.Validate(); err != nil {
		return nil, err
	}
	return &genesis, nil
}

// Validate checks internal consistency.
func (g *Genesis) Validate() error {
	for name := range g.Params {
		if _, ok := codechain.KeyByName(name); !ok {
			return errors.Errorf("unknown param %q", name)
		}
	}
	if n := uint64(len(g.ParamSigners.Signers)); g.ParamSigners.Threshold > n {
		return errors.Errorf("param signer threshold %d exceeds %d signers",
			g.ParamSigners.Threshold, n)
	}
	if len(g.ParamSigners.Signers) > 0 && g.ParamSigners.Threshold == 0 {
		return errors.New("param signer threshold must be positive")
	}
	return nil
}
