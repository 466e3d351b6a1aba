// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeChain-io/codechain-sub002/codechain"
)

func TestSignAndRecover(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)

	hash := codechain.Blake2b([]byte("message"))
	sig, err := Sign(hash, priv)
	require.NoError(t, err)
	assert.Len(t, sig, 65)

	signer, err := Signer(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, codechain.PubkeyToAddress(&priv.PublicKey), signer)

	// cached path returns the same signer
	again, err := Signer(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, signer, again)
}

func TestSignerRejectsMangledSignature(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)

	hash := codechain.Blake2b([]byte("message"))
	sig, err := Sign(hash, priv)
	require.NoError(t, err)

	sig[64] = 4 // invalid recovery id
	_, err = Signer(hash, sig)
	assert.Error(t, err)
}

func TestSignerDiffersPerKey(t *testing.T) {
	hash := codechain.Blake2b([]byte("message"))

	priv1, _ := crypto.GenerateKey()
	priv2, _ := crypto.GenerateKey()

	sig1, err := Sign(hash, priv1)
	require.NoError(t, err)
	sig2, err := Sign(hash, priv2)
	require.NoError(t, err)

	signer1, err := Signer(hash, sig1)
	require.NoError(t, err)
	signer2, err := Signer(hash, sig2)
	require.NoError(t, err)
	assert.NotEqual(t, signer1, signer2)
}
