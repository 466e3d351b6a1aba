// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/codechain"
)

const signerCacheSize = 1024

var signerCache, _ = lru.New(signerCacheSize)

// Sign calculates a secp256k1 signature over the given 32-byte hash.
//
// The produced signature is in the [R || S || V] format where V is 0 or 1.
// Callers must hash any input before calculating the signature.
func Sign(hash codechain.Bytes32, priv *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(hash.Bytes(), priv)
	if err != nil {
		return nil, errors.Wrap(err, "sign hash")
	}
	return sig, nil
}

// Signer recovers the address of the key that produced sig over hash.
//
// Recovered signers are memoized, keyed by blake2b(hash || sig), since
// evidence verification may resolve the same signature repeatedly.
func Signer(hash codechain.Bytes32, sig []byte) (codechain.Address, error) {
	cacheKey := codechain.Blake2b(hash.Bytes(), sig)
	if cached, ok := signerCache.Get(cacheKey); ok {
		return cached.(codechain.Address), nil
	}

	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return codechain.Address{}, errors.Wrap(err, "recover signer")
	}
	signer := codechain.PubkeyToAddress(pub)
	signerCache.Add(cacheKey, signer)
	return signer, nil
}

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}
