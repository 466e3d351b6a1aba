// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/ecdsa"
	"math/rand"

	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/cry"
)

// RandAddress generates a random address.
func RandAddress() (addr codechain.Address) {
	for i := range addr {
		addr[i] = byte(rand.Intn(256))
	}
	return
}

// RandBytes32 generates a random 32-byte value.
func RandBytes32() (b codechain.Bytes32) {
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
	return
}

// RandQuantity generates a random non-zero stake quantity.
func RandQuantity() uint64 {
	return uint64(rand.Intn(1e9)) + 1
}

// RandKey generates a secp256k1 private key, panics on failure.
func RandKey() *ecdsa.PrivateKey {
	key, err := cry.GenerateKey()
	if err != nil {
		panic(err)
	}
	return key
}
