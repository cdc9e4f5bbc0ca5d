package unittest

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/flow-go/crypto"
)

// SeedFixture returns a random seed of the given length.
func SeedFixture(n int) []byte {
	seed := make([]byte, n)
	_, _ = rand.Read(seed)
	return seed
}

// ECDSAKey returns a random ECDSA P-256 private key.
func ECDSAKey(t testing.TB) crypto.PrivateKey {
	key, err := crypto.GeneratePrivateKey(crypto.ECDSAP256, SeedFixture(crypto.KeyGenSeedMinLen))
	require.NoError(t, err)
	return key
}
