package signature

import (
	"github.com/onflow/flow-go/crypto"
	"github.com/onflow/flow-go/crypto/hash"
)

// Ledger info signatures are computed over encoding.LedgerInfoTag followed by
// the canonical ledger info encoding, hashed with SHA3-256.

// DefaultSigningAlgorithm is the key scheme used by validators.
const DefaultSigningAlgorithm = crypto.ECDSAP256

// NewLedgerInfoHasher returns the hasher used to sign and verify ledger infos.
// Hashers are stateful, use one per signature.
func NewLedgerInfoHasher() hash.Hasher {
	return hash.NewSHA3_256()
}
