package hash

import (
	"encoding/hex"
	"fmt"
)

// HashLen is the accumulator default output hash length in bytes
const HashLen = 32

// Hash is the digest type used by the transaction accumulator, its proofs and
// the ledger model.
type Hash [HashLen]byte

// DummyHash is an arbitrary hash value, used in function errors.
// DummyHash represents a valid hash value.
var DummyHash Hash

// ToHash converts a byte slice into a Hash.
// It returns an error if the slice has an invalid length.
func ToHash(bytes []byte) (Hash, error) {
	var h Hash
	if len(bytes) != len(h) {
		return DummyHash, fmt.Errorf("expecting %d bytes but got %d bytes", len(h), len(bytes))
	}
	copy(h[:], bytes)
	return h, nil
}

// HexToHash decodes a hex encoded string into a Hash.
func HexToHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return DummyHash, fmt.Errorf("could not decode hex: %w", err)
	}
	return ToHash(b)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	decoded, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// Hasher is the capability set the accumulator needs from a hash function.
// Accumulator, proof generator and proof verifier are all parameterized by a
// Hasher, so different digest schemes produce different, incompatible roots.
type Hasher interface {
	// Leaf hashes the canonical bytes of an accumulator leaf.
	Leaf(data []byte) Hash
	// Combine hashes two child digests into their parent digest.
	Combine(left, right Hash) Hash
	// Tagged hashes data under a domain tag. Used for transaction hashes and
	// any digest that is not part of the accumulator tree.
	Tagged(tag string, data []byte) Hash
	// Placeholder is the root of an empty accumulator.
	Placeholder() Hash
	// Algorithm names the digest scheme.
	Algorithm() string
}
