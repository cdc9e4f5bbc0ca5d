package hash

import (
	gohash "hash"

	"golang.org/x/crypto/sha3"

	cryhash "github.com/onflow/flow-go/crypto/hash"
)

const (
	// leaf and internal node inputs are prefixed with distinct bytes, so a
	// leaf digest can never be reinterpreted as an internal node digest.
	leafPrefix     byte = 0x00
	internalPrefix byte = 0x01

	placeholderSeed = "ACCUMULATOR_PLACEHOLDER_HASH"

	SHA3_256 = "SHA3_256"
	SHA2_256 = "SHA2_256"
)

type sha3Hasher struct {
	placeholder Hash
}

// NewSHA3_256 returns the default accumulator hasher.
func NewSHA3_256() Hasher {
	h := &sha3Hasher{}
	h.placeholder = h.Tagged(placeholderSeed, nil)
	return h
}

func (s *sha3Hasher) Leaf(data []byte) Hash {
	return sum256(sha3.New256(), []byte{leafPrefix}, data)
}

func (s *sha3Hasher) Combine(left, right Hash) Hash {
	return sum256(sha3.New256(), []byte{internalPrefix}, left[:], right[:])
}

func (s *sha3Hasher) Tagged(tag string, data []byte) Hash {
	return sum256(sha3.New256(), []byte(tag), data)
}

func (s *sha3Hasher) Placeholder() Hash {
	return s.placeholder
}

func (s *sha3Hasher) Algorithm() string {
	return SHA3_256
}

func sum256(h gohash.Hash, parts ...[]byte) Hash {
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Hash
	h.Sum(out[:0])
	return out
}

// sha2Hasher computes digests with the SHA2-256 implementation of the flow
// crypto library.
type sha2Hasher struct {
	placeholder Hash
}

// NewSHA2_256 returns an accumulator hasher based on SHA2-256.
func NewSHA2_256() Hasher {
	h := &sha2Hasher{}
	h.placeholder = h.Tagged(placeholderSeed, nil)
	return h
}

func (s *sha2Hasher) compute(parts ...[]byte) Hash {
	hasher := cryhash.NewSHA2_256()
	for _, p := range parts {
		_, _ = hasher.Write(p)
	}
	var out Hash
	copy(out[:], hasher.SumHash())
	return out
}

func (s *sha2Hasher) Leaf(data []byte) Hash {
	return s.compute([]byte{leafPrefix}, data)
}

func (s *sha2Hasher) Combine(left, right Hash) Hash {
	return s.compute([]byte{internalPrefix}, left[:], right[:])
}

func (s *sha2Hasher) Tagged(tag string, data []byte) Hash {
	return s.compute([]byte(tag), data)
}

func (s *sha2Hasher) Placeholder() Hash {
	return s.placeholder
}

func (s *sha2Hasher) Algorithm() string {
	return SHA2_256
}

// ByAlgorithm returns the hasher for the given algorithm name.
func ByAlgorithm(name string) (Hasher, bool) {
	switch name {
	case SHA3_256:
		return NewSHA3_256(), true
	case SHA2_256:
		return NewSHA2_256(), true
	default:
		return nil, false
	}
}
