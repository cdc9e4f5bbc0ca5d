package accumulator

import (
	"github.com/onflow/txhistory/ledger/common/hash"
)

// VerifyRangeProof checks that leaves, placed at versions [start, start+len(leaves)),
// together with proof recompute expectedRoot, the root over frozenAt leaves.
//
// Expected errors:
//   - RangeOutOfBoundsError if the leaves reach past frozenAt
//   - MalformedProofError if the proof holds too few or too many siblings
//   - ProofMismatchError if the recomputed root differs from expectedRoot
func VerifyRangeProof(hasher hash.Hasher, expectedRoot hash.Hash, frozenAt, start uint64, leaves []hash.Hash, proof RangeProof) error {
	count := uint64(len(leaves))
	if !withinBounds(start, count, frozenAt) {
		return NewRangeOutOfBoundsErrorf("range [%d, %d+%d) exceeds %d leaves", start, start, count, frozenAt)
	}
	if count == 0 {
		if !proof.IsEmpty() {
			return NewMalformedProofErrorf("empty range carries %d siblings", len(proof.Siblings))
		}
		return nil
	}

	v := &verifier{
		hasher:   hasher,
		start:    start,
		end:      start + count,
		leaves:   leaves,
		siblings: proof.Siblings,
	}
	computed, err := v.walk(0, frozenAt)
	if err != nil {
		return err
	}
	if v.next != len(v.siblings) {
		return NewMalformedProofErrorf("%d siblings left unused out of %d", len(v.siblings)-v.next, len(v.siblings))
	}
	if computed != expectedRoot {
		return NewProofMismatchError(expectedRoot, computed)
	}
	return nil
}

type verifier struct {
	hasher     hash.Hasher
	start, end uint64
	leaves     []hash.Hash
	siblings   []hash.Hash
	next       int
}

// walk mirrors generator.walk, consuming a sibling wherever the generator
// emitted one and hashing the supplied leaves wherever it emitted nothing.
func (v *verifier) walk(offset, size uint64) (hash.Hash, error) {
	switch {
	case offset+size <= v.start || offset >= v.end:
		if v.next >= len(v.siblings) {
			return hash.DummyHash, NewMalformedProofErrorf("missing sibling for subtree [%d, %d)", offset, offset+size)
		}
		h := v.siblings[v.next]
		v.next++
		return h, nil
	case offset >= v.start && offset+size <= v.end:
		return v.leafRoot(offset-v.start, size), nil
	}

	k := splitPoint(size)
	left, err := v.walk(offset, k)
	if err != nil {
		return hash.DummyHash, err
	}
	right, err := v.walk(offset+k, size-k)
	if err != nil {
		return hash.DummyHash, err
	}
	return v.hasher.Combine(left, right), nil
}

// leafRoot hashes leaves[i, i+size) with the accumulator's tree shape.
func (v *verifier) leafRoot(i, size uint64) hash.Hash {
	if size == 1 {
		return v.leaves[i]
	}
	k := splitPoint(size)
	return v.hasher.Combine(v.leafRoot(i, k), v.leafRoot(i+k, size-k))
}
