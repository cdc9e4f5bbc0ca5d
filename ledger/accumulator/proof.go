package accumulator

import (
	"fmt"

	"github.com/onflow/txhistory/ledger/common/hash"
)

// RangeProof holds the sibling digests needed to recompute the root of an
// accumulator from a contiguous run of its leaves. Siblings are ordered the
// way a left-to-right, depth-first walk of the tree meets them.
type RangeProof struct {
	Siblings []hash.Hash
}

// IsEmpty reports whether the proof carries no siblings.
func (p RangeProof) IsEmpty() bool {
	return len(p.Siblings) == 0
}

// RootAt returns the root of the first n leaves readable from r.
func RootAt(r Reader, hasher hash.Hasher, n uint64) (hash.Hash, error) {
	if n > r.NumLeaves() {
		return hash.DummyHash, NewRangeOutOfBoundsErrorf("root at %d requested, accumulator has %d leaves", n, r.NumLeaves())
	}
	if n == 0 {
		return hasher.Placeholder(), nil
	}
	return subtreeRoot(r, hasher, 0, n)
}

// subtreeRoot computes the digest of the subtree covering [offset, offset+size).
// Perfect subtrees are read directly; other subtrees split at the largest
// power of two below their size.
func subtreeRoot(r Reader, hasher hash.Hasher, offset, size uint64) (hash.Hash, error) {
	if isPowerOfTwo(size) {
		return r.FrozenNode(perfectPosition(offset, size))
	}
	k := splitPoint(size)
	left, err := r.FrozenNode(perfectPosition(offset, k))
	if err != nil {
		return hash.DummyHash, err
	}
	right, err := subtreeRoot(r, hasher, offset+k, size-k)
	if err != nil {
		return hash.DummyHash, err
	}
	return hasher.Combine(left, right), nil
}

// GenerateRangeProof builds the proof for leaves [start, start+count) against
// the root over the first frozenAt leaves. A zero count yields an empty proof,
// which only verifies together with an empty leaf list.
func GenerateRangeProof(r Reader, hasher hash.Hasher, start, count, frozenAt uint64) (RangeProof, error) {
	if frozenAt > r.NumLeaves() {
		return RangeProof{}, NewRangeOutOfBoundsErrorf("proof frozen at %d requested, accumulator has %d leaves", frozenAt, r.NumLeaves())
	}
	if !withinBounds(start, count, frozenAt) {
		return RangeProof{}, NewRangeOutOfBoundsErrorf("range [%d, %d+%d) exceeds %d leaves", start, start, count, frozenAt)
	}
	if count == 0 {
		return RangeProof{}, nil
	}

	g := &generator{
		reader: r,
		hasher: hasher,
		start:  start,
		end:    start + count,
	}
	err := g.walk(0, frozenAt)
	if err != nil {
		return RangeProof{}, fmt.Errorf("could not generate range proof: %w", err)
	}
	return RangeProof{Siblings: g.siblings}, nil
}

type generator struct {
	reader     Reader
	hasher     hash.Hasher
	start, end uint64
	siblings   []hash.Hash
}

func (g *generator) walk(offset, size uint64) error {
	switch {
	case offset+size <= g.start || offset >= g.end:
		h, err := subtreeRoot(g.reader, g.hasher, offset, size)
		if err != nil {
			return err
		}
		g.siblings = append(g.siblings, h)
		return nil
	case offset >= g.start && offset+size <= g.end:
		return nil
	}

	k := splitPoint(size)
	err := g.walk(offset, k)
	if err != nil {
		return err
	}
	return g.walk(offset+k, size-k)
}

// withinBounds checks start+count <= limit without overflowing.
func withinBounds(start, count, limit uint64) bool {
	return count <= limit && start <= limit-count
}
