package accumulator

import (
	"fmt"
	"math/bits"
)

// MaxLevel bounds the height of the accumulator tree. An accumulator can hold
// at most 2^MaxLevel leaves.
const MaxLevel = 63

// Position addresses a node of the accumulator. A node at level l and index i
// is the root of the perfect subtree covering leaves [i*2^l, (i+1)*2^l).
// Leaves are at level 0.
type Position struct {
	Level uint8
	Index uint64
}

func LeafPosition(index uint64) Position {
	return Position{Level: 0, Index: index}
}

// FirstLeaf returns the index of the leftmost leaf below the position.
func (p Position) FirstLeaf() uint64 {
	return p.Index << p.Level
}

// Size returns the number of leaves below the position.
func (p Position) Size() uint64 {
	return 1 << p.Level
}

// IsFrozenAt reports whether the subtree below p is complete once numLeaves
// leaves have been appended.
func (p Position) IsFrozenAt(numLeaves uint64) bool {
	first := p.FirstLeaf()
	return first < numLeaves && numLeaves-first >= p.Size()
}

func (p Position) Parent() Position {
	return Position{Level: p.Level + 1, Index: p.Index >> 1}
}

func (p Position) Sibling() Position {
	return Position{Level: p.Level, Index: p.Index ^ 1}
}

func (p Position) IsLeftChild() bool {
	return p.Index&1 == 0
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Level, p.Index)
}

// perfectPosition returns the position of the perfect subtree covering
// [offset, offset+size). size must be a power of two and offset a multiple of it.
func perfectPosition(offset, size uint64) Position {
	level := uint8(bits.TrailingZeros64(size))
	return Position{Level: level, Index: offset >> level}
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// splitPoint returns the largest power of two strictly smaller than size.
// size must be at least 2.
func splitPoint(size uint64) uint64 {
	return 1 << (bits.Len64(size-1) - 1)
}

// Peaks returns the positions of the perfect subtrees whose roots form the
// frontier of an accumulator with numLeaves leaves, from left to right.
func Peaks(numLeaves uint64) []Position {
	peaks := make([]Position, 0, bits.OnesCount64(numLeaves))
	var offset uint64
	for level := MaxLevel; level >= 0; level-- {
		size := uint64(1) << uint(level)
		if numLeaves&size != 0 {
			peaks = append(peaks, perfectPosition(offset, size))
			offset += size
		}
	}
	return peaks
}
