package accumulator

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/onflow/txhistory/ledger/common/hash"
)

// Reader gives read access to the frozen nodes of an accumulator holding
// NumLeaves leaves. Frozen nodes never change once written.
type Reader interface {
	NumLeaves() uint64
	// FrozenNode returns the digest of the node at pos. It returns an error
	// wrapping ErrNodeNotFound when the node is not frozen in this view.
	FrozenNode(pos Position) (hash.Hash, error)
}

// Node is a frozen accumulator node together with its position.
type Node struct {
	Position Position
	Hash     hash.Hash
}

// Accumulator is an in-memory Merkle mountain range over leaf digests.
//
// There must be a single writer calling Append. Readers are safe to run
// concurrently with the writer: frozen nodes are stored per level in append-only
// slices, and a Snapshot pins the slice headers together with the leaf count,
// so a proof generated against a snapshot sees a consistent view.
type Accumulator struct {
	hasher hash.Hasher

	mu        sync.RWMutex // guards the level slice headers
	levels    [][]hash.Hash
	numLeaves *atomic.Uint64
}

// New returns an empty accumulator.
func New(hasher hash.Hasher) *Accumulator {
	return &Accumulator{
		hasher:    hasher,
		levels:    make([][]hash.Hash, 1),
		numLeaves: atomic.NewUint64(0),
	}
}

// Restore rebuilds an accumulator from the frozen nodes available in r.
func Restore(hasher hash.Hasher, r Reader) (*Accumulator, error) {
	acc := New(hasher)
	n := r.NumLeaves()
	if n == 0 {
		return acc, nil
	}

	levels := make([][]hash.Hash, 0)
	for level := uint8(0); level <= MaxLevel; level++ {
		width := n >> level
		if width == 0 {
			break
		}
		nodes := make([]hash.Hash, width)
		for i := uint64(0); i < width; i++ {
			h, err := r.FrozenNode(Position{Level: level, Index: i})
			if err != nil {
				return nil, fmt.Errorf("could not read frozen node (%d,%d): %w", level, i, err)
			}
			nodes[i] = h
		}
		levels = append(levels, nodes)
	}

	acc.levels = levels
	acc.numLeaves.Store(n)
	return acc, nil
}

func (a *Accumulator) Hasher() hash.Hasher {
	return a.hasher
}

func (a *Accumulator) NumLeaves() uint64 {
	return a.numLeaves.Load()
}

// Append adds one leaf and returns the new leaf count together with every
// node that became frozen, the leaf itself included.
func (a *Accumulator) Append(leaf hash.Hash) (uint64, []Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.append(leaf)
}

// AppendMany appends the leaves in order under a single lock acquisition.
func (a *Accumulator) AppendMany(leaves []hash.Hash) (uint64, []Node) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.numLeaves.Load()
	var frozen []Node
	for _, leaf := range leaves {
		var nodes []Node
		n, nodes = a.append(leaf)
		frozen = append(frozen, nodes...)
	}
	return n, frozen
}

// append must be called with the write lock held.
func (a *Accumulator) append(leaf hash.Hash) (uint64, []Node) {
	n := a.numLeaves.Load()
	if n>>MaxLevel != 0 {
		panic(fmt.Sprintf("accumulator is full with %d leaves", n))
	}

	pos := LeafPosition(n)
	a.levels[0] = append(a.levels[0], leaf)
	frozen := []Node{{Position: pos, Hash: leaf}}

	current := leaf
	for !pos.IsLeftChild() {
		left := a.levels[pos.Level][pos.Index-1]
		current = a.hasher.Combine(left, current)
		pos = pos.Parent()
		if int(pos.Level) == len(a.levels) {
			a.levels = append(a.levels, nil)
		}
		a.levels[pos.Level] = append(a.levels[pos.Level], current)
		frozen = append(frozen, Node{Position: pos, Hash: current})
	}

	a.numLeaves.Store(n + 1)
	return n + 1, frozen
}

// FrozenNode returns a frozen node of the current state.
func (a *Accumulator) FrozenNode(pos Position) (hash.Hash, error) {
	return a.Snapshot().FrozenNode(pos)
}

// Root returns the root over all leaves appended so far.
func (a *Accumulator) Root() hash.Hash {
	snap := a.Snapshot()
	root, err := RootAt(snap, a.hasher, snap.NumLeaves())
	if err != nil {
		// a snapshot holds every node below its own leaf count
		panic(fmt.Sprintf("inconsistent accumulator snapshot: %v", err))
	}
	return root
}

// RootAt returns the root the accumulator had after exactly n leaves.
func (a *Accumulator) RootAt(n uint64) (hash.Hash, error) {
	return RootAt(a.Snapshot(), a.hasher, n)
}

// GenerateRangeProof generates a proof for leaves [start, start+count) against
// the root at frozenAt leaves.
func (a *Accumulator) GenerateRangeProof(start, count, frozenAt uint64) (RangeProof, error) {
	return GenerateRangeProof(a.Snapshot(), a.hasher, start, count, frozenAt)
}

// Snapshot returns a read-only view of the frozen nodes, pinned at the
// current leaf count.
func (a *Accumulator) Snapshot() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	levels := make([][]hash.Hash, len(a.levels))
	copy(levels, a.levels)
	return &Snapshot{
		numLeaves: a.numLeaves.Load(),
		levels:    levels,
	}
}

// Snapshot is an immutable view of an accumulator.
type Snapshot struct {
	numLeaves uint64
	levels    [][]hash.Hash
}

var _ Reader = (*Snapshot)(nil)

func (s *Snapshot) NumLeaves() uint64 {
	return s.numLeaves
}

func (s *Snapshot) FrozenNode(pos Position) (hash.Hash, error) {
	if int(pos.Level) >= len(s.levels) ||
		pos.Index >= uint64(len(s.levels[pos.Level])) ||
		!pos.IsFrozenAt(s.numLeaves) {
		return hash.DummyHash, fmt.Errorf("position %v with %d leaves: %w", pos, s.numLeaves, ErrNodeNotFound)
	}
	return s.levels[pos.Level][pos.Index], nil
}
