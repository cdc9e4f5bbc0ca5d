package accumulator_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
)

// referenceRoot computes the accumulator root directly from the leaves,
// splitting every range at the largest power of two below its size.
func referenceRoot(hasher hash.Hasher, leaves []hash.Hash) hash.Hash {
	if len(leaves) == 0 {
		return hasher.Placeholder()
	}
	var root func(l []hash.Hash) hash.Hash
	root = func(l []hash.Hash) hash.Hash {
		if len(l) == 1 {
			return l[0]
		}
		k := 1
		for k*2 < len(l) {
			k *= 2
		}
		return hasher.Combine(root(l[:k]), root(l[k:]))
	}
	return root(leaves)
}

func leafFixtures(hasher hash.Hasher, n int) []hash.Hash {
	leaves := make([]hash.Hash, n)
	for i := range leaves {
		leaves[i] = hasher.Leaf([]byte(fmt.Sprintf("leaf-%d", i)))
	}
	return leaves
}

func TestAccumulator_EmptyRoot(t *testing.T) {
	hasher := hash.NewSHA3_256()
	acc := accumulator.New(hasher)
	assert.Equal(t, uint64(0), acc.NumLeaves())
	assert.Equal(t, hasher.Placeholder(), acc.Root())
}

func TestAccumulator_RootMatchesReference(t *testing.T) {
	for _, hasher := range []hash.Hasher{hash.NewSHA3_256(), hash.NewSHA2_256()} {
		t.Run(hasher.Algorithm(), func(t *testing.T) {
			leaves := leafFixtures(hasher, 70)
			acc := accumulator.New(hasher)
			for i, leaf := range leaves {
				n, _ := acc.Append(leaf)
				require.Equal(t, uint64(i+1), n)
				require.Equal(t, referenceRoot(hasher, leaves[:i+1]), acc.Root(), "root after %d leaves", n)
			}
		})
	}
}

func TestAccumulator_FrozenNodes(t *testing.T) {
	hasher := hash.NewSHA3_256()
	leaves := leafFixtures(hasher, 4)
	acc := accumulator.New(hasher)

	_, frozen := acc.Append(leaves[0])
	require.Len(t, frozen, 1)

	_, frozen = acc.Append(leaves[1])
	require.Len(t, frozen, 2)
	assert.Equal(t, accumulator.Position{Level: 1, Index: 0}, frozen[1].Position)
	assert.Equal(t, hasher.Combine(leaves[0], leaves[1]), frozen[1].Hash)

	_, frozen = acc.Append(leaves[2])
	require.Len(t, frozen, 1)

	_, frozen = acc.Append(leaves[3])
	require.Len(t, frozen, 3)
	assert.Equal(t, accumulator.Position{Level: 2, Index: 0}, frozen[2].Position)
	assert.Equal(t, acc.Root(), frozen[2].Hash)

	_, err := acc.FrozenNode(accumulator.Position{Level: 3, Index: 0})
	assert.ErrorIs(t, err, accumulator.ErrNodeNotFound)
}

func TestAccumulator_AppendMany(t *testing.T) {
	hasher := hash.NewSHA3_256()
	leaves := leafFixtures(hasher, 13)

	one := accumulator.New(hasher)
	var frozenOne []accumulator.Node
	for _, leaf := range leaves {
		_, nodes := one.Append(leaf)
		frozenOne = append(frozenOne, nodes...)
	}

	many := accumulator.New(hasher)
	n, frozenMany := many.AppendMany(leaves)
	assert.Equal(t, uint64(13), n)
	assert.Equal(t, frozenOne, frozenMany)
	assert.Equal(t, one.Root(), many.Root())
}

// appending more leaves never changes a root computed earlier
func TestAccumulator_RootStability(t *testing.T) {
	hasher := hash.NewSHA3_256()
	leaves := leafFixtures(hasher, 40)
	acc := accumulator.New(hasher)

	roots := make([]hash.Hash, 0, len(leaves))
	for _, leaf := range leaves {
		acc.Append(leaf)
		roots = append(roots, acc.Root())
	}
	for i, root := range roots {
		at, err := acc.RootAt(uint64(i + 1))
		require.NoError(t, err)
		assert.Equal(t, root, at)
	}

	_, err := acc.RootAt(41)
	assert.True(t, accumulator.IsRangeOutOfBoundsError(err))
}

func TestAccumulator_Restore(t *testing.T) {
	hasher := hash.NewSHA3_256()
	acc := accumulator.New(hasher)
	acc.AppendMany(leafFixtures(hasher, 23))

	restored, err := accumulator.Restore(hasher, acc.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, acc.NumLeaves(), restored.NumLeaves())
	assert.Equal(t, acc.Root(), restored.Root())

	// both continue identically
	next := hasher.Leaf([]byte("next"))
	acc.Append(next)
	restored.Append(next)
	assert.Equal(t, acc.Root(), restored.Root())
}

func TestAccumulator_SnapshotIsolation(t *testing.T) {
	hasher := hash.NewSHA3_256()
	acc := accumulator.New(hasher)
	acc.AppendMany(leafFixtures(hasher, 5))

	snap := acc.Snapshot()
	rootBefore, err := accumulator.RootAt(snap, hasher, snap.NumLeaves())
	require.NoError(t, err)

	acc.AppendMany(leafFixtures(hasher, 100))
	assert.Equal(t, uint64(5), snap.NumLeaves())

	rootAfter, err := accumulator.RootAt(snap, hasher, snap.NumLeaves())
	require.NoError(t, err)
	assert.Equal(t, rootBefore, rootAfter)

	_, err = snap.FrozenNode(accumulator.LeafPosition(5))
	assert.ErrorIs(t, err, accumulator.ErrNodeNotFound)
}

// readers generate and verify proofs while the single writer keeps appending
func TestAccumulator_ConcurrentReaders(t *testing.T) {
	hasher := hash.NewSHA3_256()
	leaves := leafFixtures(hasher, 600)
	acc := accumulator.New(hasher)
	acc.AppendMany(leaves[:10])

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, leaf := range leaves[10:] {
			acc.Append(leaf)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				snap := acc.Snapshot()
				n := snap.NumLeaves()
				start := uint64(rng.Int63n(int64(n)))
				count := uint64(rng.Int63n(int64(n-start))) + 1

				proof, err := accumulator.GenerateRangeProof(snap, hasher, start, count, n)
				assert.NoError(t, err)
				root, err := accumulator.RootAt(snap, hasher, n)
				assert.NoError(t, err)
				err = accumulator.VerifyRangeProof(hasher, root, n, start, leaves[start:start+count], proof)
				assert.NoError(t, err)
			}
		}(int64(r))
	}
	wg.Wait()
	assert.Equal(t, uint64(600), acc.NumLeaves())
}

func TestPeaks(t *testing.T) {
	assert.Empty(t, accumulator.Peaks(0))
	assert.Equal(t, []accumulator.Position{{Level: 2, Index: 0}, {Level: 0, Index: 4}}, accumulator.Peaks(5))
	assert.Equal(t, []accumulator.Position{{Level: 3, Index: 0}, {Level: 1, Index: 4}, {Level: 0, Index: 10}}, accumulator.Peaks(11))
}
