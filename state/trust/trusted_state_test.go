package trust_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/signature"
	"github.com/onflow/txhistory/state/trust"
	"github.com/onflow/txhistory/utils/unittest"
)

type epochChain struct {
	hasher   hash.Hasher
	verifier *signature.ValidatorVerifier
	genesis  ledger.LedgerInfo
	waypoint ledger.Waypoint
	signers  map[uint64][]*signature.LocalSigner
	states   map[uint64]ledger.EpochState
}

func newEpochChain(t *testing.T) *epochChain {
	hasher := hash.NewSHA3_256()
	verifier, err := signature.NewValidatorVerifier(ledger.DefaultQuorumThreshold)
	require.NoError(t, err)

	c := &epochChain{
		hasher:   hasher,
		verifier: verifier,
		signers:  make(map[uint64][]*signature.LocalSigner),
		states:   make(map[uint64]ledger.EpochState),
	}
	for epoch := uint64(1); epoch <= 4; epoch++ {
		c.signers[epoch] = unittest.SignersFixture(t, 4)
		c.states[epoch] = unittest.EpochStateFixture(t, epoch, c.signers[epoch])
	}

	genesisState := c.states[1]
	c.genesis = unittest.LedgerInfoFixture(0, 0, unittest.HashFixture())
	c.genesis.NextEpochState = &genesisState
	c.waypoint, err = ledger.NewWaypoint(hasher, c.genesis)
	require.NoError(t, err)
	return c
}

// ending returns the signed ledger info ending the epoch at version.
func (c *epochChain) ending(t *testing.T, epoch, version uint64) ledger.LedgerInfoWithSignatures {
	li := unittest.LedgerInfoFixture(epoch, version, unittest.HashFixture())
	next := c.states[epoch+1]
	li.NextEpochState = &next
	return *unittest.SignedLedgerInfoFixture(t, li, c.signers[epoch])
}

func (c *epochChain) regular(t *testing.T, epoch, version uint64) *ledger.LedgerInfoWithSignatures {
	li := unittest.LedgerInfoFixture(epoch, version, unittest.HashFixture())
	return unittest.SignedLedgerInfoFixture(t, li, c.signers[epoch])
}

func TestFromWaypoint(t *testing.T) {
	c := newEpochChain(t)

	ts, err := trust.FromWaypoint(c.hasher, c.waypoint, c.genesis)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ts.Epoch())
	assert.Equal(t, uint64(0), ts.Version)

	other := c.genesis
	other.Timestamp++
	_, err = trust.FromWaypoint(c.hasher, c.waypoint, other)
	assert.ErrorIs(t, err, trust.ErrWaypointMismatch)

	notEnding := c.genesis
	notEnding.NextEpochState = nil
	wp, err := ledger.NewWaypoint(c.hasher, notEnding)
	require.NoError(t, err)
	_, err = trust.FromWaypoint(c.hasher, wp, notEnding)
	assert.ErrorIs(t, err, trust.ErrInvalidEpochChange)
}

func TestVerifyAndRatchet(t *testing.T) {
	c := newEpochChain(t)
	ts, err := trust.FromWaypoint(c.hasher, c.waypoint, c.genesis)
	require.NoError(t, err)

	t.Run("same epoch", func(t *testing.T) {
		liws := c.regular(t, 1, 10)
		next, err := ts.VerifyAndRatchet(c.verifier, liws, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), next.Version)
		assert.Equal(t, liws.LedgerInfo.TransactionAccumulatorHash, next.AccumulatorRoot)
		// the receiver is a value and is not advanced
		assert.Equal(t, uint64(0), ts.Version)
	})

	t.Run("later epoch needs a change proof", func(t *testing.T) {
		_, err := ts.VerifyAndRatchet(c.verifier, c.regular(t, 3, 50), nil)
		assert.ErrorIs(t, err, trust.ErrEpochChangeRequired)
	})

	t.Run("ratchet over two epochs", func(t *testing.T) {
		change := &ledger.EpochChangeProof{LedgerInfos: []ledger.LedgerInfoWithSignatures{
			c.ending(t, 1, 20),
			c.ending(t, 2, 40),
		}}
		next, err := ts.VerifyAndRatchet(c.verifier, c.regular(t, 3, 50), change)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), next.Epoch())
		assert.Equal(t, uint64(50), next.Version)
	})

	t.Run("skipped epoch", func(t *testing.T) {
		change := &ledger.EpochChangeProof{LedgerInfos: []ledger.LedgerInfoWithSignatures{c.ending(t, 2, 40)}}
		_, err := ts.VerifyAndRatchet(c.verifier, c.regular(t, 3, 50), change)
		assert.ErrorIs(t, err, trust.ErrInvalidEpochChange)
	})

	t.Run("epoch ending signed by the wrong validators", func(t *testing.T) {
		forged := c.ending(t, 1, 20)
		forged.Signatures = nil
		for _, signer := range c.signers[2] {
			sig, err := signer.Sign(forged.LedgerInfo)
			require.NoError(t, err)
			forged.AddSignature(signer.Address(), sig)
		}
		change := &ledger.EpochChangeProof{LedgerInfos: []ledger.LedgerInfoWithSignatures{forged}}
		_, err := ts.VerifyAndRatchet(c.verifier, c.regular(t, 2, 50), change)
		require.Error(t, err)
		assert.True(t, signature.IsUnknownSignerError(err))
	})

	t.Run("latest ledger info ends the epoch", func(t *testing.T) {
		ending := c.ending(t, 1, 20)
		next, err := ts.VerifyAndRatchet(c.verifier, &ending, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), next.Epoch())
		assert.Equal(t, uint64(20), next.Version)
	})

	t.Run("stale ledger info", func(t *testing.T) {
		advanced, err := ts.VerifyAndRatchet(c.verifier, c.regular(t, 1, 30), nil)
		require.NoError(t, err)
		_, err = advanced.VerifyAndRatchet(c.verifier, c.regular(t, 1, 29), nil)
		assert.ErrorIs(t, err, trust.ErrStaleLedgerInfo)
	})

	t.Run("insufficient quorum", func(t *testing.T) {
		li := unittest.LedgerInfoFixture(1, 10, unittest.HashFixture())
		liws := unittest.SignedLedgerInfoFixture(t, li, c.signers[1][:2])
		_, err := ts.VerifyAndRatchet(c.verifier, liws, nil)
		assert.True(t, signature.IsInsufficientQuorumError(err))
	})
}
