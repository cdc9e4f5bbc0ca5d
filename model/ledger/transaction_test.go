package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/utils/unittest"
)

func TestTransaction_Encoding(t *testing.T) {
	tx := unittest.TransactionFixture()

	raw, err := tx.Encode()
	require.NoError(t, err)

	decoded, err := ledger.DecodeTransaction(raw)
	require.NoError(t, err)
	assert.Equal(t, tx, decoded)

	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, raw, again)

	t.Run("garbage is malformed", func(t *testing.T) {
		_, err := ledger.DecodeTransaction([]byte{0xff, 0x00, 0x01})
		require.Error(t, err)
		assert.True(t, ledger.IsMalformedInputError(err))
	})
}

func TestTransaction_Hash(t *testing.T) {
	hasher := hash.NewSHA3_256()
	tx := unittest.TransactionFixture()

	h1, err := tx.Hash(hasher)
	require.NoError(t, err)
	raw, err := tx.Encode()
	require.NoError(t, err)
	assert.Equal(t, h1, ledger.TransactionHash(hasher, raw))

	tx.SequenceNumber++
	h2, err := tx.Hash(hasher)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestLeafEncoder(t *testing.T) {
	hasher := hash.NewSHA3_256()
	encoder := ledger.NewLeafEncoder(hasher)
	tx := unittest.TransactionFixture()
	meta := unittest.ExecutionMetadataFixture()

	t.Run("deterministic", func(t *testing.T) {
		l1, err := encoder.Encode(tx, meta)
		require.NoError(t, err)
		l2, err := encoder.Encode(tx, meta)
		require.NoError(t, err)
		assert.Equal(t, l1, l2)
	})

	t.Run("raw and typed agree", func(t *testing.T) {
		raw, err := tx.Encode()
		require.NoError(t, err)
		info, leaf, err := encoder.EncodeRaw(raw, meta)
		require.NoError(t, err)

		typed, err := encoder.Encode(tx, meta)
		require.NoError(t, err)
		assert.Equal(t, typed, leaf)

		digest, err := info.Digest(hasher)
		require.NoError(t, err)
		assert.Equal(t, leaf, digest)
		assert.Equal(t, ledger.TransactionHash(hasher, raw), info.TransactionHash)
	})

	t.Run("metadata is bound", func(t *testing.T) {
		l1, err := encoder.Encode(tx, meta)
		require.NoError(t, err)
		changed := meta
		changed.GasUsed++
		l2, err := encoder.Encode(tx, changed)
		require.NoError(t, err)
		assert.NotEqual(t, l1, l2)
	})

	t.Run("malformed inputs", func(t *testing.T) {
		bad := meta
		bad.Status = ledger.ExecutionStatus(200)
		_, err := encoder.Encode(tx, bad)
		assert.True(t, ledger.IsMalformedInputError(err))

		_, _, err = encoder.EncodeRaw([]byte("not a transaction"), meta)
		assert.True(t, ledger.IsMalformedInputError(err))
	})
}
