package ledger_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/onflow/txhistory/model/encoding/cbor"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/utils/unittest"
)

func TestValidatorSet(t *testing.T) {
	signers := unittest.SignersFixture(t, 4)
	state := unittest.EpochStateFixture(t, 1, signers, 1, 2, 3, 4)
	set := state.Validators

	assert.Equal(t, 4, set.Len())
	assert.Equal(t, uint64(10), set.TotalVotingPower())
	for i := 1; i < set.Len(); i++ {
		assert.True(t, set.Validators[i-1].Address.Less(set.Validators[i].Address))
	}
	for _, signer := range signers {
		v, ok := set.ByAddress(signer.Address())
		require.True(t, ok)
		assert.True(t, v.PublicKey.Equals(signer.PublicKey()))
	}
	_, ok := set.ByAddress(unittest.AddressFixture())
	assert.False(t, ok)

	t.Run("invalid sets", func(t *testing.T) {
		_, err := ledger.NewValidatorSet(nil)
		assert.ErrorIs(t, err, ledger.ErrInvalidValidatorSet)

		dup := []ledger.ValidatorInfo{signers[0].ValidatorInfo(1), signers[0].ValidatorInfo(1)}
		_, err = ledger.NewValidatorSet(dup)
		assert.ErrorIs(t, err, ledger.ErrInvalidValidatorSet)

		_, err = ledger.NewValidatorSet([]ledger.ValidatorInfo{signers[0].ValidatorInfo(0)})
		assert.ErrorIs(t, err, ledger.ErrInvalidValidatorSet)

		overflow := []ledger.ValidatorInfo{signers[0].ValidatorInfo(math.MaxUint64), signers[1].ValidatorInfo(1)}
		_, err = ledger.NewValidatorSet(overflow)
		assert.ErrorIs(t, err, ledger.ErrInvalidValidatorSet)
	})

	t.Run("encodings", func(t *testing.T) {
		b, err := json.Marshal(set)
		require.NoError(t, err)
		var fromJSON ledger.ValidatorSet
		require.NoError(t, json.Unmarshal(b, &fromJSON))
		require.NoError(t, fromJSON.Validate())

		b, err = msgpack.Marshal(set)
		require.NoError(t, err)
		var fromMsgpack ledger.ValidatorSet
		require.NoError(t, msgpack.Unmarshal(b, &fromMsgpack))
		require.NoError(t, fromMsgpack.Validate())

		encoder := cbor.NewEncoder()
		var fromCBOR ledger.ValidatorSet
		require.NoError(t, encoder.Decode(encoder.MustEncode(set), &fromCBOR))
		require.NoError(t, fromCBOR.Validate())

		for _, decoded := range []ledger.ValidatorSet{fromJSON, fromMsgpack, fromCBOR} {
			require.Equal(t, set.Len(), decoded.Len())
			for i := range set.Validators {
				assert.Equal(t, set.Validators[i].Address, decoded.Validators[i].Address)
				assert.Equal(t, set.Validators[i].VotingPower, decoded.Validators[i].VotingPower)
				assert.True(t, set.Validators[i].PublicKey.Equals(decoded.Validators[i].PublicKey))
			}
		}
	})
}

func TestQuorumThreshold(t *testing.T) {
	q := ledger.DefaultQuorumThreshold
	require.NoError(t, q.Validate())

	// floor(2V/3) + 1
	assert.Equal(t, uint64(1), q.QuorumOf(1))
	assert.Equal(t, uint64(3), q.QuorumOf(3))
	assert.Equal(t, uint64(3), q.QuorumOf(4))
	assert.Equal(t, uint64(67), q.QuorumOf(100))
	assert.Equal(t, uint64(7), q.QuorumOf(10))

	// no overflow for large totals
	assert.Equal(t, uint64(math.MaxUint64/3*2+1), q.QuorumOf(math.MaxUint64))

	assert.Error(t, ledger.QuorumThreshold{Numerator: 1, Denominator: 0}.Validate())
	assert.Error(t, ledger.QuorumThreshold{Numerator: 4, Denominator: 3}.Validate())
	assert.Error(t, ledger.QuorumThreshold{Numerator: 0, Denominator: 3}.Validate())

	half := ledger.QuorumThreshold{Numerator: 1, Denominator: 2}
	assert.Equal(t, uint64(3), half.QuorumOf(4))
}
