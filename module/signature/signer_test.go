package signature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/txhistory/module/signature"
	"github.com/onflow/txhistory/utils/unittest"
)

func TestLocalSignerEncoding(t *testing.T) {
	signer, err := signature.GenerateLocalSigner()
	require.NoError(t, err)
	assert.Equal(t, signature.AddressFromPublicKey(signer.PublicKey()), signer.Address())

	restored, err := signature.DecodeLocalSigner(signer.Address(), signer.EncodePrivateKey())
	require.NoError(t, err)
	assert.True(t, signer.PublicKey().Equals(restored.PublicKey()))

	// a signature of the restored signer verifies against the original key
	li := unittest.LedgerInfoFixture(1, 3, unittest.HashFixture())
	sig, err := restored.Sign(li)
	require.NoError(t, err)
	msg, err := li.SigningBytes()
	require.NoError(t, err)
	valid, err := signer.PublicKey().Verify(sig, msg, signature.NewLedgerInfoHasher())
	require.NoError(t, err)
	assert.True(t, valid)

	_, err = signature.DecodeLocalSigner(signer.Address(), []byte{1, 2, 3})
	assert.Error(t, err)
}
