package unittest

import (
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/signature"
)

func HashFixture() hash.Hash {
	var h hash.Hash
	_, _ = rand.Read(h[:])
	return h
}

func AddressFixture() ledger.Address {
	var a ledger.Address
	_, _ = rand.Read(a[:])
	return a
}

func TransactionFixture(opts ...func(*ledger.Transaction)) ledger.Transaction {
	payload := make([]byte, 32)
	_, _ = rand.Read(payload)
	tx := ledger.Transaction{
		Sender:                  AddressFixture(),
		SequenceNumber:          1,
		Payload:                 payload,
		MaxGasAmount:            1_000_000,
		GasUnitPrice:            1,
		GasCurrencyCode:         "XUS",
		ExpirationTimestampSecs: uint64(time.Now().Add(time.Hour).Unix()),
		ChainID:                 4,
	}
	for _, apply := range opts {
		apply(&tx)
	}
	return tx
}

func WithSequenceNumber(seq uint64) func(*ledger.Transaction) {
	return func(tx *ledger.Transaction) {
		tx.SequenceNumber = seq
	}
}

func TransactionsFixture(n int) []ledger.Transaction {
	txs := make([]ledger.Transaction, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, TransactionFixture(WithSequenceNumber(uint64(i))))
	}
	return txs
}

func ExecutionMetadataFixture() ledger.ExecutionMetadata {
	return ledger.ExecutionMetadata{
		StateRootHash: HashFixture(),
		EventRootHash: HashFixture(),
		GasUsed:       100,
		Status:        ledger.StatusExecuted,
	}
}

func ExecutionMetadataListFixture(n int) []ledger.ExecutionMetadata {
	metas := make([]ledger.ExecutionMetadata, 0, n)
	for i := 0; i < n; i++ {
		metas = append(metas, ExecutionMetadataFixture())
	}
	return metas
}

// SignersFixture returns n validator signers with random ECDSA keys.
func SignersFixture(t testing.TB, n int) []*signature.LocalSigner {
	signers := make([]*signature.LocalSigner, 0, n)
	for i := 0; i < n; i++ {
		signers = append(signers, signature.NewLocalSigner(AddressFixture(), ECDSAKey(t)))
	}
	return signers
}

// EpochStateFixture builds the validator set of an epoch from the signers,
// giving each the matching voting power (or 1 if powers is empty).
func EpochStateFixture(t testing.TB, epoch uint64, signers []*signature.LocalSigner, powers ...uint64) ledger.EpochState {
	validators := make([]ledger.ValidatorInfo, 0, len(signers))
	for i, signer := range signers {
		power := uint64(1)
		if len(powers) > 0 {
			power = powers[i]
		}
		validators = append(validators, signer.ValidatorInfo(power))
	}
	set, err := ledger.NewValidatorSet(validators)
	require.NoError(t, err)
	return ledger.EpochState{Epoch: epoch, Validators: set}
}

func LedgerInfoFixture(epoch, version uint64, root hash.Hash) ledger.LedgerInfo {
	return ledger.LedgerInfo{
		Epoch:                      epoch,
		Round:                      version + 1,
		Version:                    version,
		TransactionAccumulatorHash: root,
		Timestamp:                  uint64(time.Now().UnixMicro()),
	}
}

// SignedLedgerInfoFixture signs li with every signer.
func SignedLedgerInfoFixture(t testing.TB, li ledger.LedgerInfo, signers []*signature.LocalSigner) *ledger.LedgerInfoWithSignatures {
	liws := ledger.NewLedgerInfoWithSignatures(li)
	for _, signer := range signers {
		require.NoError(t, signer.SignInto(liws))
	}
	return liws
}

// CommittedFixture appends n transactions to acc and returns their canonical
// bytes and infos.
func CommittedFixture(t testing.TB, acc *accumulator.Accumulator, n int) ([][]byte, []ledger.TransactionInfo) {
	encoder := ledger.NewLeafEncoder(acc.Hasher())
	raws := make([][]byte, 0, n)
	infos := make([]ledger.TransactionInfo, 0, n)
	for i, tx := range TransactionsFixture(n) {
		raw, err := tx.Encode()
		require.NoError(t, err)
		info, leaf, err := encoder.EncodeInfo(tx, ExecutionMetadataFixture())
		require.NoError(t, err, fmt.Sprintf("transaction %d", i))
		acc.Append(leaf)
		raws = append(raws, raw)
		infos = append(infos, info)
	}
	return raws, infos
}
