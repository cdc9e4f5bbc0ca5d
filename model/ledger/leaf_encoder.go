package ledger

import (
	"fmt"

	"github.com/onflow/txhistory/ledger/common/hash"
)

// LeafEncoder turns a committed transaction and its execution metadata into
// the accumulator leaf for its version. It is stateless and safe for
// concurrent use.
type LeafEncoder struct {
	hasher hash.Hasher
}

func NewLeafEncoder(hasher hash.Hasher) *LeafEncoder {
	return &LeafEncoder{hasher: hasher}
}

// Encode returns the leaf digest of tx executed with meta.
func (e *LeafEncoder) Encode(tx Transaction, meta ExecutionMetadata) (hash.Hash, error) {
	_, leaf, err := e.EncodeInfo(tx, meta)
	return leaf, err
}

// EncodeInfo returns the transaction info together with its leaf digest.
func (e *LeafEncoder) EncodeInfo(tx Transaction, meta ExecutionMetadata) (TransactionInfo, hash.Hash, error) {
	raw, err := tx.Encode()
	if err != nil {
		return TransactionInfo{}, hash.DummyHash, NewMalformedInputErrorf("could not encode transaction: %v", err)
	}
	return e.encode(raw, meta)
}

// EncodeRaw is Encode for an already serialized transaction. The bytes must
// decode as a transaction.
func (e *LeafEncoder) EncodeRaw(raw []byte, meta ExecutionMetadata) (TransactionInfo, hash.Hash, error) {
	_, err := DecodeTransaction(raw)
	if err != nil {
		return TransactionInfo{}, hash.DummyHash, err
	}
	return e.encode(raw, meta)
}

func (e *LeafEncoder) encode(raw []byte, meta ExecutionMetadata) (TransactionInfo, hash.Hash, error) {
	if !meta.Status.Valid() {
		return TransactionInfo{}, hash.DummyHash, NewMalformedInputErrorf("invalid execution status %d", meta.Status)
	}
	info := NewTransactionInfo(TransactionHash(e.hasher, raw), meta)
	leaf, err := info.Digest(e.hasher)
	if err != nil {
		return TransactionInfo{}, hash.DummyHash, fmt.Errorf("could not digest transaction info: %w", err)
	}
	return info, leaf, nil
}
