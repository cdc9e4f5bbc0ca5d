package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/encoding"
)

// Transaction is a committed user transaction. Its canonical serialization
// is produced by Encode and is what the history service hands out.
type Transaction struct {
	Sender                  Address
	SequenceNumber          uint64
	Payload                 []byte
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	GasCurrencyCode         string
	ExpirationTimestampSecs uint64
	ChainID                 uint8
}

// transactionWrapper is used for encoding and decoding.
type transactionWrapper struct {
	Sender                  []byte
	SequenceNumber          uint64
	Payload                 []byte
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	GasCurrencyCode         string
	ExpirationTimestampSecs uint64
	ChainID                 uint8
}

// Encode returns the canonical serialization of the transaction.
func (tx Transaction) Encode() ([]byte, error) {
	w := transactionWrapper{
		Sender:                  tx.Sender[:],
		SequenceNumber:          tx.SequenceNumber,
		Payload:                 tx.Payload,
		MaxGasAmount:            tx.MaxGasAmount,
		GasUnitPrice:            tx.GasUnitPrice,
		GasCurrencyCode:         tx.GasCurrencyCode,
		ExpirationTimestampSecs: tx.ExpirationTimestampSecs,
		ChainID:                 tx.ChainID,
	}
	return rlp.EncodeToBytes(&w)
}

// DecodeTransaction parses a canonical transaction serialization.
func DecodeTransaction(b []byte) (Transaction, error) {
	var w transactionWrapper
	err := rlp.DecodeBytes(b, &w)
	if err != nil {
		return Transaction{}, NewMalformedInputErrorf("could not decode transaction: %v", err)
	}
	if len(w.Sender) != AddressLength {
		return Transaction{}, NewMalformedInputErrorf("sender has %d bytes, expecting %d", len(w.Sender), AddressLength)
	}
	var sender Address
	copy(sender[:], w.Sender)
	return Transaction{
		Sender:                  sender,
		SequenceNumber:          w.SequenceNumber,
		Payload:                 w.Payload,
		MaxGasAmount:            w.MaxGasAmount,
		GasUnitPrice:            w.GasUnitPrice,
		GasCurrencyCode:         w.GasCurrencyCode,
		ExpirationTimestampSecs: w.ExpirationTimestampSecs,
		ChainID:                 w.ChainID,
	}, nil
}

// Hash returns the transaction hash over its canonical serialization.
func (tx Transaction) Hash(hasher hash.Hasher) (hash.Hash, error) {
	b, err := tx.Encode()
	if err != nil {
		return hash.DummyHash, fmt.Errorf("could not encode transaction: %w", err)
	}
	return TransactionHash(hasher, b), nil
}

// TransactionHash hashes an already serialized transaction.
func TransactionHash(hasher hash.Hasher, raw []byte) hash.Hash {
	return hasher.Tagged(encoding.TransactionTag, raw)
}
