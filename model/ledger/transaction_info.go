package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/encoding"
)

// ExecutionStatus is the outcome of executing a transaction.
type ExecutionStatus uint8

const (
	StatusExecuted ExecutionStatus = iota
	StatusOutOfGas
	StatusAborted
	StatusExecutionFailure
	StatusMiscellaneousError
)

func (s ExecutionStatus) Valid() bool {
	return s <= StatusMiscellaneousError
}

func (s ExecutionStatus) String() string {
	switch s {
	case StatusExecuted:
		return "executed"
	case StatusOutOfGas:
		return "out_of_gas"
	case StatusAborted:
		return "aborted"
	case StatusExecutionFailure:
		return "execution_failure"
	case StatusMiscellaneousError:
		return "miscellaneous_error"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ExecutionMetadata is what the execution pipeline reports for a committed
// transaction.
type ExecutionMetadata struct {
	StateRootHash hash.Hash
	EventRootHash hash.Hash
	GasUsed       uint64
	Status        ExecutionStatus
}

// TransactionInfo summarizes the effects of one transaction. Its digest is
// the accumulator leaf at the transaction's version.
type TransactionInfo struct {
	TransactionHash hash.Hash
	StateRootHash   hash.Hash
	EventRootHash   hash.Hash
	GasUsed         uint64
	Status          ExecutionStatus
}

// transactionInfoWrapper is used for encoding.
type transactionInfoWrapper struct {
	TransactionHash []byte
	StateRootHash   []byte
	EventRootHash   []byte
	GasUsed         uint64
	Status          uint8
}

// NewTransactionInfo combines a transaction hash with its execution metadata.
func NewTransactionInfo(txHash hash.Hash, meta ExecutionMetadata) TransactionInfo {
	return TransactionInfo{
		TransactionHash: txHash,
		StateRootHash:   meta.StateRootHash,
		EventRootHash:   meta.EventRootHash,
		GasUsed:         meta.GasUsed,
		Status:          meta.Status,
	}
}

// Encode returns the canonical serialization of the info.
func (ti TransactionInfo) Encode() ([]byte, error) {
	if !ti.Status.Valid() {
		return nil, NewMalformedInputErrorf("invalid execution status %d", ti.Status)
	}
	w := transactionInfoWrapper{
		TransactionHash: ti.TransactionHash[:],
		StateRootHash:   ti.StateRootHash[:],
		EventRootHash:   ti.EventRootHash[:],
		GasUsed:         ti.GasUsed,
		Status:          uint8(ti.Status),
	}
	return rlp.EncodeToBytes(&w)
}

// Digest returns the accumulator leaf for the info.
func (ti TransactionInfo) Digest(hasher hash.Hasher) (hash.Hash, error) {
	b, err := ti.Encode()
	if err != nil {
		return hash.DummyHash, err
	}
	return hasher.Leaf(append([]byte(encoding.TransactionInfoTag), b...)), nil
}

// LeafDigests returns the accumulator leaves for consecutive infos.
func LeafDigests(hasher hash.Hasher, infos []TransactionInfo) ([]hash.Hash, error) {
	leaves := make([]hash.Hash, 0, len(infos))
	for i, info := range infos {
		leaf, err := info.Digest(hasher)
		if err != nil {
			return nil, fmt.Errorf("could not digest transaction info %d: %w", i, err)
		}
		leaves = append(leaves, leaf)
	}
	return leaves, nil
}
