package ledger

import (
	"github.com/onflow/txhistory/ledger/common/hash"
)

// TransactionList is a run of consecutive committed transactions without proof.
type TransactionList struct {
	FirstVersion     uint64
	Transactions     [][]byte
	TransactionInfos []TransactionInfo
}

// TransactionsWithProofs answers a paginated history query. The list is
// proven against the accumulator root of LedgerInfo, at frozen_at
// LedgerInfo.Version+1. An empty list means the query started right after
// the ledger info's version.
type TransactionsWithProofs struct {
	LedgerInfo *LedgerInfoWithSignatures
	TransactionListWithProof
}

// StateProof carries what a client needs to move its trust to LedgerInfo:
// the epoch-ending ledger infos from the client's known version onwards.
type StateProof struct {
	LedgerInfo       *LedgerInfoWithSignatures
	EpochChangeProof EpochChangeProof
}

// Metadata describes the latest certified state of the history.
type Metadata struct {
	ChainID         uint8
	Epoch           uint64
	Version         uint64
	Timestamp       uint64
	AccumulatorRoot hash.Hash
}
