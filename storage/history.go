package storage

import (
	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/model/ledger"
)

// CommitBatch is a run of consecutive transactions committed atomically,
// together with the accumulator nodes their leaves froze.
type CommitBatch struct {
	FirstVersion     uint64
	Transactions     [][]byte
	TransactionInfos []ledger.TransactionInfo
	Nodes            []accumulator.Node
}

// Transactions gives access to the committed transaction history.
type Transactions interface {

	// Commit persists the batch. The first version of the batch must be
	// the number of transactions committed so far.
	Commit(batch *CommitBatch) error

	// ByVersion returns the serialized transaction at version.
	ByVersion(version uint64) ([]byte, error)

	// InfoByVersion returns the transaction info at version.
	InfoByVersion(version uint64) (*ledger.TransactionInfo, error)

	// Range returns count consecutive transactions and their infos from start.
	Range(start, count uint64) ([][]byte, []ledger.TransactionInfo, error)
}

// AccumulatorNodes gives read access to the persisted accumulator.
type AccumulatorNodes interface {
	accumulator.Reader
}

// LedgerInfos stores the signed ledger infos of the history.
type LedgerInfos interface {

	// Store persists a signed ledger info and makes it the latest one.
	// Epoch-ending ledger infos are indexed by epoch.
	Store(liws *ledger.LedgerInfoWithSignatures) error

	// Latest returns the ledger info with the highest version.
	Latest() (*ledger.LedgerInfoWithSignatures, error)

	// ByVersion returns the ledger info at version.
	ByVersion(version uint64) (*ledger.LedgerInfoWithSignatures, error)

	// EpochEnding returns the ledger info ending the given epoch.
	EpochEnding(epoch uint64) (*ledger.LedgerInfoWithSignatures, error)

	// EpochChangeProof returns, in epoch order, the epoch-ending ledger
	// infos at or after fromVersion up to, and excluding, epoch untilEpoch.
	EpochChangeProof(fromVersion uint64, untilEpoch uint64) (*ledger.EpochChangeProof, error)
}
