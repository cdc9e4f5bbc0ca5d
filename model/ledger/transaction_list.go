package ledger

import (
	"fmt"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
)

// TransactionListWithProof is a run of consecutive committed transactions,
// their infos, and the proof tying the infos to a ledger info's accumulator root.
type TransactionListWithProof struct {
	FirstVersion     uint64
	Transactions     [][]byte
	TransactionInfos []TransactionInfo
	Proof            accumulator.RangeProof
}

// Verify authenticates the list against li. The ledger info itself must have
// been verified by the caller.
//
// Expected errors:
//   - accumulator.MalformedProofError if transactions and infos do not pair up
//     or the proof does not fit the range
//   - accumulator.ProofMismatchError if a transaction does not hash to its info's
//     transaction hash or the proof does not lead to the ledger info's root
//   - accumulator.RangeOutOfBoundsError if the list reaches past li.Version
func (l TransactionListWithProof) Verify(hasher hash.Hasher, li LedgerInfo) error {
	if len(l.Transactions) != len(l.TransactionInfos) {
		return accumulator.NewMalformedProofErrorf("%d transactions but %d transaction infos", len(l.Transactions), len(l.TransactionInfos))
	}
	for i, raw := range l.Transactions {
		txHash := TransactionHash(hasher, raw)
		if txHash != l.TransactionInfos[i].TransactionHash {
			return fmt.Errorf("transaction at version %d: %w", l.FirstVersion+uint64(i),
				accumulator.NewProofMismatchError(l.TransactionInfos[i].TransactionHash, txHash))
		}
	}

	leaves, err := LeafDigests(hasher, l.TransactionInfos)
	if err != nil {
		return accumulator.NewMalformedProofErrorf("invalid transaction info: %v", err)
	}
	return accumulator.VerifyRangeProof(hasher, li.TransactionAccumulatorHash, li.NumLeaves(), l.FirstVersion, leaves, l.Proof)
}

func (l TransactionListWithProof) Len() int {
	return len(l.Transactions)
}
