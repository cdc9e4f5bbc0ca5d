package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
)

// InsertAccumulatorNode inserts a frozen accumulator node.
func InsertAccumulatorNode(pos accumulator.Position, h hash.Hash) func(*badger.Txn) error {
	return insert(makePrefix(codeAccumulatorNode, pos), h)
}

// RetrieveAccumulatorNode retrieves the frozen accumulator node at pos.
func RetrieveAccumulatorNode(pos accumulator.Position, h *hash.Hash) func(*badger.Txn) error {
	return retrieve(makePrefix(codeAccumulatorNode, pos), h)
}

// UpdateNumLeaves stores the number of committed transactions.
func UpdateNumLeaves(n uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeNumLeaves), n)
}

// RetrieveNumLeaves retrieves the number of committed transactions.
func RetrieveNumLeaves(n *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeNumLeaves), n)
}
