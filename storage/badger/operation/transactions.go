package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/txhistory/model/ledger"
)

// InsertTransaction inserts a serialized transaction keyed by version.
func InsertTransaction(version uint64, raw []byte) func(*badger.Txn) error {
	return insert(makePrefix(codeTransaction, version), raw)
}

// RetrieveTransaction retrieves the serialized transaction at version.
func RetrieveTransaction(version uint64, raw *[]byte) func(*badger.Txn) error {
	return retrieve(makePrefix(codeTransaction, version), raw)
}

// InsertTransactionInfo inserts a transaction info keyed by version.
func InsertTransactionInfo(version uint64, info *ledger.TransactionInfo) func(*badger.Txn) error {
	return insert(makePrefix(codeTransactionInfo, version), info)
}

// RetrieveTransactionInfo retrieves the transaction info at version.
func RetrieveTransactionInfo(version uint64, info *ledger.TransactionInfo) func(*badger.Txn) error {
	return retrieve(makePrefix(codeTransactionInfo, version), info)
}
