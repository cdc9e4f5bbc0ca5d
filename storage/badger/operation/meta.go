package operation

import (
	"github.com/dgraph-io/badger/v2"
)

// DatabaseMeta records the parameters a database was bootstrapped with. A
// database must only be opened with the same parameters.
type DatabaseMeta struct {
	ChainID   uint8
	Algorithm string
}

// InsertDatabaseMeta inserts the database parameters.
func InsertDatabaseMeta(meta DatabaseMeta) func(*badger.Txn) error {
	return insert(makePrefix(codeMeta), meta)
}

// RetrieveDatabaseMeta retrieves the database parameters.
func RetrieveDatabaseMeta(meta *DatabaseMeta) func(*badger.Txn) error {
	return retrieve(makePrefix(codeMeta), meta)
}
