package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/txhistory/storage"
	"github.com/onflow/txhistory/storage/badger/operation"
)

// EnsureDatabaseMeta records meta in an empty database, or checks it matches
// the parameters the database was bootstrapped with. It reports whether the
// database was empty.
func EnsureDatabaseMeta(db *badger.DB, meta operation.DatabaseMeta) (bool, error) {
	var stored operation.DatabaseMeta
	err := db.View(operation.RetrieveDatabaseMeta(&stored))
	if errors.Is(err, storage.ErrNotFound) {
		err = db.Update(operation.InsertDatabaseMeta(meta))
		if err != nil {
			return false, fmt.Errorf("could not insert database meta: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not retrieve database meta: %w", err)
	}
	if stored != meta {
		return false, fmt.Errorf("database was bootstrapped with chain %d and %s, got chain %d and %s: %w",
			stored.ChainID, stored.Algorithm, meta.ChainID, meta.Algorithm, storage.ErrDataMismatch)
	}
	return false, nil
}
