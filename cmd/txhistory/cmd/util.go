package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/storage"
	bstorage "github.com/onflow/txhistory/storage/badger"
	"github.com/onflow/txhistory/storage/badger/operation"
)

func openDB() (*badger.DB, error) {
	err := os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return nil, fmt.Errorf("could not create data dir: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(cfg.DataDir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("could not open database at %s: %w", cfg.DataDir, err)
	}
	return db, nil
}

// initStorage checks the database was bootstrapped with the configured chain
// and hasher. Only bootstrap may run on an empty database.
func initStorage(db *badger.DB, collector module.CacheMetrics, bootstrapping bool) (*storage.All, error) {
	empty, err := bstorage.EnsureDatabaseMeta(db, operation.DatabaseMeta{
		ChainID:   cfg.ChainID,
		Algorithm: cfg.Hasher,
	})
	if err != nil {
		return nil, fmt.Errorf("database does not match configuration: %w", err)
	}
	if empty && !bootstrapping {
		return nil, fmt.Errorf("database at %s is not bootstrapped", cfg.DataDir)
	}
	return bstorage.InitAll(collector, db, cfg.CacheSize)
}

func readJSON(path string, target interface{}) error {
	dat, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	err = json.Unmarshal(dat, target)
	if err != nil {
		return fmt.Errorf("could not unmarshal %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, data interface{}) error {
	bz, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal json: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}
	// holds private keys
	err = os.WriteFile(path, bz, 0600)
	if err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	log.Info().Msgf("wrote file %v", path)
	return nil
}
