package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/storage"
)

const DefaultCacheSize = uint(1000)

func InitAll(metrics module.CacheMetrics, db *badger.DB, cacheSize uint) (*storage.All, error) {
	transactions, err := NewTransactions(metrics, db, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not initialize transactions: %w", err)
	}
	ledgerInfos, err := NewLedgerInfos(metrics, db, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not initialize ledger infos: %w", err)
	}

	return &storage.All{
		Transactions:     transactions,
		AccumulatorNodes: transactions,
		LedgerInfos:      ledgerInfos,
	}, nil
}
