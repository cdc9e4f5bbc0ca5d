package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/storage"
)

// DefaultMaxLimit is the largest number of transactions returned by one query.
const DefaultMaxLimit = uint64(1000)

// Backend implements the read API of the transaction history.
//
// Transaction queries are handled by backendTransactions.
// Ledger info and epoch queries are handled by backendLedger.
//
// Every query is answered against the latest certified ledger info, read
// once per query, so a response never mixes two views of the history.
type Backend struct {
	backendTransactions
	backendLedger
}

// Params holds the dependencies of the Backend.
type Params struct {
	Log              zerolog.Logger
	Hasher           hash.Hasher
	ChainID          uint8
	MaxLimit         uint64
	Transactions     storage.Transactions
	AccumulatorNodes storage.AccumulatorNodes
	LedgerInfos      storage.LedgerInfos
	AccessMetrics    module.AccessMetrics
}

func New(params Params) (*Backend, error) {
	if params.MaxLimit == 0 {
		return nil, fmt.Errorf("max limit must be positive")
	}

	log := params.Log.With().Str("component", "backend").Logger()
	b := &Backend{
		backendTransactions: backendTransactions{
			log:          log,
			hasher:       params.Hasher,
			maxLimit:     params.MaxLimit,
			transactions: params.Transactions,
			nodes:        params.AccumulatorNodes,
			ledgerInfos:  params.LedgerInfos,
			metrics:      params.AccessMetrics,
		},
		backendLedger: backendLedger{
			log:         log,
			chainID:     params.ChainID,
			ledgerInfos: params.LedgerInfos,
			metrics:     params.AccessMetrics,
		},
	}
	return b, nil
}

// Ping reports whether the backend can serve queries.
func (b *Backend) Ping(ctx context.Context) error {
	_, err := b.backendLedger.ledgerInfos.Latest()
	if err != nil {
		return ConvertError(fmt.Errorf("no certified history: %w", err))
	}
	return nil
}

// latestLedgerInfo is the snapshot every query is answered against.
func latestLedgerInfo(ledgerInfos storage.LedgerInfos) (*ledger.LedgerInfoWithSignatures, error) {
	liws, err := ledgerInfos.Latest()
	if err != nil {
		return nil, fmt.Errorf("could not get latest ledger info: %w", err)
	}
	return liws, nil
}
