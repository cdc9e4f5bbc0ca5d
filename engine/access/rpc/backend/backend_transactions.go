package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/storage"
)

const (
	methodGetTransactions           = "get_transactions"
	methodGetTransactionsWithProofs = "get_transactions_with_proofs"
)

type backendTransactions struct {
	log          zerolog.Logger
	hasher       hash.Hasher
	maxLimit     uint64
	transactions storage.Transactions
	nodes        storage.AccumulatorNodes
	ledgerInfos  storage.LedgerInfos
	metrics      module.AccessMetrics
}

// window resolves (start, limit) against li into the number of transactions
// to return. The limit is clamped to the max limit, and the window ends at
// li.Version.
func (b *backendTransactions) window(li ledger.LedgerInfo, start, limit uint64) (uint64, error) {
	if limit == 0 {
		return 0, NewInvalidRangeErrorf("limit must be positive")
	}
	if limit > b.maxLimit {
		limit = b.maxLimit
	}
	numLeaves := li.NumLeaves()
	if start > numLeaves {
		return 0, NewInvalidRangeError(accumulator.NewRangeOutOfBoundsErrorf(
			"start version %d is after latest version %d", start, li.Version))
	}
	count := numLeaves - start
	if count > limit {
		count = limit
	}
	return count, nil
}

// GetTransactions returns up to limit committed transactions from start,
// without proofs.
func (b *backendTransactions) GetTransactions(ctx context.Context, start, limit uint64) (*ledger.TransactionList, error) {
	list, err := b.getTransactions(ctx, start, limit)
	if err != nil {
		b.metrics.QueryFailed(methodGetTransactions, ErrorKind(err))
		return nil, err
	}
	return list, nil
}

func (b *backendTransactions) getTransactions(ctx context.Context, start, limit uint64) (*ledger.TransactionList, error) {
	liws, err := latestLedgerInfo(b.ledgerInfos)
	if err != nil {
		return nil, err
	}
	count, err := b.window(liws.LedgerInfo, start, limit)
	if err != nil {
		return nil, err
	}
	raws, infos, err := b.read(ctx, start, count)
	if err != nil {
		return nil, err
	}
	return &ledger.TransactionList{
		FirstVersion:     start,
		Transactions:     raws,
		TransactionInfos: infos,
	}, nil
}

// GetTransactionsWithProofs returns up to limit committed transactions from
// start, proven against the latest ledger info.
//
// Expected errors:
//   - InvalidRangeError if limit is zero, or start is after the latest
//     version plus one, in which case it also matches
//     accumulator.ErrRangeOutOfBounds
func (b *backendTransactions) GetTransactionsWithProofs(ctx context.Context, start, limit uint64) (*ledger.TransactionsWithProofs, error) {
	resp, err := b.getTransactionsWithProofs(ctx, start, limit)
	if err != nil {
		b.metrics.QueryFailed(methodGetTransactionsWithProofs, ErrorKind(err))
		b.log.Debug().Err(err).
			Uint64("start", start).
			Uint64("limit", limit).
			Msg("transactions with proofs query failed")
		return nil, err
	}
	return resp, nil
}

func (b *backendTransactions) getTransactionsWithProofs(ctx context.Context, start, limit uint64) (*ledger.TransactionsWithProofs, error) {
	liws, err := latestLedgerInfo(b.ledgerInfos)
	if err != nil {
		return nil, err
	}
	li := liws.LedgerInfo
	count, err := b.window(li, start, limit)
	if err != nil {
		return nil, err
	}

	resp := &ledger.TransactionsWithProofs{
		LedgerInfo: liws,
		TransactionListWithProof: ledger.TransactionListWithProof{
			FirstVersion: start,
		},
	}
	if count == 0 {
		return resp, nil
	}

	raws, infos, err := b.read(ctx, start, count)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	proof, err := accumulator.GenerateRangeProof(b.nodes, b.hasher, start, count, li.NumLeaves())
	if err != nil {
		return nil, fmt.Errorf("could not generate proof for [%d, %d) at %d: %w", start, start+count, li.NumLeaves(), err)
	}
	b.metrics.RangeProofGenerated(count, len(proof.Siblings), time.Since(began))

	resp.Transactions = raws
	resp.TransactionInfos = infos
	resp.Proof = proof
	return resp, nil
}

func (b *backendTransactions) read(ctx context.Context, start, count uint64) ([][]byte, []ledger.TransactionInfo, error) {
	if count == 0 {
		return nil, nil, nil
	}
	err := ctx.Err()
	if err != nil {
		return nil, nil, err
	}
	raws, infos, err := b.transactions.Range(start, count)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read transactions [%d, %d): %w", start, start+count, err)
	}
	return raws, infos, nil
}
