package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/module/metrics"
	"github.com/onflow/txhistory/storage"
	"github.com/onflow/txhistory/storage/badger/operation"
)

// Transactions stores the committed history: serialized transactions, their
// infos and the frozen accumulator nodes. It implements both
// storage.Transactions and storage.AccumulatorNodes, so proofs can be
// generated straight from disk.
type Transactions struct {
	db        *badger.DB
	txs       *Cache[uint64, []byte]
	infos     *Cache[uint64, *ledger.TransactionInfo]
	nodes     *Cache[accumulator.Position, hash.Hash]
	numLeaves *atomic.Uint64
}

var (
	_ storage.Transactions     = (*Transactions)(nil)
	_ storage.AccumulatorNodes = (*Transactions)(nil)
)

func NewTransactions(collector module.CacheMetrics, db *badger.DB, cacheSize uint) (*Transactions, error) {
	retrieveTx := func(version uint64) ([]byte, error) {
		var raw []byte
		err := db.View(operation.RetrieveTransaction(version, &raw))
		return raw, err
	}
	retrieveInfo := func(version uint64) (*ledger.TransactionInfo, error) {
		var info ledger.TransactionInfo
		err := db.View(operation.RetrieveTransactionInfo(version, &info))
		return &info, err
	}
	retrieveNode := func(pos accumulator.Position) (hash.Hash, error) {
		var h hash.Hash
		err := db.View(operation.RetrieveAccumulatorNode(pos, &h))
		return h, err
	}

	var n uint64
	err := db.View(operation.RetrieveNumLeaves(&n))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("could not retrieve number of leaves: %w", err)
	}

	return &Transactions{
		db:        db,
		txs:       newCache(collector, metrics.ResourceTransaction, cacheSize, retrieveTx),
		infos:     newCache(collector, metrics.ResourceTransactionInfo, cacheSize, retrieveInfo),
		nodes:     newCache(collector, metrics.ResourceAccumulatorNode, cacheSize, retrieveNode),
		numLeaves: atomic.NewUint64(n),
	}, nil
}

func (t *Transactions) Commit(batch *storage.CommitBatch) error {
	if len(batch.Transactions) != len(batch.TransactionInfos) {
		return fmt.Errorf("batch holds %d transactions but %d infos", len(batch.Transactions), len(batch.TransactionInfos))
	}
	if batch.FirstVersion != t.numLeaves.Load() {
		return fmt.Errorf("batch starts at version %d, expected %d: %w", batch.FirstVersion, t.numLeaves.Load(), storage.ErrDataMismatch)
	}
	numLeaves := batch.FirstVersion + uint64(len(batch.Transactions))

	err := t.db.Update(func(btx *badger.Txn) error {
		for i, raw := range batch.Transactions {
			version := batch.FirstVersion + uint64(i)
			err := operation.InsertTransaction(version, raw)(btx)
			if err != nil {
				return errors.Wrapf(err, "could not insert transaction %d", version)
			}
			err = operation.InsertTransactionInfo(version, &batch.TransactionInfos[i])(btx)
			if err != nil {
				return errors.Wrapf(err, "could not insert transaction info %d", version)
			}
		}
		for _, node := range batch.Nodes {
			err := operation.InsertAccumulatorNode(node.Position, node.Hash)(btx)
			if err != nil {
				return errors.Wrapf(err, "could not insert accumulator node %v", node.Position)
			}
		}
		return operation.UpdateNumLeaves(numLeaves)(btx)
	})
	if err != nil {
		return err
	}

	for _, node := range batch.Nodes {
		t.nodes.Insert(node.Position, node.Hash)
	}
	t.numLeaves.Store(numLeaves)
	return nil
}

func (t *Transactions) ByVersion(version uint64) ([]byte, error) {
	return t.txs.Get(version)
}

func (t *Transactions) InfoByVersion(version uint64) (*ledger.TransactionInfo, error) {
	return t.infos.Get(version)
}

func (t *Transactions) Range(start, count uint64) ([][]byte, []ledger.TransactionInfo, error) {
	if count > t.numLeaves.Load() || start > t.numLeaves.Load()-count {
		return nil, nil, fmt.Errorf("range [%d, %d+%d) beyond %d committed transactions: %w", start, start, count, t.numLeaves.Load(), storage.ErrNotFound)
	}
	raws := make([][]byte, 0, count)
	infos := make([]ledger.TransactionInfo, 0, count)
	for version := start; version < start+count; version++ {
		raw, err := t.ByVersion(version)
		if err != nil {
			return nil, nil, fmt.Errorf("could not get transaction %d: %w", version, err)
		}
		info, err := t.InfoByVersion(version)
		if err != nil {
			return nil, nil, fmt.Errorf("could not get transaction info %d: %w", version, err)
		}
		raws = append(raws, raw)
		infos = append(infos, *info)
	}
	return raws, infos, nil
}

func (t *Transactions) NumLeaves() uint64 {
	return t.numLeaves.Load()
}

func (t *Transactions) FrozenNode(pos accumulator.Position) (hash.Hash, error) {
	h, err := t.nodes.Get(pos)
	if errors.Is(err, storage.ErrNotFound) {
		return hash.DummyHash, fmt.Errorf("position %v: %w", pos, accumulator.ErrNodeNotFound)
	}
	if err != nil {
		return hash.DummyHash, err
	}
	return h, nil
}
