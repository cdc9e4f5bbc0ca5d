package badger

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"

	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/module/metrics"
	"github.com/onflow/txhistory/storage"
	"github.com/onflow/txhistory/storage/badger/operation"
)

// LedgerInfos implements storage.LedgerInfos. The latest ledger info is kept
// in memory since every query is answered against it.
type LedgerInfos struct {
	db    *badger.DB
	cache *Cache[uint64, *ledger.LedgerInfoWithSignatures]

	mu     sync.RWMutex
	latest *ledger.LedgerInfoWithSignatures
}

var _ storage.LedgerInfos = (*LedgerInfos)(nil)

func NewLedgerInfos(collector module.CacheMetrics, db *badger.DB, cacheSize uint) (*LedgerInfos, error) {
	retrieve := func(version uint64) (*ledger.LedgerInfoWithSignatures, error) {
		var liws ledger.LedgerInfoWithSignatures
		err := db.View(operation.RetrieveLedgerInfo(version, &liws))
		return &liws, err
	}

	l := &LedgerInfos{
		db:    db,
		cache: newCache(collector, metrics.ResourceLedgerInfo, cacheSize, retrieve),
	}

	var version uint64
	err := db.View(operation.RetrieveLatestLedgerInfo(&version))
	if errors.Is(err, storage.ErrNotFound) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve latest ledger info version: %w", err)
	}
	latest, err := l.ByVersion(version)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve latest ledger info: %w", err)
	}
	l.latest = latest
	return l, nil
}

func (l *LedgerInfos) Store(liws *ledger.LedgerInfoWithSignatures) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	li := liws.LedgerInfo
	if l.latest != nil && li.Version < l.latest.LedgerInfo.Version {
		return fmt.Errorf("ledger info at version %d is older than latest version %d: %w",
			li.Version, l.latest.LedgerInfo.Version, storage.ErrDataMismatch)
	}

	err := l.db.Update(func(tx *badger.Txn) error {
		err := operation.InsertLedgerInfo(liws)(tx)
		if err != nil {
			return errors.Wrap(err, "could not insert ledger info")
		}
		if li.EndsEpoch() {
			err = operation.IndexEpochEnding(li.Epoch, li.Version)(tx)
			if err != nil {
				return errors.Wrapf(err, "could not index end of epoch %d", li.Epoch)
			}
		}
		return operation.UpdateLatestLedgerInfo(li.Version)(tx)
	})
	if err != nil {
		return err
	}

	l.cache.Insert(li.Version, liws)
	l.latest = liws
	return nil
}

func (l *LedgerInfos) Latest() (*ledger.LedgerInfoWithSignatures, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.latest == nil {
		return nil, fmt.Errorf("no ledger info committed: %w", storage.ErrNotFound)
	}
	return l.latest, nil
}

func (l *LedgerInfos) ByVersion(version uint64) (*ledger.LedgerInfoWithSignatures, error) {
	return l.cache.Get(version)
}

func (l *LedgerInfos) EpochEnding(epoch uint64) (*ledger.LedgerInfoWithSignatures, error) {
	var version uint64
	err := l.db.View(operation.LookupEpochEnding(epoch, &version))
	if err != nil {
		return nil, fmt.Errorf("could not look up end of epoch %d: %w", epoch, err)
	}
	return l.ByVersion(version)
}

func (l *LedgerInfos) EpochChangeProof(fromVersion uint64, untilEpoch uint64) (*ledger.EpochChangeProof, error) {
	var versions []uint64
	err := l.db.View(operation.LookupEpochEndings(fromVersion, &versions))
	if err != nil {
		return nil, fmt.Errorf("could not look up epoch endings: %w", err)
	}

	proof := &ledger.EpochChangeProof{}
	for _, version := range versions {
		liws, err := l.ByVersion(version)
		if err != nil {
			return nil, fmt.Errorf("could not retrieve epoch-ending ledger info %d: %w", version, err)
		}
		if liws.LedgerInfo.Epoch >= untilEpoch {
			break
		}
		proof.LedgerInfos = append(proof.LedgerInfos, *liws)
	}
	return proof, nil
}
