package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/storage"
)

const (
	methodGetMetadata   = "get_metadata"
	methodGetStateProof = "get_state_proof"
)

type backendLedger struct {
	log         zerolog.Logger
	chainID     uint8
	ledgerInfos storage.LedgerInfos
	metrics     module.AccessMetrics
}

func (b *backendLedger) GetMetadata(ctx context.Context) (*ledger.Metadata, error) {
	liws, err := latestLedgerInfo(b.ledgerInfos)
	if err != nil {
		b.metrics.QueryFailed(methodGetMetadata, ErrorKind(err))
		return nil, err
	}
	li := liws.LedgerInfo
	return &ledger.Metadata{
		ChainID:         b.chainID,
		Epoch:           li.Epoch,
		Version:         li.Version,
		Timestamp:       li.Timestamp,
		AccumulatorRoot: li.TransactionAccumulatorHash,
	}, nil
}

// GetStateProof returns the latest ledger info together with the epoch
// change proof a client trusting knownVersion needs to verify it.
func (b *backendLedger) GetStateProof(ctx context.Context, knownVersion uint64) (*ledger.StateProof, error) {
	proof, err := b.getStateProof(knownVersion)
	if err != nil {
		b.metrics.QueryFailed(methodGetStateProof, ErrorKind(err))
		return nil, err
	}
	return proof, nil
}

func (b *backendLedger) getStateProof(knownVersion uint64) (*ledger.StateProof, error) {
	liws, err := latestLedgerInfo(b.ledgerInfos)
	if err != nil {
		return nil, err
	}
	if knownVersion > liws.LedgerInfo.Version {
		return nil, NewInvalidRangeErrorf("known version %d is after latest version %d", knownVersion, liws.LedgerInfo.Version)
	}

	change, err := b.ledgerInfos.EpochChangeProof(knownVersion, liws.LedgerInfo.Epoch)
	if err != nil {
		return nil, fmt.Errorf("could not get epoch change proof from version %d: %w", knownVersion, err)
	}
	return &ledger.StateProof{
		LedgerInfo:       liws,
		EpochChangeProof: *change,
	}, nil
}
