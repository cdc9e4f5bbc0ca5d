package finalizer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/module/irrecoverable"
	"github.com/onflow/txhistory/module/signature"
	"github.com/onflow/txhistory/storage"
)

// Committer is the single writer of the transaction history. It appends
// executed transactions to the accumulator and persists them, and accepts
// signed ledger infos that certify a prefix of the committed history.
type Committer struct {
	log          zerolog.Logger
	metrics      module.LedgerMetrics
	hasher       hash.Hasher
	encoder      *ledger.LeafEncoder
	verifier     *signature.ValidatorVerifier
	transactions storage.Transactions
	ledgerInfos  storage.LedgerInfos

	mu         sync.Mutex
	acc        *accumulator.Accumulator
	epochState ledger.EpochState
	latest     uint64
}

func newCommitter(
	log zerolog.Logger,
	metrics module.LedgerMetrics,
	hasher hash.Hasher,
	verifier *signature.ValidatorVerifier,
	all *storage.All,
) *Committer {
	return &Committer{
		log:          log.With().Str("component", "committer").Logger(),
		metrics:      metrics,
		hasher:       hasher,
		encoder:      ledger.NewLeafEncoder(hasher),
		verifier:     verifier,
		transactions: all.Transactions,
		ledgerInfos:  all.LedgerInfos,
		acc:          accumulator.New(hasher),
	}
}

// NewCommitter restores the committer from a bootstrapped database.
func NewCommitter(
	log zerolog.Logger,
	metrics module.LedgerMetrics,
	hasher hash.Hasher,
	verifier *signature.ValidatorVerifier,
	all *storage.All,
) (*Committer, error) {
	c := newCommitter(log, metrics, hasher, verifier, all)

	latest, err := all.LedgerInfos.Latest()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotBootstrapped
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve latest ledger info: %w", err)
	}

	acc, err := accumulator.Restore(hasher, all.AccumulatorNodes)
	if err != nil {
		return nil, fmt.Errorf("could not restore accumulator: %w", err)
	}
	c.acc = acc

	// the epoch state in force is announced by the latest epoch-ending ledger info
	ending := latest
	if !latest.LedgerInfo.EndsEpoch() {
		if latest.LedgerInfo.Epoch == 0 {
			return nil, irrecoverable.NewExceptionf("ledger info %s in epoch 0 does not end the epoch", latest.LedgerInfo)
		}
		ending, err = all.LedgerInfos.EpochEnding(latest.LedgerInfo.Epoch - 1)
		if err != nil {
			return nil, fmt.Errorf("could not retrieve end of epoch %d: %w", latest.LedgerInfo.Epoch-1, err)
		}
	}
	c.epochState = *ending.LedgerInfo.NextEpochState
	c.latest = latest.LedgerInfo.Version

	root, err := acc.RootAt(latest.LedgerInfo.NumLeaves())
	if err != nil {
		return nil, fmt.Errorf("could not compute root of latest ledger info: %w", err)
	}
	if root != latest.LedgerInfo.TransactionAccumulatorHash {
		return nil, irrecoverable.NewExceptionf("restored root %v does not match latest ledger info %s: %w", root, latest.LedgerInfo, ErrRootMismatch)
	}

	c.log.Info().
		Uint64("num_leaves", acc.NumLeaves()).
		Uint64("latest_version", c.latest).
		Uint64("epoch", c.epochState.Epoch).
		Msg("committer restored")

	return c, nil
}

// Bootstrap initializes an empty database. The genesis transaction becomes
// version 0, and the genesis ledger info ends epoch 0 by announcing the
// validator set of epoch 1. The genesis ledger info carries no signatures,
// clients pin it through the returned waypoint.
func Bootstrap(
	log zerolog.Logger,
	metrics module.LedgerMetrics,
	hasher hash.Hasher,
	verifier *signature.ValidatorVerifier,
	all *storage.All,
	genesis ledger.Transaction,
	validators ledger.ValidatorSet,
	timestamp uint64,
) (*Committer, ledger.Waypoint, error) {
	_, err := all.LedgerInfos.Latest()
	if err == nil {
		return nil, ledger.Waypoint{}, ErrAlreadyBootstrapped
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, ledger.Waypoint{}, fmt.Errorf("could not check for existing history: %w", err)
	}
	err = validators.Validate()
	if err != nil {
		return nil, ledger.Waypoint{}, fmt.Errorf("invalid genesis validator set: %w", err)
	}

	c := newCommitter(log, metrics, hasher, verifier, all)
	first, err := c.Commit([]ledger.Transaction{genesis}, []ledger.ExecutionMetadata{{Status: ledger.StatusExecuted}})
	if err != nil {
		return nil, ledger.Waypoint{}, fmt.Errorf("could not commit genesis transaction: %w", err)
	}
	if first != 0 {
		return nil, ledger.Waypoint{}, fmt.Errorf("genesis transaction committed at version %d: %w", first, ErrAlreadyBootstrapped)
	}

	next := ledger.EpochState{Epoch: 1, Validators: validators}
	li := ledger.LedgerInfo{
		Epoch:                      0,
		Round:                      0,
		Version:                    0,
		TransactionAccumulatorHash: c.acc.Root(),
		Timestamp:                  timestamp,
		NextEpochState:             &next,
	}
	err = c.ledgerInfos.Store(ledger.NewLedgerInfoWithSignatures(li))
	if err != nil {
		return nil, ledger.Waypoint{}, fmt.Errorf("could not store genesis ledger info: %w", err)
	}
	c.epochState = next

	waypoint, err := ledger.NewWaypoint(hasher, li)
	if err != nil {
		return nil, ledger.Waypoint{}, fmt.Errorf("could not compute genesis waypoint: %w", err)
	}

	c.log.Info().
		Str("waypoint", waypoint.String()).
		Int("validators", validators.Len()).
		Msg("history bootstrapped")

	return c, waypoint, nil
}

// NumLeaves returns the number of committed transactions.
func (c *Committer) NumLeaves() uint64 {
	return c.acc.NumLeaves()
}

// RootAt returns the accumulator root after the first n committed transactions.
func (c *Committer) RootAt(n uint64) (hash.Hash, error) {
	return c.acc.RootAt(n)
}

// EpochState returns the validator set currently signing ledger infos.
func (c *Committer) EpochState() ledger.EpochState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochState
}

// Commit appends the transactions, executed with the given metadata, to the
// history. It returns the version of the first transaction.
//
// Expected errors:
//   - ledger.ErrMalformedInput if a transaction or its metadata cannot be encoded
//
// Any other error leaves the committer unusable.
func (c *Committer) Commit(txs []ledger.Transaction, metas []ledger.ExecutionMetadata) (uint64, error) {
	if len(txs) != len(metas) {
		return 0, ledger.NewMalformedInputErrorf("%d transactions but %d execution metadata", len(txs), len(metas))
	}

	batch := &storage.CommitBatch{
		Transactions:     make([][]byte, 0, len(txs)),
		TransactionInfos: make([]ledger.TransactionInfo, 0, len(txs)),
	}
	leaves := make([]hash.Hash, 0, len(txs))
	for i, tx := range txs {
		raw, err := tx.Encode()
		if err != nil {
			return 0, ledger.NewMalformedInputErrorf("could not encode transaction %d: %v", i, err)
		}
		info, leaf, err := c.encoder.EncodeInfo(tx, metas[i])
		if err != nil {
			return 0, fmt.Errorf("could not encode leaf %d: %w", i, err)
		}
		batch.Transactions = append(batch.Transactions, raw)
		batch.TransactionInfos = append(batch.TransactionInfos, info)
		leaves = append(leaves, leaf)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	batch.FirstVersion = c.acc.NumLeaves()
	numLeaves, nodes := c.acc.AppendMany(leaves)
	batch.Nodes = nodes

	// the accumulator is ahead of the database from here on
	err := c.transactions.Commit(batch)
	if err != nil {
		return 0, irrecoverable.NewExceptionf("could not persist transactions [%d, %d): %w", batch.FirstVersion, numLeaves, err)
	}

	c.metrics.TransactionsCommitted(len(txs), numLeaves)
	c.log.Debug().
		Uint64("first_version", batch.FirstVersion).
		Int("count", len(txs)).
		Int("frozen_nodes", len(nodes)).
		Msg("transactions committed")

	return batch.FirstVersion, nil
}

// CommitLedgerInfo accepts a signed ledger info certifying the committed
// history up to its version. A ledger info ending the epoch switches the
// committer to the validator set it announces.
//
// Expected errors:
//   - ErrOutdatedLedgerInfo if liws is not newer than the latest ledger info
//   - ErrVersionNotCommitted if liws certifies uncommitted transactions
//   - ErrRootMismatch if the root is not the one of the committed history
//   - ErrInvalidEpochState if the announced epoch state does not follow
//   - signature.ErrEpochMismatch, signature.ErrUnknownSigner or
//     signature.ErrInsufficientQuorum if the signatures do not certify liws
func (c *Committer) CommitLedgerInfo(liws *ledger.LedgerInfoWithSignatures) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.checkLedgerInfo(liws)
	if err != nil {
		c.metrics.LedgerInfoRejected(rejectionReason(err))
		return err
	}

	li := liws.LedgerInfo
	err = c.ledgerInfos.Store(liws)
	if err != nil {
		return fmt.Errorf("could not store ledger info %s: %w", li, err)
	}
	c.latest = li.Version

	if li.EndsEpoch() {
		c.epochState = *li.NextEpochState
		c.log.Info().
			Uint64("epoch", c.epochState.Epoch).
			Int("validators", c.epochState.Validators.Len()).
			Uint64("version", li.Version).
			Msg("new epoch started")
	}

	c.metrics.LedgerInfoCommitted(li.Epoch, li.Version)
	c.log.Debug().Str("ledger_info", li.String()).Msg("ledger info committed")
	return nil
}

func (c *Committer) checkLedgerInfo(liws *ledger.LedgerInfoWithSignatures) error {
	li := liws.LedgerInfo
	if li.Version <= c.latest {
		return fmt.Errorf("ledger info at version %d, latest is %d: %w", li.Version, c.latest, ErrOutdatedLedgerInfo)
	}
	if li.NumLeaves() > c.acc.NumLeaves() {
		return fmt.Errorf("ledger info at version %d, %d transactions committed: %w", li.Version, c.acc.NumLeaves(), ErrVersionNotCommitted)
	}

	root, err := c.acc.RootAt(li.NumLeaves())
	if err != nil {
		return fmt.Errorf("could not compute root at version %d: %w", li.Version, err)
	}
	if root != li.TransactionAccumulatorHash {
		return fmt.Errorf("ledger info root %v, committed root %v: %w", li.TransactionAccumulatorHash, root, ErrRootMismatch)
	}

	if li.EndsEpoch() {
		next := li.NextEpochState
		if next.Epoch != li.Epoch+1 {
			return fmt.Errorf("epoch %d announces epoch %d: %w", li.Epoch, next.Epoch, ErrInvalidEpochState)
		}
		err = next.Validators.Validate()
		if err != nil {
			return fmt.Errorf("epoch %d announces invalid validators (%v): %w", li.Epoch, err, ErrInvalidEpochState)
		}
	}

	err = c.verifier.VerifyLedgerInfo(liws, c.epochState)
	if err != nil {
		return fmt.Errorf("could not verify signatures of %s: %w", li, err)
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrOutdatedLedgerInfo):
		return "outdated"
	case errors.Is(err, ErrVersionNotCommitted):
		return "not_committed"
	case errors.Is(err, ErrRootMismatch):
		return "root_mismatch"
	case errors.Is(err, ErrInvalidEpochState):
		return "invalid_epoch_state"
	case errors.Is(err, signature.ErrEpochMismatch):
		return "epoch_mismatch"
	case errors.Is(err, signature.ErrUnknownSigner):
		return "unknown_signer"
	case errors.Is(err, signature.ErrInsufficientQuorum):
		return "insufficient_quorum"
	default:
		return "other"
	}
}
