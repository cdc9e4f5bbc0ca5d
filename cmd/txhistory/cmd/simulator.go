package cmd

import (
	"context"
	"crypto/rand"
	"fmt"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/finalizer"
	"github.com/onflow/txhistory/module/irrecoverable"
	"github.com/onflow/txhistory/module/signature"
)

// simulator plays the part of consensus and execution: it commits blocks of
// random transactions and certifies each with a ledger info signed by the
// validators of the key file.
type simulator struct {
	log         zerolog.Logger
	committer   *finalizer.Committer
	pool        *workerpool.WorkerPool
	keysPath    string
	keys        *keyFile
	signers     []*signature.LocalSigner
	blockSize   int
	epochLength int
	round       uint64
	blocks      int
}

func newSimulator(committer *finalizer.Committer, keysPath string, blockSize int, epochLength int) (*simulator, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive")
	}
	var keys keyFile
	err := readJSON(keysPath, &keys)
	if err != nil {
		return nil, err
	}
	epoch := committer.EpochState().Epoch
	if keys.Epoch != epoch {
		return nil, fmt.Errorf("key file holds validators of epoch %d, history is in epoch %d", keys.Epoch, epoch)
	}
	signers, err := keys.signers()
	if err != nil {
		return nil, err
	}

	return &simulator{
		log:         log.With().Str("component", "simulator").Logger(),
		committer:   committer,
		pool:        workerpool.New(len(signers)),
		keysPath:    keysPath,
		keys:        &keys,
		signers:     signers,
		blockSize:   blockSize,
		epochLength: epochLength,
	}, nil
}

// run steps every interval until ctx is done. Failures are irrecoverable as
// the committer may be ahead of what was certified.
func (s *simulator) run(ctx irrecoverable.SignalerContext, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.step()
			if err != nil {
				ctx.Throw(fmt.Errorf("simulated block failed: %w", err))
			}
		}
	}
}

// runBlocks steps n times.
func (s *simulator) runBlocks(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := s.step()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *simulator) stop() {
	s.pool.StopWait()
}

// step commits one block and certifies it. Every epochLength blocks the
// ledger info hands over to newly generated validators.
func (s *simulator) step() error {
	size := 1 + mrand.Intn(s.blockSize)
	txs, metas, err := randomBlock(size)
	if err != nil {
		return err
	}
	first, err := s.committer.Commit(txs, metas)
	if err != nil {
		return fmt.Errorf("could not commit block: %w", err)
	}

	numLeaves := s.committer.NumLeaves()
	root, err := s.committer.RootAt(numLeaves)
	if err != nil {
		return fmt.Errorf("could not compute root: %w", err)
	}
	state := s.committer.EpochState()
	s.round++
	s.blocks++
	li := ledger.LedgerInfo{
		Epoch:                      state.Epoch,
		Round:                      s.round,
		Version:                    numLeaves - 1,
		TransactionAccumulatorHash: root,
		Timestamp:                  uint64(time.Now().UnixMicro()),
	}

	var next []*signature.LocalSigner
	if s.epochLength > 0 && s.blocks%s.epochLength == 0 {
		next, err = generateSigners(len(s.signers))
		if err != nil {
			return err
		}
		validators, err := validatorSet(next)
		if err != nil {
			return err
		}
		li.NextEpochState = &ledger.EpochState{Epoch: state.Epoch + 1, Validators: validators}
	}

	liws, err := s.sign(li)
	if err != nil {
		return err
	}
	err = s.committer.CommitLedgerInfo(liws)
	if err != nil {
		return fmt.Errorf("could not commit ledger info %s: %w", li, err)
	}

	if next != nil {
		waypoint, err := ledger.ParseWaypoint(s.keys.Waypoint)
		if err != nil {
			return fmt.Errorf("invalid waypoint in key file: %w", err)
		}
		s.keys = newKeyFile(waypoint, state.Epoch+1, next)
		s.signers = next
		err = writeJSON(s.keysPath, s.keys)
		if err != nil {
			return err
		}
	}

	s.log.Info().
		Uint64("first_version", first).
		Int("transactions", size).
		Uint64("epoch", li.Epoch).
		Bool("ends_epoch", li.EndsEpoch()).
		Msg("block certified")
	return nil
}

// sign collects the signatures of all validators in parallel.
func (s *simulator) sign(li ledger.LedgerInfo) (*ledger.LedgerInfoWithSignatures, error) {
	liws := ledger.NewLedgerInfoWithSignatures(li)

	var (
		mu   sync.Mutex
		errs *multierror.Error
		wg   sync.WaitGroup
	)
	for _, signer := range s.signers {
		signer := signer
		wg.Add(1)
		s.pool.Submit(func() {
			defer wg.Done()
			sig, err := signer.Sign(li)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("validator %s: %w", signer.Address(), err))
				return
			}
			liws.AddSignature(signer.Address(), sig)
		})
	}
	wg.Wait()

	return liws, errs.ErrorOrNil()
}

func randomBlock(n int) ([]ledger.Transaction, []ledger.ExecutionMetadata, error) {
	txs := make([]ledger.Transaction, 0, n)
	metas := make([]ledger.ExecutionMetadata, 0, n)
	for i := 0; i < n; i++ {
		var sender ledger.Address
		payload := make([]byte, 16+mrand.Intn(112))
		var stateRoot, eventRoot hash.Hash
		for _, b := range [][]byte{sender[:], payload, stateRoot[:], eventRoot[:]} {
			_, err := rand.Read(b)
			if err != nil {
				return nil, nil, fmt.Errorf("could not generate transaction: %w", err)
			}
		}
		txs = append(txs, ledger.Transaction{
			Sender:                  sender,
			SequenceNumber:          uint64(i),
			Payload:                 payload,
			MaxGasAmount:            1_000_000,
			GasUnitPrice:            1,
			GasCurrencyCode:         "XUS",
			ExpirationTimestampSecs: uint64(time.Now().Add(time.Hour).Unix()),
			ChainID:                 cfg.ChainID,
		})
		metas = append(metas, ledger.ExecutionMetadata{
			StateRootHash: stateRoot,
			EventRootHash: eventRoot,
			GasUsed:       uint64(mrand.Intn(100_000)),
			Status:        ledger.StatusExecuted,
		})
	}
	return txs, metas, nil
}
