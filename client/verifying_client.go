package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/onflow/txhistory/engine/access/rpc/backend"
	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/state/trust"
)

// VerifyingClient authenticates every answer against a trusted state, and
// moves the trusted state forward as it verifies newer ledger infos.
type VerifyingClient struct {
	log      zerolog.Logger
	client   *Client
	hasher   hash.Hasher
	verifier trust.Verifier
	maxLimit uint64

	mu    sync.RWMutex
	state trust.TrustedState
}

type VerifyingOption func(*VerifyingClient)

// WithMaxLimit sets the largest number of transactions the server returns
// for one query. An answer holding fewer transactions than the query, this
// limit and the ledger info allow is rejected as incomplete.
func WithMaxLimit(maxLimit uint64) VerifyingOption {
	return func(c *VerifyingClient) {
		c.maxLimit = maxLimit
	}
}

func NewVerifyingClient(log zerolog.Logger, client *Client, hasher hash.Hasher, verifier trust.Verifier, state trust.TrustedState, opts ...VerifyingOption) *VerifyingClient {
	c := &VerifyingClient{
		log:      log.With().Str("component", "verifying_client").Logger(),
		client:   client,
		hasher:   hasher,
		verifier: verifier,
		maxLimit: backend.DefaultMaxLimit,
		state:    state,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *VerifyingClient) TrustedState() trust.TrustedState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// advance keeps the newest of the current and the given state, verified
// answers may arrive out of order.
func (c *VerifyingClient) advance(next trust.TrustedState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if next.Version < c.state.Version || next.EpochState.Epoch < c.state.EpochState.Epoch {
		return
	}
	if next.Version > c.state.Version || next.EpochState.Epoch > c.state.EpochState.Epoch {
		c.log.Debug().
			Uint64("version", next.Version).
			Uint64("epoch", next.Epoch()).
			Msg("trusted state advanced")
	}
	c.state = next
}

// Sync moves the trusted state to the latest ledger info of the server.
func (c *VerifyingClient) Sync(ctx context.Context) (trust.TrustedState, error) {
	state := c.TrustedState()
	proof, err := c.client.GetStateProof(ctx, state.Version)
	if err != nil {
		return state, fmt.Errorf("could not get state proof: %w", err)
	}
	next, err := state.VerifyAndRatchet(c.verifier, proof.LedgerInfo, &proof.EpochChangeProof)
	if err != nil {
		return state, fmt.Errorf("could not verify state proof: %w", err)
	}
	c.advance(next)
	return next, nil
}

// GetTransactionsWithProofs queries up to limit transactions from start and
// verifies them. The ledger info of the answer is verified against the
// trusted state, fetching an epoch change proof when it is from a later epoch.
//
// Expected errors:
//   - accumulator.ErrMalformedProof if the answer is not shaped like the query
//   - accumulator.ErrProofMismatch if the transactions are not the certified ones
//   - trust and signature errors if the ledger info cannot be trusted
//   - ServerError for errors reported by the server
func (c *VerifyingClient) GetTransactionsWithProofs(ctx context.Context, start, limit uint64) (*ledger.TransactionsWithProofs, error) {
	resp, err := c.client.GetTransactionsWithProofs(ctx, start, limit)
	if err != nil {
		return nil, err
	}
	if resp.LedgerInfo == nil {
		return nil, accumulator.NewMalformedProofErrorf("answer carries no ledger info")
	}
	li := resp.LedgerInfo.LedgerInfo

	state := c.TrustedState()
	var change *ledger.EpochChangeProof
	if state.NeedsEpochChange(li) {
		proof, err := c.client.GetStateProof(ctx, state.Version)
		if err != nil {
			return nil, fmt.Errorf("could not get epoch change proof: %w", err)
		}
		change = &proof.EpochChangeProof
	}
	next, err := state.VerifyAndRatchet(c.verifier, resp.LedgerInfo, change)
	if err != nil {
		return nil, fmt.Errorf("could not verify ledger info at version %d: %w", li.Version, err)
	}

	err = checkShape(resp, start, limit, c.maxLimit)
	if err != nil {
		return nil, err
	}
	err = resp.Verify(c.hasher, li)
	if err != nil {
		return nil, fmt.Errorf("could not verify transactions [%d, %d): %w", start, start+uint64(resp.Len()), err)
	}

	c.advance(next)
	return resp, nil
}

// checkShape checks the answer covers the query: it starts at start and
// holds every transaction up to the query limit, the server's max limit or
// the end of the ledger info, whichever comes first.
func checkShape(resp *ledger.TransactionsWithProofs, start, limit, maxLimit uint64) error {
	li := resp.LedgerInfo.LedgerInfo
	if resp.FirstVersion != start {
		return accumulator.NewMalformedProofErrorf("answer starts at version %d, queried %d", resp.FirstVersion, start)
	}
	if start > li.NumLeaves() {
		return accumulator.NewMalformedProofErrorf("answer from version %d beyond ledger info at version %d", start, li.Version)
	}
	n := uint64(resp.Len())
	if n > limit {
		return accumulator.NewMalformedProofErrorf("answer holds %d transactions, queried %d", n, limit)
	}
	expected := li.NumLeaves() - start
	if limit < expected {
		expected = limit
	}
	if maxLimit > 0 && maxLimit < expected {
		expected = maxLimit
	}
	if n < expected {
		return accumulator.NewMalformedProofErrorf("answer holds %d transactions from version %d, ledger info at version %d allows %d", n, start, li.Version, expected)
	}
	return nil
}
