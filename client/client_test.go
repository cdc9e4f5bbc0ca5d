package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/onflow/txhistory/client"
	"github.com/onflow/txhistory/engine/access/jsonrpc"
	"github.com/onflow/txhistory/engine/access/rpc/backend"
	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/metrics"
	"github.com/onflow/txhistory/module/signature"
	"github.com/onflow/txhistory/state/trust"
	"github.com/onflow/txhistory/utils/unittest"
)

// tamperingAPI alters answers of the wrapped API the way a malicious server would.
type tamperingAPI struct {
	jsonrpc.API
	mu     sync.Mutex
	tamper func(*ledger.TransactionsWithProofs)
	// limit replaces the limit of every query when set
	limit uint64
}

func (a *tamperingAPI) setLimit(limit uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.limit = limit
}

func (a *tamperingAPI) setTamper(tamper func(*ledger.TransactionsWithProofs)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tamper = tamper
}

func (a *tamperingAPI) GetTransactionsWithProofs(ctx context.Context, start, limit uint64) (*ledger.TransactionsWithProofs, error) {
	a.mu.Lock()
	tamper := a.tamper
	if a.limit > 0 {
		limit = a.limit
	}
	a.mu.Unlock()

	resp, err := a.API.GetTransactionsWithProofs(ctx, start, limit)
	if err != nil || tamper == nil {
		return resp, err
	}
	// work on a copy, the backend answers from shared caches
	tampered := *resp
	liws := *resp.LedgerInfo
	tampered.LedgerInfo = &liws
	tampered.Transactions = append([][]byte{}, resp.Transactions...)
	tampered.TransactionInfos = append([]ledger.TransactionInfo{}, resp.TransactionInfos...)
	tampered.Proof.Siblings = append(tampered.Proof.Siblings[:0:0], resp.Proof.Siblings...)
	tamper(&tampered)
	return &tampered, nil
}

type env struct {
	history *unittest.History
	api     *tamperingAPI
	calls   *atomic.Uint64
	failing *atomic.Uint64
	url     string
	client  *client.Client
}

func (e *env) verifying(t *testing.T, opts ...client.VerifyingOption) *client.VerifyingClient {
	state, err := trust.FromWaypoint(e.history.Hasher, e.history.Waypoint, e.history.Genesis)
	require.NoError(t, err)
	return client.NewVerifyingClient(unittest.Logger(), e.client, e.history.Hasher, e.history.Verifier, state, opts...)
}

func runWithClient(t *testing.T, f func(*env)) {
	unittest.RunWithHistory(t, 4, func(history *unittest.History) {
		history.Commit(10)
		history.Certify()

		all := history.Storage
		b, err := backend.New(backend.Params{
			Log:              unittest.Logger(),
			Hasher:           history.Hasher,
			MaxLimit:         backend.DefaultMaxLimit,
			Transactions:     all.Transactions,
			AccumulatorNodes: all.AccumulatorNodes,
			LedgerInfos:      all.LedgerInfos,
			AccessMetrics:    metrics.NewNoopCollector(),
		})
		require.NoError(t, err)

		e := &env{
			history: history,
			api:     &tamperingAPI{API: b},
			calls:   atomic.NewUint64(0),
			failing: atomic.NewUint64(0),
		}
		router := jsonrpc.NewRouter(e.api, unittest.Logger(), metrics.NewNoopCollector(), jsonrpc.DefaultMaxBatchSize)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			e.calls.Inc()
			if e.failing.Load() > 0 {
				e.failing.Dec()
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			router.ServeHTTP(w, r)
		}))
		defer server.Close()

		e.url = server.URL
		e.client = client.New(server.URL, client.WithRetries(time.Millisecond, 3))
		f(e)
	})
}

func TestVerifiedQuery(t *testing.T) {
	runWithClient(t, func(e *env) {
		vc := e.verifying(t)
		resp, err := vc.GetTransactionsWithProofs(context.Background(), 4, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, resp.Len())
		assert.Equal(t, uint64(10), vc.TrustedState().Version)

		// a query past the ledger info is cut at its version
		resp, err = vc.GetTransactionsWithProofs(context.Background(), 8, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Len())

		// the tail of the history is an empty answer
		resp, err = vc.GetTransactionsWithProofs(context.Background(), 11, 5)
		require.NoError(t, err)
		assert.Zero(t, resp.Len())
	})
}

func TestVerifiedQueryAcrossEpochs(t *testing.T) {
	runWithClient(t, func(e *env) {
		vc := e.verifying(t)

		e.history.Commit(3)
		e.history.EndEpoch(unittest.SignersFixture(t, 5))
		e.history.Commit(4)
		e.history.EndEpoch(unittest.SignersFixture(t, 2))
		e.history.Commit(2)
		latest := e.history.Certify()

		resp, err := vc.GetTransactionsWithProofs(context.Background(), 0, 100)
		require.NoError(t, err)
		assert.Equal(t, int(latest.LedgerInfo.NumLeaves()), resp.Len())

		state := vc.TrustedState()
		assert.Equal(t, uint64(3), state.Epoch())
		assert.Equal(t, latest.LedgerInfo.Version, state.Version)
		assert.Equal(t, latest.LedgerInfo.TransactionAccumulatorHash, state.AccumulatorRoot)
	})
}

func TestSync(t *testing.T) {
	runWithClient(t, func(e *env) {
		vc := e.verifying(t)
		e.history.Commit(1)
		e.history.EndEpoch(unittest.SignersFixture(t, 3))
		e.history.Commit(1)
		latest := e.history.Certify()

		state, err := vc.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, latest.LedgerInfo.Version, state.Version)
		assert.Equal(t, uint64(2), state.Epoch())
		assert.Equal(t, state, vc.TrustedState())
	})
}

func TestTamperedAnswers(t *testing.T) {
	runWithClient(t, func(e *env) {
		cases := []struct {
			name   string
			tamper func(*ledger.TransactionsWithProofs)
			limit  uint64
			target error
		}{
			{"transaction bytes", func(resp *ledger.TransactionsWithProofs) {
				raw, err := unittest.TransactionFixture().Encode()
				require.NoError(t, err)
				resp.Transactions[1] = raw
			}, 0, accumulator.ErrProofMismatch},
			{"transaction info", func(resp *ledger.TransactionsWithProofs) {
				resp.TransactionInfos[0].GasUsed++
			}, 0, accumulator.ErrProofMismatch},
			{"sibling", func(resp *ledger.TransactionsWithProofs) {
				resp.Proof.Siblings[0] = unittest.HashFixture()
			}, 0, accumulator.ErrProofMismatch},
			{"missing sibling", func(resp *ledger.TransactionsWithProofs) {
				resp.Proof.Siblings = resp.Proof.Siblings[1:]
			}, 0, accumulator.ErrMalformedProof},
			{"missing info", func(resp *ledger.TransactionsWithProofs) {
				resp.TransactionInfos = resp.TransactionInfos[1:]
			}, 0, accumulator.ErrMalformedProof},
			{"shifted start", func(resp *ledger.TransactionsWithProofs) {
				resp.FirstVersion++
			}, 0, accumulator.ErrMalformedProof},
			{"withheld transactions", func(resp *ledger.TransactionsWithProofs) {
				resp.Transactions = nil
				resp.TransactionInfos = nil
				resp.Proof.Siblings = nil
			}, 0, accumulator.ErrMalformedProof},
			{"forged root", func(resp *ledger.TransactionsWithProofs) {
				resp.LedgerInfo.LedgerInfo.TransactionAccumulatorHash = unittest.HashFixture()
			}, 0, signature.ErrInsufficientQuorum},
			{"truncated answer", nil, 1, accumulator.ErrMalformedProof},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				e.api.setTamper(c.tamper)
				e.api.setLimit(c.limit)
				defer e.api.setTamper(nil)
				defer e.api.setLimit(0)

				vc := e.verifying(t)
				_, err := vc.GetTransactionsWithProofs(context.Background(), 2, 4)
				assert.ErrorIs(t, err, c.target)
				assert.Equal(t, uint64(0), vc.TrustedState().Version)
			})
		}
	})
}

func TestTruncatedAnswerWithinMaxLimit(t *testing.T) {
	runWithClient(t, func(e *env) {
		e.api.setLimit(2)
		defer e.api.setLimit(0)

		// a server capped at 2 transactions per query answers completely
		vc := e.verifying(t, client.WithMaxLimit(2))
		resp, err := vc.GetTransactionsWithProofs(context.Background(), 2, 4)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Len())

		_, err = e.verifying(t).GetTransactionsWithProofs(context.Background(), 2, 4)
		assert.ErrorIs(t, err, accumulator.ErrMalformedProof)
	})
}

func TestServerErrorsAreNotRetried(t *testing.T) {
	runWithClient(t, func(e *env) {
		_, err := e.client.GetTransactionsWithProofs(context.Background(), 12, 4)
		require.Error(t, err)
		assert.True(t, client.IsServerErrorKind(err, backend.KindInvalidRange))
		assert.Equal(t, uint64(1), e.calls.Load())
	})
}

func TestTransportFailuresAreRetried(t *testing.T) {
	runWithClient(t, func(e *env) {
		e.failing.Store(2)
		meta, err := e.client.GetMetadata(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(10), meta.Version)
		assert.Equal(t, uint64(3), e.calls.Load())

		e.calls.Store(0)
		e.failing.Store(10)
		_, err = e.client.GetMetadata(context.Background())
		assert.ErrorIs(t, err, client.ErrTransport)
		assert.Equal(t, uint64(4), e.calls.Load())
	})
}

func TestCircuitBreaker(t *testing.T) {
	runWithClient(t, func(e *env) {
		c := client.New(e.url,
			client.WithRetries(time.Millisecond, 1),
			client.WithCircuitBreaker(3, time.Hour))

		e.failing.Store(100)
		_, err := c.GetMetadata(context.Background())
		assert.ErrorIs(t, err, client.ErrTransport)
		assert.Equal(t, uint64(2), e.calls.Load())

		// the third consecutive failure opens the breaker, the retry fails fast
		_, err = c.GetMetadata(context.Background())
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.ErrorIs(t, err, client.ErrTransport)
		assert.Equal(t, uint64(3), e.calls.Load())

		e.failing.Store(0)
		_, err = c.GetMetadata(context.Background())
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, uint64(3), e.calls.Load())
	})
}

func TestGetTransactions(t *testing.T) {
	runWithClient(t, func(e *env) {
		txs, err := e.client.GetTransactions(context.Background(), 0, 3)
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, uint64(2), txs[2].Version)
	})
}
