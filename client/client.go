package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"
	"go.uber.org/atomic"

	"github.com/onflow/txhistory/engine/access/jsonrpc/models"
	"github.com/onflow/txhistory/model/ledger"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultRetryBase   = 100 * time.Millisecond
	DefaultMaxRetries  = 4
	maxResponseSize    = 64 << 20
	contentTypeJSONRPC = "application/json"
)

// Client calls the JSON-RPC API of a transaction history server. It returns
// what the server says without verifying it, see VerifyingClient.
type Client struct {
	log        zerolog.Logger
	url        string
	http       *http.Client
	retryBase  time.Duration
	maxRetries uint64
	breaker    *gobreaker.CircuitBreaker
	nextID     *atomic.Uint64
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

func WithRetries(base time.Duration, max uint64) Option {
	return func(c *Client) {
		c.retryBase = base
		c.maxRetries = max
	}
}

// WithCircuitBreaker stops calling the server after maxFailures consecutive
// transport failures. Calls fail fast with gobreaker.ErrOpenState until
// the server is probed again after timeout.
func WithCircuitBreaker(maxFailures uint32, timeout time.Duration) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    c.url,
			Timeout: timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				c.log.Warn().
					Str("url", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		})
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		log:        zerolog.Nop(),
		url:        url,
		http:       &http.Client{Timeout: DefaultTimeout},
		retryBase:  DefaultRetryBase,
		maxRetries: DefaultMaxRetries,
		nextID:     atomic.NewUint64(0),
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

// Call invokes method with positional params and decodes its result into
// result. Transport failures and server overload are retried with
// exponential backoff, JSON-RPC errors are returned as ServerError. An open
// circuit breaker fails the call without retrying.
func (c *Client) Call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	encodedParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("could not encode params: %w", err)
	}
	id, err := json.Marshal(c.nextID.Inc())
	if err != nil {
		return fmt.Errorf("could not encode id: %w", err)
	}
	body, err := json.Marshal(models.Request{
		JSONRPC: models.Version,
		ID:      id,
		Method:  method,
		Params:  encodedParams,
	})
	if err != nil {
		return fmt.Errorf("could not encode request: %w", err)
	}

	backoff := retry.NewExponential(c.retryBase)
	backoff = retry.WithMaxRetries(c.maxRetries, backoff)

	var resp models.Response
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.attempt(ctx, body, &resp)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}
		if err != nil {
			c.log.Debug().Err(err).Str("method", method).Msg("retrying call")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if resp.Error != nil {
		return ServerError{Err: resp.Error}
	}
	if !bytes.Equal(resp.ID, id) {
		return fmt.Errorf("response id %s does not match request id %s", resp.ID, id)
	}
	err = json.Unmarshal(resp.Result, result)
	if err != nil {
		return fmt.Errorf("could not decode %s result: %w", method, err)
	}
	return nil
}

// attempt posts through the circuit breaker, if there is one.
func (c *Client) attempt(ctx context.Context, body []byte, resp *models.Response) error {
	if c.breaker == nil {
		return c.post(ctx, body, resp)
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, body, resp)
	})
	return err
}

// post sends one request. It returns an error only for failures worth
// retrying.
func (c *Client) post(ctx context.Context, body []byte, resp *models.Response) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return transportErrorf("could not create request: %v", err)
	}
	req.Header.Set("Content-Type", contentTypeJSONRPC)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return transportErrorf("could not send request: %v", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusInternalServerError || httpResp.StatusCode == http.StatusTooManyRequests {
		return transportErrorf("server responded with status %d", httpResp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return transportErrorf("could not read response: %v", err)
	}
	err = json.Unmarshal(data, resp)
	if err != nil {
		return transportErrorf("could not decode response with status %d: %v", httpResp.StatusCode, err)
	}
	return nil
}

func (c *Client) GetMetadata(ctx context.Context) (*models.MetadataView, error) {
	var meta models.MetadataView
	err := c.Call(ctx, models.MethodGetMetadata, &meta)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *Client) GetTransactions(ctx context.Context, start, limit uint64) ([]models.TransactionView, error) {
	var txs []models.TransactionView
	err := c.Call(ctx, models.MethodGetTransactions, &txs, start, limit)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// GetTransactionsWithProofs returns the decoded, unverified answer.
func (c *Client) GetTransactionsWithProofs(ctx context.Context, start, limit uint64) (*ledger.TransactionsWithProofs, error) {
	var view models.TransactionsWithProofsView
	err := c.Call(ctx, models.MethodGetTransactionsWithProofs, &view, start, limit)
	if err != nil {
		return nil, err
	}
	return view.Decode()
}

// GetStateProof returns the decoded, unverified state proof.
func (c *Client) GetStateProof(ctx context.Context, knownVersion uint64) (*ledger.StateProof, error) {
	var view models.StateProofView
	err := c.Call(ctx, models.MethodGetStateProof, &view, knownVersion)
	if err != nil {
		return nil, err
	}
	return view.Decode()
}
