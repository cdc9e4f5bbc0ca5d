package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/status"

	"github.com/onflow/txhistory/engine/access/jsonrpc/models"
	"github.com/onflow/txhistory/engine/access/rpc/backend"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module"
)

const (
	// DefaultMaxBatchSize is the largest number of calls in one batch request.
	DefaultMaxBatchSize = 20
	// DefaultMaxRequestSize bounds the body of a request in bytes.
	DefaultMaxRequestSize = 1 << 20
)

// API is the read API served over JSON-RPC.
type API interface {
	GetMetadata(ctx context.Context) (*ledger.Metadata, error)
	GetTransactions(ctx context.Context, start, limit uint64) (*ledger.TransactionList, error)
	GetTransactionsWithProofs(ctx context.Context, start, limit uint64) (*ledger.TransactionsWithProofs, error)
	GetStateProof(ctx context.Context, knownVersion uint64) (*ledger.StateProof, error)
}

type method func(ctx context.Context, params []json.RawMessage) (interface{}, error)

// Handler serves JSON-RPC 2.0 calls, single or batched, on POST requests.
type Handler struct {
	log          zerolog.Logger
	metrics      module.JSONRPCMetrics
	methods      map[string]method
	maxBatchSize int
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(log zerolog.Logger, api API, metrics module.JSONRPCMetrics, maxBatchSize int) *Handler {
	h := &Handler{
		log:          log.With().Str("component", "jsonrpc").Logger(),
		metrics:      metrics,
		maxBatchSize: maxBatchSize,
	}
	h.methods = map[string]method{
		models.MethodGetMetadata: func(ctx context.Context, params []json.RawMessage) (interface{}, error) {
			err := expectParams(params, 0)
			if err != nil {
				return nil, err
			}
			meta, err := api.GetMetadata(ctx)
			if err != nil {
				return nil, err
			}
			return models.NewMetadataView(meta), nil
		},
		models.MethodGetTransactions: func(ctx context.Context, params []json.RawMessage) (interface{}, error) {
			start, limit, err := transactionsParams(params)
			if err != nil {
				return nil, err
			}
			list, err := api.GetTransactions(ctx, start, limit)
			if err != nil {
				return nil, err
			}
			return models.NewTransactionViews(list)
		},
		models.MethodGetTransactionsWithProofs: func(ctx context.Context, params []json.RawMessage) (interface{}, error) {
			start, limit, err := rangeParams(params)
			if err != nil {
				return nil, err
			}
			resp, err := api.GetTransactionsWithProofs(ctx, start, limit)
			if err != nil {
				return nil, err
			}
			return models.NewTransactionsWithProofsView(resp)
		},
		models.MethodGetStateProof: func(ctx context.Context, params []json.RawMessage) (interface{}, error) {
			err := expectParams(params, 1)
			if err != nil {
				return nil, err
			}
			known, err := uintParam(params[0], "known_version")
			if err != nil {
				return nil, err
			}
			proof, err := api.GetStateProof(ctx, known)
			if err != nil {
				return nil, err
			}
			return models.NewStateProofView(proof)
		},
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, DefaultMaxRequestSize))
	if err != nil {
		h.write(w, http.StatusRequestEntityTooLarge, h.failure(nil, models.NewError(models.CodeInvalidRequest, "request too large")))
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []json.RawMessage
		err = json.Unmarshal(body, &batch)
		if err != nil {
			h.write(w, http.StatusOK, h.failure(nil, models.NewError(models.CodeParseError, "could not parse batch: %v", err)))
			return
		}
		if len(batch) == 0 {
			h.write(w, http.StatusOK, h.failure(nil, models.NewError(models.CodeInvalidRequest, "empty batch")))
			return
		}
		if len(batch) > h.maxBatchSize {
			h.write(w, http.StatusOK, h.failure(nil, models.NewError(models.CodeInvalidRequest, "batch of %d calls exceeds %d", len(batch), h.maxBatchSize)))
			return
		}

		responses := make([]*models.Response, 0, len(batch))
		for _, raw := range batch {
			responses = append(responses, h.call(r.Context(), raw))
		}
		h.write(w, http.StatusOK, responses)
		return
	}

	h.write(w, http.StatusOK, h.call(r.Context(), body))
}

func (h *Handler) call(ctx context.Context, raw json.RawMessage) *models.Response {
	var req models.Request
	err := json.Unmarshal(raw, &req)
	if err != nil {
		return h.failure(nil, models.NewError(models.CodeParseError, "could not parse request: %v", err))
	}
	if req.JSONRPC != models.Version || req.Method == "" {
		return h.failure(req.ID, models.NewError(models.CodeInvalidRequest, "invalid json-rpc %s request", models.Version))
	}
	m, ok := h.methods[req.Method]
	if !ok {
		return h.failure(req.ID, models.NewError(models.CodeMethodNotFound, "method %q not found", req.Method))
	}

	var params []json.RawMessage
	if len(req.Params) > 0 && !bytes.Equal(req.Params, []byte("null")) {
		err = json.Unmarshal(req.Params, &params)
		if err != nil {
			return h.observe(req.Method, time.Now(), h.failure(req.ID, models.NewError(models.CodeInvalidParams, "params must be an array")))
		}
	}

	began := time.Now()
	result, err := m(ctx, params)
	if err != nil {
		return h.observe(req.Method, began, h.failure(req.ID, h.toError(req.Method, err)))
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		h.log.Error().Err(err).Str("method", req.Method).Msg("could not encode result")
		return h.observe(req.Method, began, h.failure(req.ID, models.NewError(models.CodeServerError, "could not encode result")))
	}
	return h.observe(req.Method, began, &models.Response{
		JSONRPC: models.Version,
		ID:      req.ID,
		Result:  encoded,
	})
}

// toError maps a method error to a JSON-RPC error. Backend failures are
// server errors carrying their kind.
func (h *Handler) toError(method string, err error) *models.Error {
	var rpcErr *models.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	kind := backend.ErrorKind(err)
	st := status.Convert(backend.ConvertError(err))
	if kind == backend.KindInternal {
		h.log.Error().Err(err).Str("method", method).Msg("call failed")
	}
	return &models.Error{
		Code:    models.CodeServerError,
		Message: st.Message(),
		Data: &models.ErrorData{
			Kind:   kind,
			Status: st.Code().String(),
		},
	}
}

func (h *Handler) failure(id json.RawMessage, err *models.Error) *models.Response {
	return &models.Response{
		JSONRPC: models.Version,
		ID:      id,
		Error:   err,
	}
}

func (h *Handler) observe(method string, began time.Time, resp *models.Response) *models.Response {
	code := 0
	if resp.Error != nil {
		code = resp.Error.Code
	}
	h.metrics.ObserveRequest(method, code, time.Since(began))
	return resp
}

func (h *Handler) write(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		h.log.Debug().Err(err).Msg("could not write response")
	}
}
