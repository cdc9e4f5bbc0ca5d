package models

import (
	"encoding/json"
	"fmt"
)

// Version is the only JSON-RPC version served.
const Version = "2.0"

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

// Method names.
const (
	MethodGetMetadata               = "get_metadata"
	MethodGetTransactions           = "get_transactions"
	MethodGetTransactionsWithProofs = "get_transactions_with_proofs"
	MethodGetStateProof             = "get_state_proof"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// ErrorData tells clients what kind of failure a server error is.
type ErrorData struct {
	Kind   string `json:"kind"`
	Status string `json:"status,omitempty"`
}

type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("json-rpc error %d (%s): %s", e.Code, e.Data.Kind, e.Message)
	}
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

func NewError(code int, msg string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(msg, args...)}
}
