package client

import (
	"errors"
	"fmt"

	"github.com/onflow/txhistory/engine/access/jsonrpc/models"
)

// ErrTransport is matched by failures to reach the server or read its
// response. These are retried.
var ErrTransport = errors.New("transport failure")

// ServerError is a JSON-RPC error returned by the server.
type ServerError struct {
	Err *models.Error
}

func (e ServerError) Error() string {
	return e.Err.Error()
}

func (e ServerError) Code() int {
	return e.Err.Code
}

// Kind returns the failure kind reported by the server, or the empty string
// for protocol errors.
func (e ServerError) Kind() string {
	if e.Err.Data == nil {
		return ""
	}
	return e.Err.Data.Kind
}

// IsServerErrorKind reports whether err is a server error of the given kind.
func IsServerErrorKind(err error, kind string) bool {
	var serverErr ServerError
	if !errors.As(err, &serverErr) {
		return false
	}
	return serverErr.Kind() == kind
}

func transportErrorf(msg string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTransport, fmt.Sprintf(msg, args...))
}
