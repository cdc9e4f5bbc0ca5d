package backend

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/storage"
)

// ErrInvalidRange is matched by every InvalidRangeError.
var ErrInvalidRange = errors.New("invalid range")

// InvalidRangeError is returned for a query the client got wrong: a zero limit,
// or a start version after the latest certified version.
type InvalidRangeError struct {
	err error
}

func NewInvalidRangeError(err error) *InvalidRangeError {
	return &InvalidRangeError{err: err}
}

func NewInvalidRangeErrorf(msg string, args ...interface{}) *InvalidRangeError {
	return &InvalidRangeError{err: fmt.Errorf(msg, args...)}
}

func (e InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range, %s", e.err.Error())
}

func (e InvalidRangeError) Unwrap() error {
	return e.err
}

func (e InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// Error kinds reported to clients and in metrics.
const (
	KindInvalidRange     = "InvalidRange"
	KindRangeOutOfBounds = "RangeOutOfBounds"
	KindMalformedProof   = "MalformedProof"
	KindProofMismatch    = "ProofMismatch"
	KindNotFound         = "NotFound"
	KindCanceled         = "Canceled"
	KindInternal         = "Internal"
)

// ErrorKind classifies err for clients. An InvalidRange wrapping a
// RangeOutOfBounds is reported as InvalidRange.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRange):
		return KindInvalidRange
	case errors.Is(err, accumulator.ErrRangeOutOfBounds):
		return KindRangeOutOfBounds
	case errors.Is(err, accumulator.ErrMalformedProof):
		return KindMalformedProof
	case errors.Is(err, accumulator.ErrProofMismatch):
		return KindProofMismatch
	case errors.Is(err, storage.ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}

// ConvertError maps err to a grpc status error.
func ConvertError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch ErrorKind(err) {
	case KindInvalidRange:
		return status.Errorf(codes.InvalidArgument, "%v", err)
	case KindRangeOutOfBounds:
		return status.Errorf(codes.OutOfRange, "%v", err)
	case KindNotFound:
		return storage.ConvertStorageError(err)
	case KindCanceled:
		if errors.Is(err, context.DeadlineExceeded) {
			return status.Errorf(codes.DeadlineExceeded, "%v", err)
		}
		return status.Errorf(codes.Canceled, "%v", err)
	default:
		return status.Errorf(codes.Internal, "%v", err)
	}
}
