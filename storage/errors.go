package storage

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned for a version, accumulator node or ledger info
	// that is not stored. The badger layer translates badger.ErrKeyNotFound
	// into it, callers never see the badger error.
	ErrNotFound = errors.New("not found in storage")

	// ErrAlreadyExists is returned on an attempt to overwrite a stored entry.
	// The history is append-only.
	ErrAlreadyExists = errors.New("entry already stored")

	// ErrDataMismatch is returned when a write does not extend the stored
	// history, or the database was bootstrapped with other parameters.
	ErrDataMismatch = errors.New("data does not match stored history")
)

// ConvertStorageError maps a storage error onto a grpc status. Errors that
// already carry a status are returned unchanged.
func ConvertStorageError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return status.Errorf(codes.NotFound, "%v", err)
	case errors.Is(err, ErrDataMismatch):
		return status.Errorf(codes.FailedPrecondition, "%v", err)
	default:
		return status.Errorf(codes.Internal, "storage failure: %v", err)
	}
}
