package accumulator

import (
	"errors"
	"fmt"
)

var (
	// ErrRangeOutOfBounds is matched by every RangeOutOfBoundsError.
	ErrRangeOutOfBounds = errors.New("range out of bounds")
	// ErrMalformedProof is matched by every MalformedProofError.
	ErrMalformedProof = errors.New("malformed proof")
	// ErrProofMismatch is matched by every ProofMismatchError.
	ErrProofMismatch = errors.New("proof mismatch")
	// ErrNodeNotFound is returned by readers that do not hold a requested frozen node.
	ErrNodeNotFound = errors.New("frozen node not found")
)

// RangeOutOfBoundsError is returned when a requested window reaches past the
// number of leaves the accumulator (or the claimed checkpoint) holds.
type RangeOutOfBoundsError struct {
	err error
}

// NewRangeOutOfBoundsErrorf constructs a new RangeOutOfBoundsError
func NewRangeOutOfBoundsErrorf(msg string, args ...interface{}) *RangeOutOfBoundsError {
	return &RangeOutOfBoundsError{err: fmt.Errorf(msg, args...)}
}

func (e RangeOutOfBoundsError) Error() string {
	return fmt.Sprintf("range out of bounds, %s", e.err.Error())
}

// Unwrap unwraps the error
func (e RangeOutOfBoundsError) Unwrap() error {
	return e.err
}

func (e RangeOutOfBoundsError) Is(target error) bool {
	return target == ErrRangeOutOfBounds
}

// MalformedProofError is returned when the shape of a proof is inconsistent
// with the (start, count, frozenAt) triple it claims to prove.
type MalformedProofError struct {
	err error
}

// NewMalformedProofErrorf constructs a new MalformedProofError
func NewMalformedProofErrorf(msg string, args ...interface{}) *MalformedProofError {
	return &MalformedProofError{err: fmt.Errorf(msg, args...)}
}

func (e MalformedProofError) Error() string {
	return fmt.Sprintf("malformed proof, %s", e.err.Error())
}

// Unwrap unwraps the error
func (e MalformedProofError) Unwrap() error {
	return e.err
}

func (e MalformedProofError) Is(target error) bool {
	return target == ErrMalformedProof
}

// ProofMismatchError is returned when a structurally valid proof recomputes
// a root that differs from the expected one.
type ProofMismatchError struct {
	Expected string
	Computed string
}

func NewProofMismatchError(expected, computed fmt.Stringer) *ProofMismatchError {
	return &ProofMismatchError{Expected: expected.String(), Computed: computed.String()}
}

func (e ProofMismatchError) Error() string {
	return fmt.Sprintf("proof mismatch, expected root %s but computed %s", e.Expected, e.Computed)
}

func (e ProofMismatchError) Is(target error) bool {
	return target == ErrProofMismatch
}

func IsRangeOutOfBoundsError(err error) bool {
	return errors.Is(err, ErrRangeOutOfBounds)
}

func IsMalformedProofError(err error) bool {
	return errors.Is(err, ErrMalformedProof)
}

func IsProofMismatchError(err error) bool {
	return errors.Is(err, ErrProofMismatch)
}
