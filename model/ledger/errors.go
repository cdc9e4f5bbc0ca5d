package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is returned when a transaction or its execution
	// metadata cannot be brought into canonical form.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidValidatorSet is returned for validator sets that are empty,
	// unsorted, hold duplicates or zero voting power.
	ErrInvalidValidatorSet = errors.New("invalid validator set")
)

// NewMalformedInputErrorf wraps ErrMalformedInput with context.
func NewMalformedInputErrorf(msg string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(msg, args...), ErrMalformedInput)
}

func IsMalformedInputError(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}
