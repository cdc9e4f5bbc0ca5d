package irrecoverable

import (
	"errors"
	"fmt"
)

// exception is an error that the caller is not expected to handle. It marks
// states that are impossible under correct operation, such as a stored value
// that no longer decodes.
type exception struct {
	err error
}

func (e exception) Error() string {
	return e.err.Error()
}

func (e exception) Unwrap() error {
	return e.err
}

// NewException wraps err into an exception.
func NewException(err error) error {
	return exception{err: err}
}

// NewExceptionf is NewException with fmt.Errorf formatting.
func NewExceptionf(msg string, args ...interface{}) error {
	return NewException(fmt.Errorf(msg, args...))
}

func IsException(err error) bool {
	var e exception
	return errors.As(err, &e)
}
