package irrecoverable_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/txhistory/module/irrecoverable"
)

func TestThrowDeliversFirstError(t *testing.T) {
	ctx, errs := irrecoverable.WithSignaler(context.Background())
	first := errors.New("first")

	reached := make(chan struct{}, 2)
	for _, err := range []error{first, errors.New("second")} {
		done := make(chan struct{})
		go func(err error) {
			defer close(done)
			irrecoverable.Throw(ctx, err)
			reached <- struct{}{}
		}(err)
		<-done
	}

	select {
	case err := <-errs:
		assert.Equal(t, first, err)
	case <-time.After(time.Second):
		require.Fail(t, "no error delivered")
	}
	_, open := <-errs
	assert.False(t, open)
	assert.Empty(t, reached, "throw must not return")
}

func TestException(t *testing.T) {
	cause := errors.New("corrupted")
	err := fmt.Errorf("reading: %w", irrecoverable.NewException(cause))
	assert.True(t, irrecoverable.IsException(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, irrecoverable.IsException(cause))
}
