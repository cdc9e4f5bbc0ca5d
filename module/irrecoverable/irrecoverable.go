package irrecoverable

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Signaler hands irrecoverable errors to the owner of a component tree. Only
// the first error is delivered, the owner is expected to shut down on it.
type Signaler struct {
	errors chan error
	once   sync.Once
}

func NewSignaler() (*Signaler, <-chan error) {
	errors := make(chan error, 1)
	return &Signaler{errors: errors}, errors
}

// Throw delivers err and terminates the calling goroutine. It is a
// replacement for panic or log.Fatal in goroutines that own no error return.
func (s *Signaler) Throw(err error) {
	s.once.Do(func() {
		s.errors <- err
		close(s.errors)
	})
	runtime.Goexit()
}

// SignalerContext is a context carrying a Signaler.
type SignalerContext interface {
	context.Context
	Throw(err error)
	sealed() // constrains construction to WithSignaler
}

type signalerCtxt struct {
	context.Context
	signaler *Signaler
}

func (sc signalerCtxt) sealed() {}

func (sc signalerCtxt) Throw(err error) {
	sc.signaler.Throw(err)
}

// WithSignaler returns a SignalerContext derived from parent, and the channel
// the first thrown error is delivered on.
func WithSignaler(parent context.Context) (SignalerContext, <-chan error) {
	sig, errors := NewSignaler()
	return signalerCtxt{parent, sig}, errors
}

// Throw throws err on ctx if it is a SignalerContext. Otherwise nobody can
// handle err and the process exits.
func Throw(ctx context.Context, err error) {
	signalerAbleContext, ok := ctx.(SignalerContext)
	if ok {
		signalerAbleContext.Throw(err)
	}
	log.Fatalf("irrecoverable error without signaler: %v", err)
}
