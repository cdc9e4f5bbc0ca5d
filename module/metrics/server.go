package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/onflow/txhistory/module/irrecoverable"
)

const (
	metricsEndpoint = "/metrics"
	shutdownTimeout = 5 * time.Second
)

// Server serves the metrics of a gatherer on /metrics for prometheus scrapes.
type Server struct {
	log    zerolog.Logger
	server *http.Server
}

func NewServer(log zerolog.Logger, address string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle(metricsEndpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))

	return &Server{
		log: log.With().Str("component", "metrics_server").Logger(),
		server: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until ctx is done. The returned channel is closed once the
// server has shut down. Failing to listen is irrecoverable and thrown on ctx.
func (s *Server) Start(ctx irrecoverable.SignalerContext) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		s.log.Info().Str("address", s.server.Addr).Msg("metrics server started")
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ctx.Throw(fmt.Errorf("metrics server failed: %w", err))
		}
	}()

	go func() {
		defer close(done)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := s.server.Shutdown(shutdownCtx)
		if err != nil {
			s.log.Warn().Err(err).Msg("metrics server did not shut down gracefully")
			return
		}
		s.log.Debug().Msg("metrics server shut down")
	}()

	return done
}
