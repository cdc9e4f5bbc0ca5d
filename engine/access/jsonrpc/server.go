package jsonrpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/onflow/txhistory/engine/access/jsonrpc/middleware"
	"github.com/onflow/txhistory/module"
)

// NewRouter returns the router serving JSON-RPC calls on POST / and a
// health check on GET /health.
func NewRouter(api API, logger zerolog.Logger, collector module.JSONRPCMetrics, maxBatchSize int) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware(collector))

	router.Handle("/", NewHandler(logger, api, collector, maxBatchSize)).Methods(http.MethodPost)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		meta, err := api.GetMetadata(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		_ = json.NewEncoder(w).Encode(map[string]uint64{"version": meta.Version})
	}).Methods(http.MethodGet)

	return router
}

// Config defines the configurable options of the JSON-RPC server.
type Config struct {
	ListenAddress string
	MaxBatchSize  int
	// RateLimit is the number of requests per second served, 0 serves
	// without limit. RateBurst requests may arrive at once.
	RateLimit float64
	RateBurst int
}

// NewServer returns an HTTP server serving the JSON-RPC router, rate limited
// and open to cross-origin requests.
func NewServer(api API, config Config, logger zerolog.Logger, collector module.JSONRPCMetrics) *http.Server {
	router := NewRouter(api, logger, collector, config.MaxBatchSize)

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	return &http.Server{
		Addr:              config.ListenAddress,
		Handler:           c.Handler(middleware.RateLimitMiddleware(limiter)(router)),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
