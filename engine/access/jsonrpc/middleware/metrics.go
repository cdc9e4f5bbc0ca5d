package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/onflow/txhistory/module"
)

// MetricsMiddleware reports status, latency and response size of every HTTP
// request to the collector.
func MetricsMiddleware(collector module.JSONRPCMetrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			began := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, req)
			collector.ObserveHTTPRequest(rec.status, time.Since(began), rec.written)
		})
	}
}
