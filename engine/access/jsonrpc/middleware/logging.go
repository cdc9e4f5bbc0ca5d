package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the id a request is logged with. A request without
// one is assigned a random id, which is returned in the response.
const RequestIDHeader = "X-Request-Id"

// LoggingMiddleware logs every HTTP request. Server errors are logged at
// error level, client errors at warn level and everything else at debug.
// Individual JSON-RPC calls are logged by the handler.
func LoggingMiddleware(logger zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			began := time.Now()
			id := req.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			rec := record(w)
			next.ServeHTTP(rec, req)

			var event *zerolog.Event
			switch {
			case rec.status >= http.StatusInternalServerError:
				event = logger.Error()
			case rec.status >= http.StatusBadRequest:
				event = logger.Warn()
			default:
				event = logger.Debug()
			}
			event.Str("request_id", id).
				Str("http_method", req.Method).
				Str("path", req.URL.Path).
				Str("remote", req.RemoteAddr).
				Int("status", rec.status).
				Int("bytes", rec.written).
				Dur("duration", time.Since(began)).
				Msg("http request served")
		})
	}
}
