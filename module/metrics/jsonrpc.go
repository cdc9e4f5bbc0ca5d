package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type JSONRPCCollector struct {
	callDuration *prometheus.HistogramVec
	httpDuration *prometheus.HistogramVec
	responseSize prometheus.Histogram
}

func NewJSONRPCCollector(registerer prometheus.Registerer) *JSONRPCCollector {
	factory := promauto.With(registerer)
	return &JSONRPCCollector{
		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "call_duration_seconds",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemJSONRPC,
			Help:      "the duration of JSON-RPC calls by method and result code",
			Buckets:   prometheus.DefBuckets,
		}, []string{LabelMethod, LabelCode}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "http_request_duration_seconds",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemJSONRPC,
			Help:      "the duration of HTTP requests by status code",
			Buckets:   prometheus.DefBuckets,
		}, []string{LabelStatus}),
		responseSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "http_response_size_bytes",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemJSONRPC,
			Help:      "the size of HTTP responses",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}),
	}
}

func (jc *JSONRPCCollector) ObserveRequest(method string, code int, duration time.Duration) {
	jc.callDuration.With(prometheus.Labels{
		LabelMethod: method,
		LabelCode:   strconv.Itoa(code),
	}).Observe(duration.Seconds())
}

func (jc *JSONRPCCollector) ObserveHTTPRequest(status int, duration time.Duration, responseSize int) {
	jc.httpDuration.With(prometheus.Labels{LabelStatus: strconv.Itoa(status)}).Observe(duration.Seconds())
	jc.responseSize.Observe(float64(responseSize))
}
