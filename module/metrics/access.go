package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type AccessCollector struct {
	proofDuration prometheus.Histogram
	proofSiblings prometheus.Histogram
	provenTxs     prometheus.Counter
	failedQueries *prometheus.CounterVec
}

func NewAccessCollector(registerer prometheus.Registerer) *AccessCollector {
	factory := promauto.With(registerer)
	return &AccessCollector{
		proofDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "range_proof_duration_seconds",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemAccess,
			Help:      "the duration of generating a range proof",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		proofSiblings: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "range_proof_siblings",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemAccess,
			Help:      "the number of sibling digests in a range proof",
			Buckets:   prometheus.LinearBuckets(0, 8, 17),
		}),
		provenTxs: factory.NewCounter(prometheus.CounterOpts{
			Name:      "proven_transactions_total",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemAccess,
			Help:      "the number of transactions served with a range proof",
		}),
		failedQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "failed_queries_total",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemAccess,
			Help:      "the number of failed queries by method and error kind",
		}, []string{LabelMethod, LabelKind}),
	}
}

func (ac *AccessCollector) RangeProofGenerated(count uint64, siblings int, duration time.Duration) {
	ac.proofDuration.Observe(duration.Seconds())
	ac.proofSiblings.Observe(float64(siblings))
	ac.provenTxs.Add(float64(count))
}

func (ac *AccessCollector) QueryFailed(method string, kind string) {
	ac.failedQueries.With(prometheus.Labels{LabelMethod: method, LabelKind: kind}).Inc()
}
