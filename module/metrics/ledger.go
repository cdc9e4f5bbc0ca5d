package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type LedgerCollector struct {
	committedTransactions prometheus.Counter
	numLeaves             prometheus.Gauge
	latestVersion         prometheus.Gauge
	currentEpoch          prometheus.Gauge
	rejectedLedgerInfos   *prometheus.CounterVec
}

func NewLedgerCollector(registerer prometheus.Registerer) *LedgerCollector {
	factory := promauto.With(registerer)
	return &LedgerCollector{
		committedTransactions: factory.NewCounter(prometheus.CounterOpts{
			Name:      "committed_transactions_total",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemLedger,
			Help:      "the number of transactions appended to the accumulator",
		}),
		numLeaves: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "accumulator_leaves",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemLedger,
			Help:      "the number of leaves of the transaction accumulator",
		}),
		latestVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "latest_ledger_info_version",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemLedger,
			Help:      "the version of the latest accepted ledger info",
		}),
		currentEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "epoch",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemLedger,
			Help:      "the epoch of the latest accepted ledger info",
		}),
		rejectedLedgerInfos: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "rejected_ledger_infos_total",
			Namespace: namespaceTxHistory,
			Subsystem: subsystemLedger,
			Help:      "the number of ledger infos refused by the committer",
		}, []string{LabelReason}),
	}
}

func (lc *LedgerCollector) TransactionsCommitted(count int, numLeaves uint64) {
	lc.committedTransactions.Add(float64(count))
	lc.numLeaves.Set(float64(numLeaves))
}

func (lc *LedgerCollector) LedgerInfoCommitted(epoch uint64, version uint64) {
	lc.currentEpoch.Set(float64(epoch))
	lc.latestVersion.Set(float64(version))
}

func (lc *LedgerCollector) LedgerInfoRejected(reason string) {
	lc.rejectedLedgerInfos.With(prometheus.Labels{LabelReason: reason}).Inc()
}
