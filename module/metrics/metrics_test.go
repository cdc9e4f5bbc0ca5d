package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/onflow/txhistory/module/metrics"
)

func TestCacheCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCacheCollector(registry)

	collector.CacheHit(metrics.ResourceTransaction)
	collector.CacheHit(metrics.ResourceTransaction)
	collector.CacheMiss(metrics.ResourceTransaction)
	collector.CacheEntries(metrics.ResourceLedgerInfo, 7)

	count, err := testutil.GatherAndCount(registry, "txhistory_badger_hits_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(registry, "txhistory_badger_hits_total", "txhistory_badger_misses_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLedgerAndAccessCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	ledger := metrics.NewLedgerCollector(registry)
	access := metrics.NewAccessCollector(registry)
	jsonrpc := metrics.NewJSONRPCCollector(registry)

	ledger.TransactionsCommitted(10, 10)
	ledger.TransactionsCommitted(5, 15)
	ledger.LedgerInfoCommitted(2, 14)
	ledger.LedgerInfoRejected("root_mismatch")
	access.RangeProofGenerated(100, 12, time.Millisecond)
	access.QueryFailed("get_transactions_with_proofs", "invalid_range")
	jsonrpc.ObserveRequest("get_metadata", 0, time.Millisecond)
	jsonrpc.ObserveHTTPRequest(200, time.Millisecond, 512)

	families, err := registry.Gather()
	assert.NoError(t, err)
	values := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[family.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[family.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, float64(15), values["txhistory_ledger_committed_transactions_total"])
	assert.Equal(t, float64(15), values["txhistory_ledger_accumulator_leaves"])
	assert.Equal(t, float64(14), values["txhistory_ledger_latest_ledger_info_version"])
	assert.Equal(t, float64(1), values["txhistory_ledger_rejected_ledger_infos_total"])
	assert.Equal(t, float64(100), values["txhistory_access_proven_transactions_total"])
	assert.Equal(t, float64(1), values["txhistory_access_failed_queries_total"])
}
