package metrics

import (
	"time"

	"github.com/onflow/txhistory/module"
)

type NoopCollector struct{}

var (
	_ module.CacheMetrics   = (*NoopCollector)(nil)
	_ module.LedgerMetrics  = (*NoopCollector)(nil)
	_ module.AccessMetrics  = (*NoopCollector)(nil)
	_ module.JSONRPCMetrics = (*NoopCollector)(nil)
)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) CacheEntries(resource string, entries uint)                              {}
func (nc *NoopCollector) CacheHit(resource string)                                                {}
func (nc *NoopCollector) CacheNotFound(resource string)                                           {}
func (nc *NoopCollector) CacheMiss(resource string)                                               {}
func (nc *NoopCollector) TransactionsCommitted(count int, numLeaves uint64)                       {}
func (nc *NoopCollector) LedgerInfoCommitted(epoch uint64, version uint64)                        {}
func (nc *NoopCollector) LedgerInfoRejected(reason string)                                        {}
func (nc *NoopCollector) RangeProofGenerated(count uint64, siblings int, duration time.Duration)  {}
func (nc *NoopCollector) QueryFailed(method string, kind string)                                  {}
func (nc *NoopCollector) ObserveRequest(method string, code int, duration time.Duration)          {}
func (nc *NoopCollector) ObserveHTTPRequest(status int, duration time.Duration, responseSize int) {}
