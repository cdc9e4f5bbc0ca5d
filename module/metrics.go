package module

import (
	"time"
)

type CacheMetrics interface {
	// CacheEntries report the total number of cached items
	CacheEntries(resource string, entries uint)
	// CacheHit report the number of times the queried item is found in the cache
	CacheHit(resource string)
	// CacheNotFound records the number of times the queried item was not found in either cache or database.
	CacheNotFound(resource string)
	// CacheMiss report the number of times the queried item is not found in the cache, but found in the database.
	CacheMiss(resource string)
}

// LedgerMetrics covers the append path of the transaction history.
type LedgerMetrics interface {
	// TransactionsCommitted reports a committed batch and the resulting
	// number of accumulator leaves.
	TransactionsCommitted(count int, numLeaves uint64)
	// LedgerInfoCommitted reports a newly accepted ledger info.
	LedgerInfoCommitted(epoch uint64, version uint64)
	// LedgerInfoRejected reports a ledger info the committer refused.
	LedgerInfoRejected(reason string)
}

// AccessMetrics covers the query side of the transaction history.
type AccessMetrics interface {
	// RangeProofGenerated reports a generated range proof.
	RangeProofGenerated(count uint64, siblings int, duration time.Duration)
	// QueryFailed reports a failed query with its error kind.
	QueryFailed(method string, kind string)
}

// JSONRPCMetrics covers the JSON-RPC transport.
type JSONRPCMetrics interface {
	// ObserveRequest reports a handled JSON-RPC call.
	ObserveRequest(method string, code int, duration time.Duration)
	// ObserveHTTPRequest reports a handled HTTP request.
	ObserveHTTPRequest(status int, duration time.Duration, responseSize int)
}
