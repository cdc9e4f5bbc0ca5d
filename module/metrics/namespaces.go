package metrics

// Prometheus metric namespaces
const (
	namespaceTxHistory = "txhistory"
)

// Storage subsystem
const (
	subsystemBadger = "badger"
)

// History subsystems
const (
	subsystemLedger  = "ledger"
	subsystemAccess  = "access"
	subsystemJSONRPC = "jsonrpc"
)
