package encoding

// List of domain separation tags.
//
// Every digest that is signed or compared across the wire is computed over a
// domain tag followed by the canonical encoding of the object. The tag scopes
// the digest to the type of the object, so bytes of one type can never be
// replayed as bytes of another type.

func tag(domain string) string {
	return protocolPrefix + domain
}

// protocol version and prefix
const protocolPrefix = "TXH-V0.0_"

var (
	// TransactionTag is used to hash serialized transactions
	TransactionTag = tag("Transaction")
	// TransactionInfoTag is used to hash transaction infos into accumulator leaves
	TransactionInfoTag = tag("Transaction-Info")
	// LedgerInfoTag is used for validator signatures over ledger infos
	LedgerInfoTag = tag("Ledger-Info")
	// WaypointTag is used to hash ledger infos into waypoints
	WaypointTag = tag("Waypoint")
	// EventTag is used to hash execution events into event roots
	EventTag = tag("Event")
)
