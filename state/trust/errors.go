package trust

import (
	"errors"
)

var (
	// ErrStaleLedgerInfo is returned for ledger infos older than the trusted version.
	ErrStaleLedgerInfo = errors.New("stale ledger info")
	// ErrEpochChangeRequired is returned when a ledger info is from a later
	// epoch and no epoch change proof leads there.
	ErrEpochChangeRequired = errors.New("epoch change required")
	// ErrInvalidEpochChange is returned for epoch change proofs that do not
	// form a chain of epoch-ending ledger infos from the trusted epoch.
	ErrInvalidEpochChange = errors.New("invalid epoch change proof")
	// ErrWaypointMismatch is returned when the bootstrap ledger info does not
	// match the waypoint.
	ErrWaypointMismatch = errors.New("waypoint mismatch")
)
