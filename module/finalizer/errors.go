package finalizer

import "errors"

var (
	// ErrNotBootstrapped is returned when opening a database without history.
	ErrNotBootstrapped = errors.New("database not bootstrapped")

	// ErrAlreadyBootstrapped is returned when bootstrapping a database with history.
	ErrAlreadyBootstrapped = errors.New("database already bootstrapped")

	// ErrRootMismatch is returned for a ledger info whose accumulator root is
	// not the root of the committed history at its version.
	ErrRootMismatch = errors.New("accumulator root mismatch")

	// ErrVersionNotCommitted is returned for a ledger info certifying
	// transactions that are not committed yet.
	ErrVersionNotCommitted = errors.New("version not committed")

	// ErrOutdatedLedgerInfo is returned for a ledger info not newer than the latest one.
	ErrOutdatedLedgerInfo = errors.New("outdated ledger info")

	// ErrInvalidEpochState is returned for an epoch-ending ledger info whose
	// next epoch state does not follow the current epoch.
	ErrInvalidEpochState = errors.New("invalid next epoch state")
)
