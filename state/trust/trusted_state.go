package trust

import (
	"fmt"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
)

// Verifier checks a ledger info against a trusted epoch state.
type Verifier interface {
	VerifyLedgerInfo(liws *ledger.LedgerInfoWithSignatures, state ledger.EpochState) error
}

// TrustedState is what a client trusts at a point of the ledger history: a
// verified version, the accumulator root at that version, and the validator
// set of the current epoch. A TrustedState is an immutable value, verifying
// newer data yields a new TrustedState.
type TrustedState struct {
	Version         uint64
	AccumulatorRoot hash.Hash
	EpochState      ledger.EpochState
}

// FromWaypoint bootstraps trust from an epoch-ending ledger info pinned by
// an out-of-band waypoint. The ledger info needs no signatures, the waypoint
// vouches for it, and its next epoch state becomes the trusted validator set.
func FromWaypoint(hasher hash.Hasher, waypoint ledger.Waypoint, li ledger.LedgerInfo) (TrustedState, error) {
	err := waypoint.Matches(hasher, li)
	if err != nil {
		return TrustedState{}, fmt.Errorf("%s: %w", err, ErrWaypointMismatch)
	}
	if !li.EndsEpoch() {
		return TrustedState{}, fmt.Errorf("waypoint ledger info at version %d does not end an epoch: %w", li.Version, ErrInvalidEpochChange)
	}
	err = li.NextEpochState.Validators.Validate()
	if err != nil {
		return TrustedState{}, fmt.Errorf("waypoint names an invalid validator set: %w", err)
	}
	return TrustedState{
		Version:         li.Version,
		AccumulatorRoot: li.TransactionAccumulatorHash,
		EpochState:      *li.NextEpochState,
	}, nil
}

func (ts TrustedState) Epoch() uint64 {
	return ts.EpochState.Epoch
}

// NeedsEpochChange reports whether li is from an epoch after the trusted one.
func (ts TrustedState) NeedsEpochChange(li ledger.LedgerInfo) bool {
	return li.Epoch > ts.EpochState.Epoch
}

// VerifyAndRatchet walks the epoch change proof from the trusted epoch,
// then verifies liws with the resulting validator set. It returns the state
// trusted after liws, the receiver is left untouched.
//
// Expected errors:
//   - ErrInvalidEpochChange if the change proof does not chain from the trusted epoch
//   - ErrEpochChangeRequired if liws is from a later epoch than the proof reaches
//   - ErrStaleLedgerInfo if liws is older than the trusted version
//   - any error of the Verifier
func (ts TrustedState) VerifyAndRatchet(verifier Verifier, liws *ledger.LedgerInfoWithSignatures, change *ledger.EpochChangeProof) (TrustedState, error) {
	next := ts

	if change != nil {
		for i := range change.LedgerInfos {
			epochLI := &change.LedgerInfos[i]
			info := epochLI.LedgerInfo

			// proofs may start before the trusted epoch
			if info.Epoch < next.EpochState.Epoch {
				continue
			}
			if info.Epoch > next.EpochState.Epoch {
				return ts, fmt.Errorf("epoch change proof skips from epoch %d to %d: %w", next.EpochState.Epoch, info.Epoch, ErrInvalidEpochChange)
			}
			if !info.EndsEpoch() {
				return ts, fmt.Errorf("ledger info at version %d does not end epoch %d: %w", info.Version, info.Epoch, ErrInvalidEpochChange)
			}
			if info.NextEpochState.Epoch != info.Epoch+1 {
				return ts, fmt.Errorf("epoch %d names next epoch %d: %w", info.Epoch, info.NextEpochState.Epoch, ErrInvalidEpochChange)
			}
			err := verifier.VerifyLedgerInfo(epochLI, next.EpochState)
			if err != nil {
				return ts, fmt.Errorf("could not verify end of epoch %d: %w", info.Epoch, err)
			}
			err = info.NextEpochState.Validators.Validate()
			if err != nil {
				return ts, fmt.Errorf("epoch %d names an invalid validator set: %w", info.NextEpochState.Epoch, err)
			}
			if info.Version >= next.Version {
				next.Version = info.Version
				next.AccumulatorRoot = info.TransactionAccumulatorHash
			}
			next.EpochState = *info.NextEpochState
		}
	}

	info := liws.LedgerInfo
	if info.Epoch > next.EpochState.Epoch {
		return ts, fmt.Errorf("ledger info of epoch %d, trusted epoch %d: %w", info.Epoch, next.EpochState.Epoch, ErrEpochChangeRequired)
	}
	if info.Version < next.Version {
		return ts, fmt.Errorf("ledger info version %d below trusted version %d: %w", info.Version, next.Version, ErrStaleLedgerInfo)
	}

	// an epoch-ending ledger info of a past epoch can only be re-verified with
	// its own validator set, which is no longer trusted
	if info.Epoch < next.EpochState.Epoch {
		if info.Version == next.Version && info.TransactionAccumulatorHash == next.AccumulatorRoot {
			return next, nil
		}
		return ts, fmt.Errorf("ledger info of past epoch %d at version %d: %w", info.Epoch, info.Version, ErrStaleLedgerInfo)
	}

	err := verifier.VerifyLedgerInfo(liws, next.EpochState)
	if err != nil {
		return ts, fmt.Errorf("could not verify ledger info at version %d: %w", info.Version, err)
	}

	next.Version = info.Version
	next.AccumulatorRoot = info.TransactionAccumulatorHash
	if info.EndsEpoch() {
		err = info.NextEpochState.Validators.Validate()
		if err != nil {
			return ts, fmt.Errorf("epoch %d names an invalid validator set: %w", info.NextEpochState.Epoch, err)
		}
		next.EpochState = *info.NextEpochState
	}
	return next, nil
}
