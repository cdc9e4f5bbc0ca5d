package signature

import (
	"errors"
	"fmt"

	"github.com/onflow/txhistory/model/ledger"
)

var (
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrDuplicatedSigner   = errors.New("duplicated signer")
	ErrUnknownSigner      = errors.New("unknown signer")
	ErrInsufficientQuorum = errors.New("insufficient quorum")
	ErrEpochMismatch      = errors.New("epoch mismatch")
)

// UnknownSignerError is returned when a ledger info carries a signature of a
// validator outside the trusted validator set.
type UnknownSignerError struct {
	Signer ledger.Address
	Epoch  uint64
}

func (e UnknownSignerError) Error() string {
	return fmt.Sprintf("signer %s is not a validator of epoch %d", e.Signer, e.Epoch)
}

func (e UnknownSignerError) Is(target error) bool {
	return target == ErrUnknownSigner
}

// InsufficientQuorumError is returned when the valid, distinct signatures of
// a ledger info do not reach the quorum voting power.
type InsufficientQuorumError struct {
	VotingPower uint64
	Required    uint64
	// Discarded holds the reasons signatures were left out of the tally, if any.
	Discarded error
}

func (e InsufficientQuorumError) Error() string {
	msg := fmt.Sprintf("insufficient quorum, voting power %d of required %d", e.VotingPower, e.Required)
	if e.Discarded != nil {
		msg = fmt.Sprintf("%s (discarded: %s)", msg, e.Discarded)
	}
	return msg
}

func (e InsufficientQuorumError) Is(target error) bool {
	return target == ErrInsufficientQuorum
}

func (e InsufficientQuorumError) Unwrap() error {
	return e.Discarded
}

func IsUnknownSignerError(err error) bool {
	return errors.Is(err, ErrUnknownSigner)
}

func IsInsufficientQuorumError(err error) bool {
	return errors.Is(err, ErrInsufficientQuorum)
}
