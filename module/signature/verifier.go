package signature

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/onflow/txhistory/model/ledger"
)

// QuorumTally is the outcome of checking the signatures of a ledger info.
type QuorumTally struct {
	VotingPower uint64
	Required    uint64
	Signers     []ledger.Address
	// Discarded collects the signatures left out of the tally: duplicates
	// and signatures that did not verify. Nil if every signature counted.
	Discarded error
}

func (t QuorumTally) Reached() bool {
	return t.VotingPower >= t.Required
}

// ValidatorVerifier checks that a ledger info is signed by a quorum of a
// trusted validator set. It never trusts the set carried by the ledger info
// itself, the set is always supplied by the caller.
type ValidatorVerifier struct {
	threshold   ledger.QuorumThreshold
	parallelism int
}

func NewValidatorVerifier(threshold ledger.QuorumThreshold) (*ValidatorVerifier, error) {
	err := threshold.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid quorum threshold: %w", err)
	}
	return &ValidatorVerifier{
		threshold:   threshold,
		parallelism: runtime.NumCPU(),
	}, nil
}

func (v *ValidatorVerifier) Threshold() ledger.QuorumThreshold {
	return v.threshold
}

// VerifyLedgerInfo succeeds if the valid signatures of distinct validators in
// set carry more than the threshold fraction of the set's voting power.
//
// Expected errors:
//   - UnknownSignerError if a signer is not part of set
//   - InsufficientQuorumError if the quorum is not reached
func (v *ValidatorVerifier) VerifyLedgerInfo(liws *ledger.LedgerInfoWithSignatures, set ledger.EpochState) error {
	tally, err := v.Tally(liws, set)
	if err != nil {
		return err
	}
	if !tally.Reached() {
		return InsufficientQuorumError{
			VotingPower: tally.VotingPower,
			Required:    tally.Required,
			Discarded:   tally.Discarded,
		}
	}
	return nil
}

// Tally verifies every signature independently and sums the voting power of
// the valid ones. Signatures are checked concurrently, results only meet at
// the final sum.
func (v *ValidatorVerifier) Tally(liws *ledger.LedgerInfoWithSignatures, set ledger.EpochState) (QuorumTally, error) {
	tally := QuorumTally{Required: set.Validators.QuorumVotingPower(v.threshold)}

	if liws.LedgerInfo.Epoch != set.Epoch {
		return tally, fmt.Errorf("ledger info of epoch %d, validators of epoch %d: %w", liws.LedgerInfo.Epoch, set.Epoch, ErrEpochMismatch)
	}
	msg, err := liws.LedgerInfo.SigningBytes()
	if err != nil {
		return tally, err
	}

	var discarded *multierror.Error
	validators := make([]ledger.ValidatorInfo, 0, len(liws.Signatures))
	signatures := make([]ledger.ValidatorSignature, 0, len(liws.Signatures))
	seen := make(map[ledger.Address]struct{}, len(liws.Signatures))
	for _, sig := range liws.Signatures {
		if _, ok := seen[sig.Signer]; ok {
			discarded = multierror.Append(discarded, fmt.Errorf("signer %s: %w", sig.Signer, ErrDuplicatedSigner))
			continue
		}
		seen[sig.Signer] = struct{}{}

		validator, ok := set.Validators.ByAddress(sig.Signer)
		if !ok {
			return tally, UnknownSignerError{Signer: sig.Signer, Epoch: set.Epoch}
		}
		validators = append(validators, validator)
		signatures = append(signatures, sig)
	}

	valid := make([]bool, len(signatures))
	failures := make([]error, len(signatures))
	var g errgroup.Group
	g.SetLimit(v.parallelism)
	for i := range signatures {
		i := i
		g.Go(func() error {
			ok, err := validators[i].PublicKey.Verify(signatures[i].Signature, msg, NewLedgerInfoHasher())
			switch {
			case err != nil:
				failures[i] = fmt.Errorf("signer %s: %v: %w", signatures[i].Signer, err, ErrInvalidSignature)
			case !ok:
				failures[i] = fmt.Errorf("signer %s: %w", signatures[i].Signer, ErrInvalidSignature)
			default:
				valid[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, ok := range valid {
		if !ok {
			discarded = multierror.Append(discarded, failures[i])
			continue
		}
		tally.VotingPower += validators[i].VotingPower
		tally.Signers = append(tally.Signers, signatures[i].Signer)
	}
	tally.Discarded = discarded.ErrorOrNil()
	return tally, nil
}
