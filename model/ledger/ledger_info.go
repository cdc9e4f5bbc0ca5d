package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/onflow/flow-go/crypto"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/encoding"
)

// LedgerInfo is a checkpoint binding a version to the root of the
// transaction accumulator after that version.
type LedgerInfo struct {
	Epoch uint64
	Round uint64
	// Version is the version of the last transaction covered, so the
	// accumulator it commits to holds Version+1 leaves.
	Version                    uint64
	TransactionAccumulatorHash hash.Hash
	// Timestamp in microseconds since the unix epoch.
	Timestamp uint64
	// NextEpochState is set on the last ledger info of an epoch and names
	// the validators of the following epoch.
	NextEpochState *EpochState `json:",omitempty" cbor:",omitempty" msgpack:",omitempty"`
}

// EpochState is the validator set trusted for an epoch.
type EpochState struct {
	Epoch      uint64
	Validators ValidatorSet
}

// NumLeaves returns the accumulator size the ledger info commits to.
func (li LedgerInfo) NumLeaves() uint64 {
	return li.Version + 1
}

func (li LedgerInfo) EndsEpoch() bool {
	return li.NextEpochState != nil
}

func (li LedgerInfo) String() string {
	return fmt.Sprintf("epoch=%d round=%d version=%d root=%s", li.Epoch, li.Round, li.Version, li.TransactionAccumulatorHash)
}

type validatorWrapper struct {
	Address     []byte
	SignAlgo    uint
	PublicKey   []byte
	VotingPower uint64
}

type epochStateWrapper struct {
	Epoch      uint64
	Validators []validatorWrapper
}

type ledgerInfoWrapper struct {
	Epoch                      uint64
	Round                      uint64
	Version                    uint64
	TransactionAccumulatorHash []byte
	Timestamp                  uint64
	// zero or one entries
	NextEpochState []epochStateWrapper
}

func wrapLedgerInfo(li LedgerInfo) ledgerInfoWrapper {
	w := ledgerInfoWrapper{
		Epoch:                      li.Epoch,
		Round:                      li.Round,
		Version:                    li.Version,
		TransactionAccumulatorHash: li.TransactionAccumulatorHash[:],
		Timestamp:                  li.Timestamp,
	}
	if li.NextEpochState != nil {
		es := epochStateWrapper{Epoch: li.NextEpochState.Epoch}
		for _, v := range li.NextEpochState.Validators.Validators {
			ev := toEncodable(v)
			es.Validators = append(es.Validators, validatorWrapper{
				Address:     ev.Address[:],
				SignAlgo:    ev.SignAlgo,
				PublicKey:   ev.PublicKey,
				VotingPower: ev.VotingPower,
			})
		}
		w.NextEpochState = []epochStateWrapper{es}
	}
	return w
}

// Encode returns the canonical serialization of the ledger info.
func (li LedgerInfo) Encode() ([]byte, error) {
	w := wrapLedgerInfo(li)
	return rlp.EncodeToBytes(&w)
}

// SigningBytes returns the message validators sign for this ledger info.
func (li LedgerInfo) SigningBytes() ([]byte, error) {
	b, err := li.Encode()
	if err != nil {
		return nil, fmt.Errorf("could not encode ledger info: %w", err)
	}
	return append([]byte(encoding.LedgerInfoTag), b...), nil
}

// Digest hashes the ledger info under the waypoint tag.
func (li LedgerInfo) Digest(hasher hash.Hasher) (hash.Hash, error) {
	b, err := li.Encode()
	if err != nil {
		return hash.DummyHash, fmt.Errorf("could not encode ledger info: %w", err)
	}
	return hasher.Tagged(encoding.WaypointTag, b), nil
}

// ValidatorSignature is a signature over a ledger info by one validator.
type ValidatorSignature struct {
	Signer    Address
	Signature crypto.Signature
}

// LedgerInfoWithSignatures is a ledger info with the validator signatures
// collected for it, sorted by signer.
type LedgerInfoWithSignatures struct {
	LedgerInfo LedgerInfo
	Signatures []ValidatorSignature
}

func NewLedgerInfoWithSignatures(li LedgerInfo) *LedgerInfoWithSignatures {
	return &LedgerInfoWithSignatures{LedgerInfo: li}
}

// AddSignature adds or replaces the signature of signer.
func (l *LedgerInfoWithSignatures) AddSignature(signer Address, sig crypto.Signature) {
	i := sort.Search(len(l.Signatures), func(i int) bool {
		return !l.Signatures[i].Signer.Less(signer)
	})
	if i < len(l.Signatures) && l.Signatures[i].Signer == signer {
		l.Signatures[i].Signature = sig
		return
	}
	l.Signatures = append(l.Signatures, ValidatorSignature{})
	copy(l.Signatures[i+1:], l.Signatures[i:])
	l.Signatures[i] = ValidatorSignature{Signer: signer, Signature: sig}
}

// EpochChangeProof is the chain of epoch-ending ledger infos leading from a
// trusted epoch to a later one.
type EpochChangeProof struct {
	LedgerInfos []LedgerInfoWithSignatures
}

// Waypoint pins a ledger info by version and digest. It is the out-of-band
// trust root a client bootstraps from.
type Waypoint struct {
	Version uint64
	Value   hash.Hash
}

func NewWaypoint(hasher hash.Hasher, li LedgerInfo) (Waypoint, error) {
	digest, err := li.Digest(hasher)
	if err != nil {
		return Waypoint{}, err
	}
	return Waypoint{Version: li.Version, Value: digest}, nil
}

// Matches reports whether li is the ledger info the waypoint pins.
func (w Waypoint) Matches(hasher hash.Hasher, li LedgerInfo) error {
	if li.Version != w.Version {
		return fmt.Errorf("waypoint version %d does not match ledger info version %d", w.Version, li.Version)
	}
	digest, err := li.Digest(hasher)
	if err != nil {
		return err
	}
	if digest != w.Value {
		return fmt.Errorf("waypoint digest %s does not match ledger info digest %s", w.Value, digest)
	}
	return nil
}

// String formats the waypoint as "version:digest".
func (w Waypoint) String() string {
	return fmt.Sprintf("%d:%s", w.Version, w.Value)
}

// ParseWaypoint parses the String form of a waypoint.
func ParseWaypoint(s string) (Waypoint, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Waypoint{}, fmt.Errorf("waypoint %q is not of the form version:digest", s)
	}
	version, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Waypoint{}, fmt.Errorf("invalid waypoint version: %w", err)
	}
	value, err := hash.HexToHash(parts[1])
	if err != nil {
		return Waypoint{}, fmt.Errorf("invalid waypoint digest: %w", err)
	}
	return Waypoint{Version: version, Value: value}, nil
}
