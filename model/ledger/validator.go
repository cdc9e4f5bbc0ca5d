package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/vmihailenco/msgpack/v4"

	"github.com/onflow/flow-go/crypto"

	"github.com/onflow/txhistory/model/encoding/cbor"
)

// ValidatorInfo is a validator of an epoch together with its voting power.
type ValidatorInfo struct {
	Address     Address
	PublicKey   crypto.PublicKey
	VotingPower uint64
}

func (v ValidatorInfo) String() string {
	return fmt.Sprintf("%s=%d", v.Address, v.VotingPower)
}

type encodableValidator struct {
	Address     Address
	SignAlgo    uint
	PublicKey   []byte
	VotingPower uint64
}

func toEncodable(v ValidatorInfo) encodableValidator {
	ev := encodableValidator{Address: v.Address, VotingPower: v.VotingPower}
	if v.PublicKey != nil {
		ev.SignAlgo = uint(v.PublicKey.Algorithm())
		ev.PublicKey = v.PublicKey.Encode()
	}
	return ev
}

func fromEncodable(ev encodableValidator, v *ValidatorInfo) error {
	v.Address = ev.Address
	v.VotingPower = ev.VotingPower
	v.PublicKey = nil
	if ev.PublicKey != nil {
		key, err := crypto.DecodePublicKey(crypto.SigningAlgorithm(ev.SignAlgo), ev.PublicKey)
		if err != nil {
			return fmt.Errorf("could not decode public key of %s: %w", ev.Address, err)
		}
		v.PublicKey = key
	}
	return nil
}

func (v ValidatorInfo) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(toEncodable(v))
	if err != nil {
		return nil, fmt.Errorf("could not encode json: %w", err)
	}
	return data, nil
}

func (v *ValidatorInfo) UnmarshalJSON(b []byte) error {
	var ev encodableValidator
	err := json.Unmarshal(b, &ev)
	if err != nil {
		return fmt.Errorf("could not decode json: %w", err)
	}
	return fromEncodable(ev, v)
}

func (v ValidatorInfo) MarshalMsgpack() ([]byte, error) {
	data, err := msgpack.Marshal(toEncodable(v))
	if err != nil {
		return nil, fmt.Errorf("could not encode msgpack: %w", err)
	}
	return data, nil
}

func (v *ValidatorInfo) UnmarshalMsgpack(b []byte) error {
	var ev encodableValidator
	err := msgpack.Unmarshal(b, &ev)
	if err != nil {
		return fmt.Errorf("could not decode msgpack: %w", err)
	}
	return fromEncodable(ev, v)
}

func (v ValidatorInfo) MarshalCBOR() ([]byte, error) {
	data, err := cbor.EncMode.Marshal(toEncodable(v))
	if err != nil {
		return nil, fmt.Errorf("could not encode cbor: %w", err)
	}
	return data, nil
}

func (v *ValidatorInfo) UnmarshalCBOR(b []byte) error {
	var ev encodableValidator
	err := cbor.DecMode.Unmarshal(b, &ev)
	if err != nil {
		return fmt.Errorf("could not decode cbor: %w", err)
	}
	return fromEncodable(ev, v)
}

// ValidatorSet is the list of validators of an epoch, sorted by address.
type ValidatorSet struct {
	Validators []ValidatorInfo
}

// NewValidatorSet sorts the validators by address and validates the set.
func NewValidatorSet(validators []ValidatorInfo) (ValidatorSet, error) {
	sorted := make([]ValidatorInfo, len(validators))
	copy(sorted, validators)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Address.Less(sorted[j].Address)
	})
	set := ValidatorSet{Validators: sorted}
	err := set.Validate()
	if err != nil {
		return ValidatorSet{}, err
	}
	return set, nil
}

// Validate checks the set is non-empty, sorted by address without duplicates,
// every validator has a key and positive voting power, and the total voting
// power fits in a uint64.
func (vs ValidatorSet) Validate() error {
	if len(vs.Validators) == 0 {
		return fmt.Errorf("empty set: %w", ErrInvalidValidatorSet)
	}
	var total uint64
	for i, v := range vs.Validators {
		if i > 0 && !vs.Validators[i-1].Address.Less(v.Address) {
			return fmt.Errorf("validator %s out of order or duplicated: %w", v.Address, ErrInvalidValidatorSet)
		}
		if v.PublicKey == nil {
			return fmt.Errorf("validator %s has no public key: %w", v.Address, ErrInvalidValidatorSet)
		}
		if v.VotingPower == 0 {
			return fmt.Errorf("validator %s has no voting power: %w", v.Address, ErrInvalidValidatorSet)
		}
		if total > math.MaxUint64-v.VotingPower {
			return fmt.Errorf("total voting power overflows: %w", ErrInvalidValidatorSet)
		}
		total += v.VotingPower
	}
	return nil
}

func (vs ValidatorSet) Len() int {
	return len(vs.Validators)
}

// ByAddress looks up a validator in the sorted set.
func (vs ValidatorSet) ByAddress(address Address) (ValidatorInfo, bool) {
	i := sort.Search(len(vs.Validators), func(i int) bool {
		return !vs.Validators[i].Address.Less(address)
	})
	if i < len(vs.Validators) && vs.Validators[i].Address == address {
		return vs.Validators[i], true
	}
	return ValidatorInfo{}, false
}

// TotalVotingPower sums the voting power of all validators. The sum is
// bounded by Validate.
func (vs ValidatorSet) TotalVotingPower() uint64 {
	var total uint64
	for _, v := range vs.Validators {
		total += v.VotingPower
	}
	return total
}

// QuorumVotingPower is the smallest voting power that exceeds the threshold
// fraction of the total voting power.
func (vs ValidatorSet) QuorumVotingPower(threshold QuorumThreshold) uint64 {
	return threshold.QuorumOf(vs.TotalVotingPower())
}

// QuorumThreshold is the fraction of total voting power that a quorum must
// strictly exceed.
type QuorumThreshold struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultQuorumThreshold tolerates f byzantine validators out of 3f+1.
var DefaultQuorumThreshold = QuorumThreshold{Numerator: 2, Denominator: 3}

func (q QuorumThreshold) Validate() error {
	if q.Denominator == 0 || q.Numerator == 0 || q.Numerator > q.Denominator {
		return fmt.Errorf("quorum threshold %d/%d must be in (0, 1]", q.Numerator, q.Denominator)
	}
	return nil
}

// QuorumOf returns floor(total * numerator / denominator) + 1, computed
// without overflowing the intermediate product. The threshold must be valid.
func (q QuorumThreshold) QuorumOf(total uint64) uint64 {
	hi, lo := bits.Mul64(total, q.Numerator)
	quotient, _ := bits.Div64(hi, lo, q.Denominator)
	if quotient == math.MaxUint64 {
		return quotient
	}
	return quotient + 1
}

func (q QuorumThreshold) String() string {
	return fmt.Sprintf("%d/%d", q.Numerator, q.Denominator)
}
