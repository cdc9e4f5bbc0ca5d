package ledger

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// AddressLength is the size of an account address in bytes.
const AddressLength = 16

// Address identifies an account. Validators are identified by the address
// of their account.
type Address [AddressLength]byte

// HexToAddress converts a hex string to an Address.
func HexToAddress(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("could not decode address hex: %w", err)
	}
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("expecting %d address bytes but got %d", AddressLength, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// BytesToAddress returns the address with the given bytes right aligned.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) Less(other Address) bool {
	return bytes.Compare(a[:], other[:]) < 0
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	decoded, err := HexToAddress(string(text))
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}
