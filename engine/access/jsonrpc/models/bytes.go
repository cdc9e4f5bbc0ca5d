package models

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// BytesView is a byte string rendered as lowercase hex in JSON.
type BytesView []byte

func (b BytesView) String() string {
	return hex.EncodeToString(b)
}

func (b BytesView) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *BytesView) UnmarshalJSON(data []byte) error {
	var s string
	err := json.Unmarshal(data, &s)
	if err != nil {
		return fmt.Errorf("bytes view is not a string: %w", err)
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("bytes view is not hex: %w", err)
	}
	*b = decoded
	return nil
}
