package cbor

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/onflow/txhistory/model/encoding"
)

// EncMode is the CBOR encoding mode used for wire payloads. Core
// deterministic encoding makes equal values produce equal bytes.
var EncMode = func() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	encMode, err := options.EncMode()
	if err != nil {
		panic(fmt.Errorf("could not build cbor encoding mode: %w", err))
	}
	return encMode
}()

// DecMode rejects duplicate map keys and bounds nested containers.
var DecMode = func() cbor.DecMode {
	options := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels:  32,
		MaxArrayElements: 1 << 20,
	}
	decMode, err := options.DecMode()
	if err != nil {
		panic(fmt.Errorf("could not build cbor decoding mode: %w", err))
	}
	return decMode
}()

// Encoder encodes values as deterministic CBOR.
type Encoder struct{}

var _ encoding.Codec = (*Encoder)(nil)

// NewEncoder creates a new CBOR encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Encode(val interface{}) ([]byte, error) {
	return EncMode.Marshal(val)
}

func (e *Encoder) Decode(b []byte, val interface{}) error {
	return DecMode.Unmarshal(b, val)
}

func (e *Encoder) MustEncode(val interface{}) []byte {
	b, err := e.Encode(val)
	if err != nil {
		panic(err)
	}
	return b
}
