package encoding

// Codec converts values to and from the bytes carried in wire payloads.
// Implementations are deterministic, equal values encode to equal bytes.
type Codec interface {
	Encode(interface{}) ([]byte, error)
	Decode([]byte, interface{}) error

	// MustEncode panics if val cannot be encoded. It is meant for values
	// whose types the codec is known to support.
	MustEncode(val interface{}) []byte
}
