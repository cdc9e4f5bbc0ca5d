package operation

import (
	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/onflow/txhistory/module/irrecoverable"
)

// Values are stored as snappy-compressed msgpack. Failing to encode or decode
// a value means the schema and the data on disk disagree, which no caller can
// recover from.

func encode(entity interface{}) ([]byte, error) {
	val, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, irrecoverable.NewExceptionf("could not encode %T: %w", entity, err)
	}
	return snappy.Encode(nil, val), nil
}

func decode(key []byte, val []byte, entity interface{}) error {
	uncompressed, err := snappy.Decode(nil, val)
	if err != nil {
		return irrecoverable.NewExceptionf("could not uncompress value at key %x: %w", key, err)
	}
	err = msgpack.Unmarshal(uncompressed, entity)
	if err != nil {
		return irrecoverable.NewExceptionf("could not decode %T at key %x: %w", entity, key, err)
	}
	return nil
}
