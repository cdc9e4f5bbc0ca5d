package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
)

const (

	// codes for special database markers
	codeMeta      = 1 // hasher and chain the database was created with
	codeNumLeaves = 2 // number of committed transactions

	// codes for committed history, keyed by version
	codeTransaction     = 10
	codeTransactionInfo = 11

	// codes for frozen accumulator nodes, keyed by (level, index)
	codeAccumulatorNode = 20

	// codes for ledger infos
	codeLedgerInfo       = 30 // keyed by version
	codeLatestLedgerInfo = 31 // version of the latest ledger info
	codeEpochEnding      = 32 // version of the epoch-ending ledger info, keyed by epoch
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case hash.Hash:
		return i[:]
	case accumulator.Position:
		b := make([]byte, 9)
		b[0] = i.Level
		binary.BigEndian.PutUint64(b[1:], i.Index)
		return b
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
