package operation

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/txhistory/storage"
)

// insert stores entity under a key that must not be taken yet. The history
// is append-only, insert is how everything but the markers is written.
//
// Error returns:
//   - storage.ErrAlreadyExists if the key is taken
func insert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return fmt.Errorf("key %x: %w", key, storage.ErrAlreadyExists)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not check key %x: %w", key, err)
		}
		return set(tx, key, entity)
	}
}

// upsert stores entity under key, replacing what was there. Only used for
// markers that move forward with the history.
func upsert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		return set(tx, key, entity)
	}
}

func set(tx *badger.Txn, key []byte, entity interface{}) error {
	val, err := encode(entity)
	if err != nil {
		return err
	}
	err = tx.Set(key, val)
	if err != nil {
		return fmt.Errorf("could not store key %x: %w", key, err)
	}
	return nil
}

// retrieve decodes the value under key into entity, which must be a pointer.
//
// Error returns:
//   - storage.ErrNotFound if nothing is stored under key
//   - irrecoverable exception if the stored value does not decode
func retrieve(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("could not load key %x: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return decode(key, val, entity)
		})
	}
}

// iterate calls handle, in key order, for every value stored under a key with
// the given prefix. handle decodes the value with the function it is passed.
func iterate(prefix []byte, handle func(decode func(entity interface{}) error) error) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		if len(prefix) == 0 {
			return fmt.Errorf("iteration prefix must not be empty")
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := handle(func(entity interface{}) error {
				return item.Value(func(val []byte) error {
					return decode(item.KeyCopy(nil), val, entity)
				})
			})
			if err != nil {
				return err
			}
		}
		return nil
	}
}
