package repositories

import (
	"encoding/json"
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"
)

// readJSON loads key into v. It reports false when the key does not exist.
func readJSON(txn *badger.Txn, key string, v any) (bool, error) {
	item, err := txn.Get([]byte(key))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return unmarshal(val, v)
	})
}

func unmarshal(val []byte, v any) error {
	return json.Unmarshal(val, v)
}

func writeJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// scanPrefix calls fn with the raw value of every key under prefix, in key order
// (reverse order when reverse is set). Returning false from fn stops the scan.
func scanPrefix(txn *badger.Txn, prefix string, reverse bool, fn func(key, val []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.Reverse = reverse
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := []byte(prefix)
	if reverse {
		// 0xFF sorts after every printable key suffix.
		seek = append(seek, 0xFF)
	}
	for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
		item := it.Item()
		var (
			more bool
			err  error
		)
		key := item.KeyCopy(nil)
		if verr := item.Value(func(val []byte) error {
			more, err = fn(key, val)
			return nil
		}); verr != nil {
			return verr
		}
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}
