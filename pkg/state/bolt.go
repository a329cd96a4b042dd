package state

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"
)

// BoltStore persists records in a BoltDB file. Each value is an 8-byte
// big-endian version followed by the zstd-compressed payload.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the store file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open bolt store: path is required")
	}
	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open bolt store: %w", err)
		}
	}

	db, err := bolt.Open(cleaned, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func encodeRecord(data []byte, version uint64) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	out := make([]byte, 8, 8+len(data))
	binary.BigEndian.PutUint64(out, version)
	return enc.EncodeAll(data, out), nil
}

func decodeRecord(raw []byte) ([]byte, uint64, error) {
	if len(raw) < 8 {
		return nil, 0, fmt.Errorf("record too short (%d bytes)", len(raw))
	}
	version := binary.BigEndian.Uint64(raw[:8])

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, 0, err
	}
	defer dec.Close()

	data, err := dec.DecodeAll(raw[8:], nil)
	if err != nil {
		return nil, 0, fmt.Errorf("decompress record: %w", err)
	}
	return data, version, nil
}

// Get returns the record payload and its current version.
func (s *BoltStore) Get(bucket, key string) ([]byte, uint64, error) {
	var data []byte
	var version uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
		}
		var err error
		data, version, err = decodeRecord(raw)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return data, version, nil
}

// Put writes the record if expect matches the stored version (0 for a new
// record) and returns the incremented version.
func (s *BoltStore) Put(bucket, key string, data []byte, expect uint64) (uint64, error) {
	var next uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}

		var current uint64
		if raw := b.Get([]byte(key)); raw != nil {
			_, current, err = decodeRecord(raw)
			if err != nil {
				return err
			}
		}
		if current != expect {
			return fmt.Errorf("put %s/%s: have v%d, expected v%d: %w", bucket, key, current, expect, ErrStaleVersion)
		}

		next = current + 1
		encoded, err := encodeRecord(data, next)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), encoded)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Delete removes the record if expect matches its version.
func (s *BoltStore) Delete(bucket, key string, expect uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("delete %s/%s: %w", bucket, key, ErrNotFound)
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("delete %s/%s: %w", bucket, key, ErrNotFound)
		}
		_, current, err := decodeRecord(raw)
		if err != nil {
			return err
		}
		if current != expect {
			return fmt.Errorf("delete %s/%s: have v%d, expected v%d: %w", bucket, key, current, expect, ErrStaleVersion)
		}
		return b.Delete([]byte(key))
	})
}

// Keys lists the keys in a bucket, sorted.
func (s *BoltStore) Keys(bucket string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
