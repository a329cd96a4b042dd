package state

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := NewBoltStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return map[string]Store{"memory": NewMemoryStore(), "bolt": b}
}

// Test 1: put/get round-trip with version increments.
func TestStore_PutGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			v1, err := s.Put("repos", "r1", []byte(`{"name":"one"}`), 0)
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if v1 != 1 {
				t.Errorf("first version = %d, want 1", v1)
			}

			data, v, err := s.Get("repos", "r1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(data, []byte(`{"name":"one"}`)) || v != 1 {
				t.Errorf("Get = (%s, %d)", data, v)
			}

			v2, err := s.Put("repos", "r1", []byte(`{"name":"two"}`), v1)
			if err != nil {
				t.Fatalf("Put v2: %v", err)
			}
			if v2 != 2 {
				t.Errorf("second version = %d, want 2", v2)
			}
		})
	}
}

// Test 2: a stale expected version is rejected and changes nothing.
func TestStore_StaleVersion(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Put("repos", "r1", []byte("a"), 0); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if _, err := s.Put("repos", "r1", []byte("b"), 1); err != nil {
				t.Fatalf("Put: %v", err)
			}

			// A writer that read version 1 loses the race.
			_, err := s.Put("repos", "r1", []byte("c"), 1)
			if !errors.Is(err, ErrStaleVersion) {
				t.Fatalf("Put stale: err = %v, want ErrStaleVersion", err)
			}

			data, v, err := s.Get("repos", "r1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(data) != "b" || v != 2 {
				t.Errorf("record changed by stale write: (%s, %d)", data, v)
			}

			// Create-only semantics: expect=0 on an existing record fails.
			if _, err := s.Put("repos", "r1", []byte("d"), 0); !errors.Is(err, ErrStaleVersion) {
				t.Errorf("Put expect=0 on existing: err = %v, want ErrStaleVersion", err)
			}
		})
	}
}

// Test 3: delete honors versions; missing records are ErrNotFound.
func TestStore_Delete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Put("refs", "main", []byte("x"), 0); err != nil {
				t.Fatalf("Put: %v", err)
			}

			if err := s.Delete("refs", "main", 99); !errors.Is(err, ErrStaleVersion) {
				t.Fatalf("Delete stale: err = %v, want ErrStaleVersion", err)
			}
			if err := s.Delete("refs", "main", 1); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, _, err := s.Get("refs", "main"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
			}
			if err := s.Delete("refs", "main", 1); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Delete again: err = %v, want ErrNotFound", err)
			}
		})
	}
}

// Test 4: keys are listed sorted per bucket.
func TestStore_Keys(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"zz", "aa", "mm"} {
				if _, err := s.Put("b", k, []byte(k), 0); err != nil {
					t.Fatalf("Put(%s): %v", k, err)
				}
			}
			keys, err := s.Keys("b")
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}
			if !reflect.DeepEqual(keys, []string{"aa", "mm", "zz"}) {
				t.Errorf("Keys = %v", keys)
			}

			empty, err := s.Keys("nope")
			if err != nil {
				t.Fatalf("Keys(nope): %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("Keys(nope) = %v, want empty", empty)
			}
		})
	}
}

// Test 5: bolt payloads survive reopen.
func TestBoltStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	if _, err := s.Put("repos", "r1", []byte("persisted"), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	data, v, err := s2.Get("repos", "r1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(data) != "persisted" || v != 1 {
		t.Errorf("Get = (%s, %d)", data, v)
	}
}
