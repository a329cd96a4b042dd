package object

import (
	"errors"
	"testing"
)

func mustLocator(t *testing.T, data []byte) string {
	t.Helper()
	loc, err := ComputeLocator(data)
	if err != nil {
		t.Fatalf("ComputeLocator: %v", err)
	}
	return loc
}

// Test 1: blob registration round-trips and indexes by content hash.
func TestArena_PutBlob(t *testing.T) {
	a := NewArena()
	data := []byte("hello")

	b, err := a.PutBlob("repo-1", HashBytes(data), mustLocator(t, data), uint64(len(data)), ModeFile)
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}

	got, err := a.Blob(b.ID)
	if err != nil {
		t.Fatalf("Blob(%s): %v", b.ID, err)
	}
	if got.Hash != HashBytes(data) || got.Size != 5 || got.Repo != "repo-1" {
		t.Errorf("blob record mismatch: %+v", got)
	}

	id, ok := a.BlobByContentHash("repo-1", HashBytes(data))
	if !ok || id != b.ID {
		t.Errorf("BlobByContentHash = (%s, %v), want (%s, true)", id, ok, b.ID)
	}
}

// Test 2: duplicate content hash in the same repository is rejected; the
// same hash in another repository is fine.
func TestArena_PutBlob_Duplicate(t *testing.T) {
	a := NewArena()
	data := []byte("same bytes")
	loc := mustLocator(t, data)

	if _, err := a.PutBlob("repo-1", HashBytes(data), loc, 10, ModeFile); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	_, err := a.PutBlob("repo-1", HashBytes(data), loc, 10, ModeFile)
	if !errors.Is(err, ErrBlobAlreadyRegistered) {
		t.Fatalf("PutBlob duplicate: err = %v, want ErrBlobAlreadyRegistered", err)
	}
	if _, err := a.PutBlob("repo-2", HashBytes(data), loc, 10, ModeFile); err != nil {
		t.Fatalf("PutBlob other repo: %v", err)
	}
}

// Test 3: zero-sized blobs and malformed locators are rejected.
func TestArena_PutBlob_Invalid(t *testing.T) {
	a := NewArena()
	loc := mustLocator(t, []byte("x"))

	if _, err := a.PutBlob("repo-1", HashBytes([]byte("x")), loc, 0, ModeFile); !errors.Is(err, ErrInvalidBlobSize) {
		t.Fatalf("PutBlob size=0: err = %v, want ErrInvalidBlobSize", err)
	}
	if _, err := a.PutBlob("repo-1", HashBytes([]byte("x")), "not-a-cid", 1, ModeFile); !errors.Is(err, ErrInvalidLocator) {
		t.Fatalf("PutBlob bad locator: err = %v, want ErrInvalidLocator", err)
	}
}

// Test 4: commits require an existing same-repository tree and parents, and
// seal their root tree.
func TestArena_PutCommit(t *testing.T) {
	a := NewArena()
	tr := a.PutTree("repo-1")

	c1, err := a.PutCommit("repo-1", "initial", "alice", 100, tr.ID, nil)
	if err != nil {
		t.Fatalf("PutCommit: %v", err)
	}
	if !tr.Sealed {
		t.Error("root tree not sealed after commit")
	}
	if c1.TreeHash != tr.Hash {
		t.Errorf("commit tree hash = %s, want %s", c1.TreeHash, tr.Hash)
	}

	// Parent chain.
	tr2 := a.PutTree("repo-1")
	c2, err := a.PutCommit("repo-1", "second", "alice", 101, tr2.ID, []ObjectID{c1.ID})
	if err != nil {
		t.Fatalf("PutCommit with parent: %v", err)
	}
	if len(c2.Parents) != 1 || c2.Parents[0] != c1.ID {
		t.Errorf("parents = %v, want [%s]", c2.Parents, c1.ID)
	}
}

// Test 5: cross-repository trees and parents fail with ErrRepositoryMismatch.
func TestArena_PutCommit_RepositoryMismatch(t *testing.T) {
	a := NewArena()
	trOther := a.PutTree("repo-2")

	_, err := a.PutCommit("repo-1", "bad", "alice", 100, trOther.ID, nil)
	if !errors.Is(err, ErrRepositoryMismatch) {
		t.Fatalf("PutCommit foreign tree: err = %v, want ErrRepositoryMismatch", err)
	}

	tr1 := a.PutTree("repo-1")
	tr2 := a.PutTree("repo-2")
	other, err := a.PutCommit("repo-2", "other", "bob", 100, tr2.ID, nil)
	if err != nil {
		t.Fatalf("PutCommit: %v", err)
	}
	_, err = a.PutCommit("repo-1", "bad parent", "alice", 101, tr1.ID, []ObjectID{other.ID})
	if !errors.Is(err, ErrRepositoryMismatch) {
		t.Fatalf("PutCommit foreign parent: err = %v, want ErrRepositoryMismatch", err)
	}
}

// Test 6: the parent list is bounded at two.
func TestArena_PutCommit_TooManyParents(t *testing.T) {
	a := NewArena()
	var parents []ObjectID
	for i := 0; i < 3; i++ {
		tr := a.PutTree("repo-1")
		c, err := a.PutCommit("repo-1", "c", "alice", int64(i), tr.ID, nil)
		if err != nil {
			t.Fatalf("PutCommit: %v", err)
		}
		parents = append(parents, c.ID)
	}

	tr := a.PutTree("repo-1")
	_, err := a.PutCommit("repo-1", "octopus", "alice", 10, tr.ID, parents)
	if !errors.Is(err, ErrTooManyParents) {
		t.Fatalf("PutCommit 3 parents: err = %v, want ErrTooManyParents", err)
	}
}

// Test 7: Kind resolves each object class and ErrNotFound otherwise.
func TestArena_Kind(t *testing.T) {
	a := NewArena()
	data := []byte("k")
	b, err := a.PutBlob("repo-1", HashBytes(data), mustLocator(t, data), 1, ModeFile)
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	tr := a.PutTree("repo-1")
	c, err := a.PutCommit("repo-1", "c", "alice", 1, tr.ID, nil)
	if err != nil {
		t.Fatalf("PutCommit: %v", err)
	}

	for id, want := range map[ObjectID]Kind{b.ID: KindBlob, tr.ID: KindTree, c.ID: KindCommit} {
		kind, err := a.Kind(id)
		if err != nil {
			t.Fatalf("Kind(%s): %v", id, err)
		}
		if kind != want {
			t.Errorf("Kind(%s) = %q, want %q", id, kind, want)
		}
	}

	if _, err := a.Kind("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Kind(missing): err = %v, want ErrNotFound", err)
	}
}
