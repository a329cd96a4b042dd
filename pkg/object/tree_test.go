package object

import (
	"errors"
	"testing"
)

func blobEntry(name string, hash Hash) TreeEntry {
	return TreeEntry{
		Name:       name,
		Kind:       KindBlob,
		TargetID:   NewID(),
		TargetHash: hash,
		Mode:       ModeFile,
	}
}

// Test 1: entries stay sorted by name regardless of insertion order.
func TestTree_AddEntry_Sorted(t *testing.T) {
	tr := NewTree(NewID(), "repo-1")

	for _, name := range []string{"zeta.go", "alpha.go", "mid.go"} {
		if err := tr.AddEntry(blobEntry(name, HashBytes([]byte(name)))); err != nil {
			t.Fatalf("AddEntry(%q): %v", name, err)
		}
	}

	want := []string{"alpha.go", "mid.go", "zeta.go"}
	if len(tr.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(tr.Entries), len(want))
	}
	for i, name := range want {
		if tr.Entries[i].Name != name {
			t.Errorf("Entries[%d].Name = %q, want %q", i, tr.Entries[i].Name, name)
		}
	}
}

// Test 2: inserting a duplicate name fails and leaves the tree unchanged,
// hash included.
func TestTree_AddEntry_Duplicate(t *testing.T) {
	tr := NewTree(NewID(), "repo-1")
	if err := tr.AddEntry(blobEntry("README.md", HashBytes([]byte("a")))); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	before := tr.Hash
	entriesBefore := len(tr.Entries)

	err := tr.AddEntry(blobEntry("README.md", HashBytes([]byte("b"))))
	if !errors.Is(err, ErrEntryExists) {
		t.Fatalf("AddEntry duplicate: err = %v, want ErrEntryExists", err)
	}
	if tr.Hash != before {
		t.Errorf("hash changed after failed insert: %s -> %s", before, tr.Hash)
	}
	if len(tr.Entries) != entriesBefore {
		t.Errorf("entry count changed after failed insert")
	}
}

// Test 3: the aggregate hash changes on every successful mutation and
// returns to the empty-tree hash when the last entry is removed.
func TestTree_Hash_TracksMutation(t *testing.T) {
	tr := NewTree(NewID(), "repo-1")
	empty := tr.Hash

	if err := tr.AddEntry(blobEntry("a.txt", HashBytes([]byte("a")))); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if tr.Hash == empty {
		t.Fatal("hash unchanged after insert")
	}

	if err := tr.RemoveEntry("a.txt"); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if tr.Hash != empty {
		t.Errorf("hash after removing all entries = %s, want empty-tree hash %s", tr.Hash, empty)
	}
}

// Test 4: removing an absent entry fails with ErrEntryNotFound.
func TestTree_RemoveEntry_Missing(t *testing.T) {
	tr := NewTree(NewID(), "repo-1")
	if err := tr.RemoveEntry("ghost"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("RemoveEntry: err = %v, want ErrEntryNotFound", err)
	}
}

// Test 5: a sealed tree rejects mutation.
func TestTree_Sealed(t *testing.T) {
	tr := NewTree(NewID(), "repo-1")
	if err := tr.AddEntry(blobEntry("a.txt", HashBytes([]byte("a")))); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	tr.Seal()

	if err := tr.AddEntry(blobEntry("b.txt", HashBytes([]byte("b")))); !errors.Is(err, ErrTreeSealed) {
		t.Fatalf("AddEntry on sealed tree: err = %v, want ErrTreeSealed", err)
	}
	if err := tr.RemoveEntry("a.txt"); !errors.Is(err, ErrTreeSealed) {
		t.Fatalf("RemoveEntry on sealed tree: err = %v, want ErrTreeSealed", err)
	}
}

// Test 6: invalid entry kinds are rejected.
func TestTree_AddEntry_InvalidKind(t *testing.T) {
	tr := NewTree(NewID(), "repo-1")
	e := blobEntry("c.txt", HashBytes([]byte("c")))
	e.Kind = KindCommit
	if err := tr.AddEntry(e); !errors.Is(err, ErrInvalidEntryKind) {
		t.Fatalf("AddEntry commit kind: err = %v, want ErrInvalidEntryKind", err)
	}
}
