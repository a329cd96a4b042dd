package staging

import (
	"errors"
	"testing"

	"github.com/permagit/permagit/pkg/object"
)

func stage(t *testing.T, ix *Index, path string, data string, status Status) {
	t.Helper()
	loc, err := object.ComputeLocator([]byte(data))
	if err != nil {
		t.Fatalf("ComputeLocator: %v", err)
	}
	err = ix.StageFile(path, loc, uint64(len(data)), object.HashBytes([]byte(data)), object.ModeFile, status, 100)
	if err != nil {
		t.Fatalf("StageFile(%q): %v", path, err)
	}
}

// Test 1: staging files upserts entries, preserves insertion order, and
// marks the index dirty.
func TestIndex_StageFile(t *testing.T) {
	ix := New("repo-1", "")
	if ix.Dirty {
		t.Fatal("fresh index is dirty")
	}

	stage(t, ix, "README.md", "readme", StatusAdded)
	stage(t, ix, "src/main.rs", "fn main() {}", StatusAdded)

	if ix.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ix.Len())
	}
	if !ix.Dirty {
		t.Error("index not dirty after staging")
	}

	entries := ix.StagedEntries()
	if entries[0].Path != "README.md" || entries[1].Path != "src/main.rs" {
		t.Errorf("order = [%s, %s]", entries[0].Path, entries[1].Path)
	}
}

// Test 2: restaging a path replaces the whole entry without duplicating it
// in the order list.
func TestIndex_StageFile_Replace(t *testing.T) {
	ix := New("repo-1", "")
	stage(t, ix, "a.txt", "v1", StatusAdded)
	stage(t, ix, "a.txt", "v2 longer", StatusModified)

	if ix.Len() != 1 || len(ix.Order) != 1 {
		t.Fatalf("Len = %d, order = %v", ix.Len(), ix.Order)
	}
	e, err := ix.Entry("a.txt")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.Status != StatusModified || e.Size != 9 {
		t.Errorf("entry = %+v, want replaced fields", e)
	}
}

// Test 3: staging a deletion is a soft delete preserving locator metadata.
func TestIndex_StageDeletion(t *testing.T) {
	ix := New("repo-1", "")
	stage(t, ix, "old.go", "package old", StatusAdded)
	before, _ := ix.Entry("old.go")

	if err := ix.StageDeletion("old.go", 200); err != nil {
		t.Fatalf("StageDeletion: %v", err)
	}
	e, err := ix.Entry("old.go")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.Status != StatusDeleted {
		t.Errorf("status = %q, want deleted", e.Status)
	}
	if e.Locator != before.Locator || e.Hash != before.Hash {
		t.Error("deletion dropped locator/hash metadata")
	}
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1 (soft delete keeps the entry)", ix.Len())
	}
}

// Test 4: deleting an untracked path fails.
func TestIndex_StageDeletion_Missing(t *testing.T) {
	ix := New("repo-1", "")
	if err := ix.StageDeletion("ghost", 100); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("StageDeletion: err = %v, want ErrFileNotFound", err)
	}
}

// Test 5: reset clears all entries, rebinds the baseline, and drops the
// dirty flag.
func TestIndex_Reset(t *testing.T) {
	ix := New("repo-1", "commit-0")
	stage(t, ix, "a.txt", "a", StatusAdded)
	stage(t, ix, "b.txt", "b", StatusAdded)

	ix.Reset("commit-1")

	if ix.Len() != 0 {
		t.Errorf("Len = %d after reset, want 0", ix.Len())
	}
	if len(ix.StagedEntries()) != 0 {
		t.Error("StagedEntries non-empty after reset")
	}
	if ix.Dirty {
		t.Error("dirty after reset")
	}
	if ix.Baseline != "commit-1" {
		t.Errorf("baseline = %s, want commit-1", ix.Baseline)
	}
}

// Test 6: unstage removes a single path and its order slot.
func TestIndex_Unstage(t *testing.T) {
	ix := New("repo-1", "")
	stage(t, ix, "a.txt", "a", StatusAdded)
	stage(t, ix, "b.txt", "b", StatusAdded)

	if err := ix.Unstage("a.txt"); err != nil {
		t.Fatalf("Unstage: %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ix.Len())
	}
	entries := ix.StagedEntries()
	if len(entries) != 1 || entries[0].Path != "b.txt" {
		t.Errorf("entries = %v", entries)
	}

	if err := ix.Unstage("a.txt"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Unstage again: err = %v, want ErrFileNotFound", err)
	}
}
