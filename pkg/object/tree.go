package object

import (
	"fmt"
	"sort"
)

// Tree is an ordered-by-name collection of entries with an aggregate hash
// recomputed on every mutation. Once a commit references the tree it is
// sealed and further mutation fails; later versions require a new Tree.
type Tree struct {
	ID      ObjectID
	Repo    RepoID
	Entries []TreeEntry // sorted by Name
	Hash    Hash
	Sealed  bool
}

// NewTree creates an empty tree bound to the given repository.
func NewTree(id ObjectID, repo RepoID) *Tree {
	t := &Tree{ID: id, Repo: repo}
	t.Hash = hashTreeEntries(nil)
	return t
}

// find returns the index of the entry with the given name, or the insertion
// point and false when absent.
func (t *Tree) find(name string) (int, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].Name >= name
	})
	if i < len(t.Entries) && t.Entries[i].Name == name {
		return i, true
	}
	return i, false
}

// Entry returns the named entry, or ErrEntryNotFound.
func (t *Tree) Entry(name string) (TreeEntry, error) {
	i, ok := t.find(name)
	if !ok {
		return TreeEntry{}, fmt.Errorf("tree entry %q: %w", name, ErrEntryNotFound)
	}
	return t.Entries[i], nil
}

// HasEntry reports whether the tree contains an entry with the given name.
func (t *Tree) HasEntry(name string) bool {
	_, ok := t.find(name)
	return ok
}

// AddEntry inserts a new named entry in sorted position and recomputes the
// aggregate hash. Duplicate names fail with ErrEntryExists and leave the
// entry set unchanged.
func (t *Tree) AddEntry(e TreeEntry) error {
	if t.Sealed {
		return fmt.Errorf("add entry %q: %w", e.Name, ErrTreeSealed)
	}
	if e.Name == "" {
		return fmt.Errorf("add entry: empty name: %w", ErrInvalidEntryKind)
	}
	if e.Kind != KindBlob && e.Kind != KindTree {
		return fmt.Errorf("add entry %q: kind %q: %w", e.Name, e.Kind, ErrInvalidEntryKind)
	}
	i, ok := t.find(e.Name)
	if ok {
		return fmt.Errorf("add entry %q: %w", e.Name, ErrEntryExists)
	}

	t.Entries = append(t.Entries, TreeEntry{})
	copy(t.Entries[i+1:], t.Entries[i:])
	t.Entries[i] = e
	t.Hash = hashTreeEntries(t.Entries)
	return nil
}

// RemoveEntry deletes the named entry and recomputes the aggregate hash.
func (t *Tree) RemoveEntry(name string) error {
	if t.Sealed {
		return fmt.Errorf("remove entry %q: %w", name, ErrTreeSealed)
	}
	i, ok := t.find(name)
	if !ok {
		return fmt.Errorf("remove entry %q: %w", name, ErrEntryNotFound)
	}
	t.Entries = append(t.Entries[:i], t.Entries[i+1:]...)
	t.Hash = hashTreeEntries(t.Entries)
	return nil
}

// Seal marks the tree immutable. Called when a commit first references it.
func (t *Tree) Seal() {
	t.Sealed = true
}
