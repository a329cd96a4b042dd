// Package staging implements the per-repository working set of pending
// path changes, built against a parent-commit baseline.
package staging

import (
	"errors"
	"fmt"

	"github.com/permagit/permagit/pkg/object"
)

var (
	// ErrFileNotFound is returned when staging a deletion for an
	// untracked path.
	ErrFileNotFound = errors.New("file not staged")

	// ErrInvalidPath is returned for empty paths.
	ErrInvalidPath = errors.New("invalid path")
)

// Status classifies a staged entry.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
)

// Entry records the staged state of a single path.
type Entry struct {
	Path    string      `json:"path"`
	Locator string      `json:"locator"`
	Size    uint64      `json:"size"`
	Hash    object.Hash `json:"hash"`
	Mode    string      `json:"mode"`
	Status  Status      `json:"status"`
	Unix    int64       `json:"unix"`
}

// Index is the mutable staging area for one repository. Paths are tracked
// in an explicit insertion-ordered list alongside the map so listings are
// deterministic and a commit-from-index flow can enumerate them.
type Index struct {
	Repo     object.RepoID     `json:"repo"`
	Baseline object.ObjectID   `json:"baseline,omitempty"` // parent commit, if any
	Dirty    bool              `json:"dirty"`
	Entries  map[string]*Entry `json:"entries"`
	Order    []string          `json:"order"`
}

// New creates an empty staging index bound to a repository, optionally
// baselined against a parent commit.
func New(repo object.RepoID, baseline object.ObjectID) *Index {
	return &Index{
		Repo:     repo,
		Baseline: baseline,
		Entries:  make(map[string]*Entry),
	}
}

// StageFile upserts the entry for path with replace semantics: an existing
// entry is overwritten wholesale, not field-merged. The index turns dirty.
func (ix *Index) StageFile(path, locator string, size uint64, hash object.Hash, mode string, status Status, now int64) error {
	if path == "" {
		return fmt.Errorf("stage file: %w", ErrInvalidPath)
	}
	switch status {
	case StatusAdded, StatusModified, StatusDeleted:
	default:
		return fmt.Errorf("stage file %q: status %q: %w", path, status, ErrInvalidPath)
	}

	if _, ok := ix.Entries[path]; !ok {
		ix.Order = append(ix.Order, path)
	}
	ix.Entries[path] = &Entry{
		Path:    path,
		Locator: locator,
		Size:    size,
		Hash:    hash,
		Mode:    mode,
		Status:  status,
		Unix:    now,
	}
	ix.Dirty = true
	return nil
}

// StageDeletion marks an already-staged path as deleted. The entry keeps
// its locator and hash so the record of what was deleted survives until a
// commit or reset clears it.
func (ix *Index) StageDeletion(path string, now int64) error {
	e, ok := ix.Entries[path]
	if !ok {
		return fmt.Errorf("stage deletion %q: %w", path, ErrFileNotFound)
	}
	e.Status = StatusDeleted
	e.Unix = now
	ix.Dirty = true
	return nil
}

// Unstage drops the entry for path entirely.
func (ix *Index) Unstage(path string) error {
	if _, ok := ix.Entries[path]; !ok {
		return fmt.Errorf("unstage %q: %w", path, ErrFileNotFound)
	}
	delete(ix.Entries, path)
	for i, p := range ix.Order {
		if p == path {
			ix.Order = append(ix.Order[:i], ix.Order[i+1:]...)
			break
		}
	}
	ix.Dirty = len(ix.Entries) > 0
	return nil
}

// Reset clears every staged entry, rebinds the baseline to the given
// commit, and drops the dirty flag.
func (ix *Index) Reset(baseline object.ObjectID) {
	ix.Entries = make(map[string]*Entry)
	ix.Order = nil
	ix.Baseline = baseline
	ix.Dirty = false
}

// Entry returns the staged entry for path.
func (ix *Index) Entry(path string) (Entry, error) {
	e, ok := ix.Entries[path]
	if !ok {
		return Entry{}, fmt.Errorf("entry %q: %w", path, ErrFileNotFound)
	}
	return *e, nil
}

// StagedEntries returns copies of all entries in staging order.
func (ix *Index) StagedEntries() []Entry {
	out := make([]Entry, 0, len(ix.Order))
	for _, path := range ix.Order {
		if e, ok := ix.Entries[path]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// Len reports the number of staged paths.
func (ix *Index) Len() int {
	return len(ix.Entries)
}
