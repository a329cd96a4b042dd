// Package refs implements the multi-indexed reference table: a primary
// name map plus secondary indices by target object, reference type, and
// name prefix, with symbolic-reference resolution.
package refs

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/permagit/permagit/pkg/object"
)

var (
	// ErrRefNotFound is returned when a name has no entry.
	ErrRefNotFound = errors.New("reference not found")

	// ErrInvalidRefName is returned for empty or malformed names.
	ErrInvalidRefName = errors.New("invalid reference name")

	// ErrIndexCorrupted is returned when symbolic resolution revisits a
	// name, which can only happen if the index contains a cycle.
	ErrIndexCorrupted = errors.New("reference index corrupted: symbolic cycle")

	// ErrNotSymbolic is returned when a symbolic target is set on a
	// concrete reference or vice versa.
	ErrNotSymbolic = errors.New("reference is not symbolic")
)

// RefType classifies a reference.
type RefType string

const (
	TypeBranch   RefType = "branch"
	TypeTag      RefType = "tag"
	TypeSymbolic RefType = "symbolic"
)

// maxPrefixLen bounds the prefix index: every name is indexed under each of
// its prefixes of length 1..min(10, len(name)).
const maxPrefixLen = 10

// Metadata carries bookkeeping for one reference.
type Metadata struct {
	CreatedAt int64           `json:"created_at"`
	UpdatedAt int64           `json:"updated_at"`
	CreatedBy object.Identity `json:"created_by"`
	Message   string          `json:"message,omitempty"`
}

// Entry is one reference. Concrete references point at an object; symbolic
// references point at another reference name via SymbolicTarget.
type Entry struct {
	Name           string          `json:"name"`
	Type           RefType         `json:"type"`
	TargetID       object.ObjectID `json:"target_id,omitempty"`
	TargetKind     object.Kind     `json:"target_kind,omitempty"`
	SymbolicTarget string          `json:"symbolic_target,omitempty"`
	Meta           Metadata        `json:"meta"`
}

// Index is the reference table for one repository. The primary map owns the
// entries; the three secondary maps are derived and kept symmetric: a name
// present in the primary map appears in each applicable secondary bucket,
// and an emptied bucket is deleted rather than kept empty.
//
// Reads take the read lock and may run concurrently; writes validate all
// preconditions before touching any map.
type Index struct {
	mu sync.RWMutex

	refs     map[string]*Entry
	byTarget map[object.ObjectID]map[string]struct{}
	byType   map[RefType]map[string]struct{}
	byPrefix map[string]map[string]struct{}

	total       uint64
	updatedUnix int64
}

// NewIndex creates an empty reference index.
func NewIndex() *Index {
	return &Index{
		refs:     make(map[string]*Entry),
		byTarget: make(map[object.ObjectID]map[string]struct{}),
		byType:   make(map[RefType]map[string]struct{}),
		byPrefix: make(map[string]map[string]struct{}),
	}
}

// Add inserts or overwrites the named reference. Overwriting first removes
// the stale entry from every secondary index, then reinserts, so the
// secondary maps never hold both generations.
func (ix *Index) Add(e Entry, now int64) error {
	if e.Name == "" {
		return fmt.Errorf("add reference: %w", ErrInvalidRefName)
	}
	switch e.Type {
	case TypeBranch, TypeTag:
		if e.TargetID == "" || e.SymbolicTarget != "" {
			return fmt.Errorf("add reference %q: concrete ref needs a target id: %w", e.Name, ErrNotSymbolic)
		}
	case TypeSymbolic:
		if e.SymbolicTarget == "" || e.TargetID != "" {
			return fmt.Errorf("add reference %q: symbolic ref needs a symbolic target: %w", e.Name, ErrNotSymbolic)
		}
	default:
		return fmt.Errorf("add reference %q: type %q: %w", e.Name, e.Type, ErrInvalidRefName)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.refs[e.Name]; ok {
		ix.removeFromSecondaries(old)
		e.Meta.CreatedAt = old.Meta.CreatedAt
		e.Meta.CreatedBy = old.Meta.CreatedBy
	} else {
		ix.total++
		e.Meta.CreatedAt = now
	}
	e.Meta.UpdatedAt = now

	stored := e
	ix.refs[e.Name] = &stored
	ix.insertIntoSecondaries(&stored)
	ix.updatedUnix = now
	return nil
}

// Get returns the entry for name.
func (ix *Index) Get(name string) (Entry, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, ok := ix.refs[name]
	if !ok {
		return Entry{}, fmt.Errorf("reference %q: %w", name, ErrRefNotFound)
	}
	return *e, nil
}

// Delete removes the named reference from the primary map and every
// secondary index.
func (ix *Index) Delete(name string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, ok := ix.refs[name]
	if !ok {
		return fmt.Errorf("delete reference %q: %w", name, ErrRefNotFound)
	}
	ix.removeFromSecondaries(e)
	delete(ix.refs, name)
	ix.total--
	return nil
}

// FindByTarget returns the sorted names pointing at the given object id.
func (ix *Index) FindByTarget(id object.ObjectID) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedNames(ix.byTarget[id])
}

// FindByType returns the sorted names of the given reference type.
func (ix *Index) FindByType(t RefType) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedNames(ix.byType[t])
}

// FindByPrefix returns the sorted names sharing the given prefix. Prefixes
// longer than maxPrefixLen are not indexed and return nil.
func (ix *Index) FindByPrefix(prefix string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedNames(ix.byPrefix[prefix])
}

// Len reports the number of references.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return int(ix.total)
}

// LastUpdated reports the unix timestamp of the most recent mutation.
func (ix *Index) LastUpdated() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.updatedUnix
}

// Names returns all reference names, sorted.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	names := make([]string, 0, len(ix.refs))
	for name := range ix.refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ix *Index) insertIntoSecondaries(e *Entry) {
	if e.TargetID != "" {
		bucket := ix.byTarget[e.TargetID]
		if bucket == nil {
			bucket = make(map[string]struct{})
			ix.byTarget[e.TargetID] = bucket
		}
		bucket[e.Name] = struct{}{}
	}

	typeBucket := ix.byType[e.Type]
	if typeBucket == nil {
		typeBucket = make(map[string]struct{})
		ix.byType[e.Type] = typeBucket
	}
	typeBucket[e.Name] = struct{}{}

	for _, p := range prefixesOf(e.Name) {
		bucket := ix.byPrefix[p]
		if bucket == nil {
			bucket = make(map[string]struct{})
			ix.byPrefix[p] = bucket
		}
		bucket[e.Name] = struct{}{}
	}
}

func (ix *Index) removeFromSecondaries(e *Entry) {
	if e.TargetID != "" {
		if bucket := ix.byTarget[e.TargetID]; bucket != nil {
			delete(bucket, e.Name)
			if len(bucket) == 0 {
				delete(ix.byTarget, e.TargetID)
			}
		}
	}

	if bucket := ix.byType[e.Type]; bucket != nil {
		delete(bucket, e.Name)
		if len(bucket) == 0 {
			delete(ix.byType, e.Type)
		}
	}

	for _, p := range prefixesOf(e.Name) {
		if bucket := ix.byPrefix[p]; bucket != nil {
			delete(bucket, e.Name)
			if len(bucket) == 0 {
				delete(ix.byPrefix, p)
			}
		}
	}
}

func prefixesOf(name string) []string {
	n := len(name)
	if n > maxPrefixLen {
		n = maxPrefixLen
	}
	prefixes := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		prefixes = append(prefixes, name[:i])
	}
	return prefixes
}

func sortedNames(bucket map[string]struct{}) []string {
	if len(bucket) == 0 {
		return nil
	}
	names := make([]string, 0, len(bucket))
	for name := range bucket {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
