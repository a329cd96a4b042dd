package repo

import (
	"fmt"

	"github.com/permagit/permagit/pkg/event"
	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/refs"
)

// AddReference inserts or rotates a reference in the repository's index.
// Requires Write. Concrete targets must exist in the repository.
func (e *Engine) AddReference(caller object.Identity, repoID object.RepoID, entry refs.Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addReferenceLocked(caller, repoID, entry)
}

func (e *Engine) addReferenceLocked(caller object.Identity, repoID object.RepoID, entry refs.Entry) error {
	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("add reference: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("add reference: %w", err)
	}

	if entry.TargetID != "" {
		kind, err := e.arena.Kind(entry.TargetID)
		if err != nil {
			return fmt.Errorf("add reference %q: %w", entry.Name, err)
		}
		if entry.TargetKind == "" {
			entry.TargetKind = kind
		} else if entry.TargetKind != kind {
			return fmt.Errorf("add reference %q: target is %s, declared %s: %w",
				entry.Name, kind, entry.TargetKind, object.ErrInvalidEntryKind)
		}
	}
	entry.Meta.CreatedBy = caller

	if err := e.refIdx[repoID].Add(entry, e.now()); err != nil {
		return err
	}
	e.emit(event.Record{Kind: event.KindRefAdded, Repo: repoID, Name: entry.Name, ObjectID: entry.TargetID, Actor: caller})
	return nil
}

// CreateBranch points a branch ref at a commit. Requires Write.
func (e *Engine) CreateBranch(caller object.Identity, repoID object.RepoID, name string, commitID object.ObjectID) error {
	return e.AddReference(caller, repoID, refs.Entry{
		Name:       name,
		Type:       refs.TypeBranch,
		TargetID:   commitID,
		TargetKind: object.KindCommit,
	})
}

// CreateTag points a tag ref at an object. Requires Write.
func (e *Engine) CreateTag(caller object.Identity, repoID object.RepoID, name string, targetID object.ObjectID, message string) error {
	return e.AddReference(caller, repoID, refs.Entry{
		Name:     name,
		Type:     refs.TypeTag,
		TargetID: targetID,
		Meta:     refs.Metadata{Message: message},
	})
}

// CreateSymbolicRef points a symbolic ref at another reference name.
// Requires Write.
func (e *Engine) CreateSymbolicRef(caller object.Identity, repoID object.RepoID, name, target string) error {
	return e.AddReference(caller, repoID, refs.Entry{
		Name:           name,
		Type:           refs.TypeSymbolic,
		SymbolicTarget: target,
	})
}

// DeleteReference removes a reference from the primary map and all
// secondary indices. Requires Write.
func (e *Engine) DeleteReference(caller object.Identity, repoID object.RepoID, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}

	if err := e.refIdx[repoID].Delete(name); err != nil {
		return err
	}
	e.emit(event.Record{Kind: event.KindRefDeleted, Repo: repoID, Name: name, Actor: caller})
	return nil
}

// AdvanceRef rotates an existing branch ref to a new commit and keeps HEAD
// in step when the branch is the repository default. Requires Write.
func (e *Engine) AdvanceRef(caller object.Identity, repoID object.RepoID, name string, commitID object.ObjectID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ix, ok := e.refIdx[repoID]
	if !ok {
		return fmt.Errorf("advance ref: %w", ErrRepoNotFound)
	}
	old, err := ix.Get(name)
	if err != nil {
		return fmt.Errorf("advance ref: %w", err)
	}
	old.TargetID = commitID
	old.TargetKind = object.KindCommit
	if err := e.addReferenceLocked(caller, repoID, old); err != nil {
		return err
	}

	r := e.repos[repoID]
	if name == r.DefaultBranch {
		return e.updateHeadLocked(caller, repoID, commitID)
	}
	return nil
}
