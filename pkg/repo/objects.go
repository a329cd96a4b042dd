package repo

import (
	"fmt"

	"github.com/permagit/permagit/pkg/event"
	"github.com/permagit/permagit/pkg/object"
)

// CreateBlob registers a blob record in the repository. Requires Write on
// the repository; consumes size bytes from the owner's quota. The blob is
// bound to the repository at creation and never reassigned.
func (e *Engine) CreateBlob(caller object.Identity, repoID object.RepoID, hash object.Hash, locator string, size uint64, mode string) (*object.Blob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createBlobLocked(caller, repoID, hash, locator, size, mode)
}

func (e *Engine) createBlobLocked(caller object.Identity, repoID object.RepoID, hash object.Hash, locator string, size uint64, mode string) (*object.Blob, error) {
	r, err := e.repoLocked(repoID)
	if err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}
	q, ok := e.quotas[r.Owner]
	if !ok {
		return nil, fmt.Errorf("create blob: %w", ErrNoQuota)
	}

	// Every arena precondition is probed before Consume so a rejected
	// blob never costs quota.
	if size == 0 {
		return nil, fmt.Errorf("create blob: %w", object.ErrInvalidBlobSize)
	}
	if err := object.ValidateLocator(locator); err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}
	if _, exists := e.arena.BlobByContentHash(repoID, hash); exists {
		return nil, fmt.Errorf("create blob %s: %w", hash, object.ErrBlobAlreadyRegistered)
	}
	if err := q.Consume(size); err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}

	b, err := e.arena.PutBlob(repoID, hash, locator, size, mode)
	if err != nil {
		q.BytesUsed -= size
		return nil, fmt.Errorf("create blob: %w", err)
	}

	e.emit(event.Record{Kind: event.KindBlobCreated, Repo: repoID, ObjectID: b.ID, Actor: caller})
	return b, nil
}

// CommitSigner produces a detached signature over a canonical commit
// payload.
type CommitSigner func(payload []byte) (string, error)

// SignCommit attaches a signature over the commit's canonical payload.
// Requires Write; the commit must belong to the repository.
func (e *Engine) SignCommit(caller object.Identity, repoID object.RepoID, commitID object.ObjectID, sign CommitSigner) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("sign commit: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("sign commit: %w", err)
	}
	c, err := e.arena.Commit(commitID)
	if err != nil {
		return fmt.Errorf("sign commit: %w", err)
	}
	if c.Repo != repoID {
		return fmt.Errorf("sign commit: %s: %w", commitID, object.ErrRepositoryMismatch)
	}

	sig, err := sign(object.CommitSigningPayload(c))
	if err != nil {
		return fmt.Errorf("sign commit: %w", err)
	}
	c.Signature = sig
	return nil
}

// CreateTree registers a fresh empty tree. Requires Write.
func (e *Engine) CreateTree(caller object.Identity, repoID object.RepoID) (*object.Tree, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createTreeLocked(caller, repoID)
}

func (e *Engine) createTreeLocked(caller object.Identity, repoID object.RepoID) (*object.Tree, error) {
	r, err := e.repoLocked(repoID)
	if err != nil {
		return nil, fmt.Errorf("create tree: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return nil, fmt.Errorf("create tree: %w", err)
	}

	t := e.arena.PutTree(repoID)
	e.emit(event.Record{Kind: event.KindTreeCreated, Repo: repoID, ObjectID: t.ID, Actor: caller})
	return t, nil
}

// AddTreeEntry inserts a named entry into a tree. Requires Write. The
// target must exist, match the declared kind, and belong to the same
// repository as the tree.
func (e *Engine) AddTreeEntry(caller object.Identity, repoID object.RepoID, treeID object.ObjectID, name string, kind object.Kind, targetID object.ObjectID, mode string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("add tree entry: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("add tree entry: %w", err)
	}
	t, err := e.arena.Tree(treeID)
	if err != nil {
		return fmt.Errorf("add tree entry: %w", err)
	}
	if t.Repo != repoID {
		return fmt.Errorf("add tree entry: tree %s: %w", treeID, object.ErrRepositoryMismatch)
	}

	var targetHash object.Hash
	var subtree *object.Tree
	switch kind {
	case object.KindBlob:
		b, err := e.arena.Blob(targetID)
		if err != nil {
			return fmt.Errorf("add tree entry %q: %w", name, err)
		}
		if b.Repo != repoID {
			return fmt.Errorf("add tree entry %q: %w", name, object.ErrRepositoryMismatch)
		}
		targetHash = b.Hash
	case object.KindTree:
		sub, err := e.arena.Tree(targetID)
		if err != nil {
			return fmt.Errorf("add tree entry %q: %w", name, err)
		}
		if sub.Repo != repoID {
			return fmt.Errorf("add tree entry %q: %w", name, object.ErrRepositoryMismatch)
		}
		targetHash = sub.Hash
		subtree = sub
	default:
		return fmt.Errorf("add tree entry %q: kind %q: %w", name, kind, object.ErrInvalidEntryKind)
	}

	err = t.AddEntry(object.TreeEntry{
		Name:       name,
		Kind:       kind,
		TargetID:   targetID,
		TargetHash: targetHash,
		Mode:       mode,
	})
	if err != nil {
		return err
	}
	// A subtree referenced by another tree is shared; seal it so its hash
	// cannot go stale underneath the parent.
	if subtree != nil {
		subtree.Seal()
	}
	return nil
}

// RemoveTreeEntry deletes a named entry from a tree. Requires Write.
func (e *Engine) RemoveTreeEntry(caller object.Identity, repoID object.RepoID, treeID object.ObjectID, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("remove tree entry: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("remove tree entry: %w", err)
	}
	t, err := e.arena.Tree(treeID)
	if err != nil {
		return fmt.Errorf("remove tree entry: %w", err)
	}
	if t.Repo != repoID {
		return fmt.Errorf("remove tree entry: tree %s: %w", treeID, object.ErrRepositoryMismatch)
	}

	return t.RemoveEntry(name)
}

// CreateCommit creates a commit pointing at the given root tree. Requires
// Write. Author and timestamp are stamped from the caller and the engine
// clock; the tree and parents must belong to the repository.
func (e *Engine) CreateCommit(caller object.Identity, repoID object.RepoID, message string, treeID object.ObjectID, parents []object.ObjectID) (*object.Commit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createCommitLocked(caller, repoID, message, treeID, parents)
}

func (e *Engine) createCommitLocked(caller object.Identity, repoID object.RepoID, message string, treeID object.ObjectID, parents []object.ObjectID) (*object.Commit, error) {
	r, err := e.repoLocked(repoID)
	if err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}

	c, err := e.arena.PutCommit(repoID, message, caller, e.now(), treeID, parents)
	if err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}

	e.emit(event.Record{Kind: event.KindCommitCreated, Repo: repoID, ObjectID: c.ID, Actor: caller})
	return c, nil
}
