package object

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Arena is the in-memory object registry: every blob, tree, and commit
// record lives here, keyed by ObjectID, with blob content hashes indexed
// per repository for duplicate detection.
//
// Arena does no permission or quota checking; those gates live in pkg/repo.
// All preconditions are validated before any map is touched so a failed
// call leaves the arena unchanged.
type Arena struct {
	mu      sync.RWMutex
	blobs   map[ObjectID]*Blob
	trees   map[ObjectID]*Tree
	commits map[ObjectID]*Commit

	// blob content hash -> blob id, per repository
	blobByHash map[RepoID]map[Hash]ObjectID
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{
		blobs:      make(map[ObjectID]*Blob),
		trees:      make(map[ObjectID]*Tree),
		commits:    make(map[ObjectID]*Commit),
		blobByHash: make(map[RepoID]map[Hash]ObjectID),
	}
}

// NewID mints a fresh ObjectID.
func NewID() ObjectID {
	return ObjectID(uuid.NewString())
}

// PutBlob registers a blob record. The content hash must be unique within
// the owning repository and the size non-zero.
func (a *Arena) PutBlob(repo RepoID, hash Hash, locator string, size uint64, mode string) (*Blob, error) {
	if size == 0 {
		return nil, fmt.Errorf("put blob: %w", ErrInvalidBlobSize)
	}
	if err := ValidateLocator(locator); err != nil {
		return nil, fmt.Errorf("put blob: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if byHash := a.blobByHash[repo]; byHash != nil {
		if _, ok := byHash[hash]; ok {
			return nil, fmt.Errorf("put blob %s: %w", hash, ErrBlobAlreadyRegistered)
		}
	}

	b := &Blob{
		ID:      NewID(),
		Repo:    repo,
		Hash:    hash,
		Locator: locator,
		Size:    size,
		Mode:    mode,
	}
	a.blobs[b.ID] = b
	if a.blobByHash[repo] == nil {
		a.blobByHash[repo] = make(map[Hash]ObjectID)
	}
	a.blobByHash[repo][hash] = b.ID
	return b, nil
}

// PutTree registers a fresh empty tree bound to the repository.
func (a *Arena) PutTree(repo RepoID) *Tree {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := NewTree(NewID(), repo)
	a.trees[t.ID] = t
	return t
}

// PutCommit registers a commit. The root tree and every parent must already
// exist and belong to the same repository; the root tree is sealed once the
// commit references it.
func (a *Arena) PutCommit(repo RepoID, message string, author Identity, timestamp int64, treeID ObjectID, parents []ObjectID) (*Commit, error) {
	if len(parents) > MaxCommitParents {
		return nil, fmt.Errorf("put commit: %d parents: %w", len(parents), ErrTooManyParents)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tree, ok := a.trees[treeID]
	if !ok {
		return nil, fmt.Errorf("put commit: tree %s: %w", treeID, ErrNotFound)
	}
	if tree.Repo != repo {
		return nil, fmt.Errorf("put commit: tree %s: %w", treeID, ErrRepositoryMismatch)
	}
	for _, p := range parents {
		parent, ok := a.commits[p]
		if !ok {
			return nil, fmt.Errorf("put commit: parent %s: %w", p, ErrNotFound)
		}
		if parent.Repo != repo {
			return nil, fmt.Errorf("put commit: parent %s: %w", p, ErrRepositoryMismatch)
		}
	}

	c := &Commit{
		ID:        NewID(),
		Repo:      repo,
		Message:   message,
		Author:    author,
		Timestamp: timestamp,
		TreeID:    treeID,
		TreeHash:  tree.Hash,
		Parents:   append([]ObjectID(nil), parents...),
	}
	a.commits[c.ID] = c
	tree.Seal()
	return c, nil
}

// Blob looks up a blob record by id.
func (a *Arena) Blob(id ObjectID) (*Blob, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	b, ok := a.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, ErrNotFound)
	}
	return b, nil
}

// Tree looks up a tree record by id.
func (a *Arena) Tree(id ObjectID) (*Tree, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	t, ok := a.trees[id]
	if !ok {
		return nil, fmt.Errorf("tree %s: %w", id, ErrNotFound)
	}
	return t, nil
}

// Commit looks up a commit record by id.
func (a *Arena) Commit(id ObjectID) (*Commit, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	c, ok := a.commits[id]
	if !ok {
		return nil, fmt.Errorf("commit %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// BlobByContentHash looks up a blob id by its content hash within one
// repository.
func (a *Arena) BlobByContentHash(repo RepoID, hash Hash) (ObjectID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byHash := a.blobByHash[repo]
	if byHash == nil {
		return "", false
	}
	id, ok := byHash[hash]
	return id, ok
}

// Kind reports the kind of the object with the given id.
func (a *Arena) Kind(id ObjectID) (Kind, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, ok := a.blobs[id]; ok {
		return KindBlob, nil
	}
	if _, ok := a.trees[id]; ok {
		return KindTree, nil
	}
	if _, ok := a.commits[id]; ok {
		return KindCommit, nil
	}
	return "", fmt.Errorf("object %s: %w", id, ErrNotFound)
}
