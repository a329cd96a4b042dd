package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/permagit/permagit/pkg/event"
	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/staging"
)

// StageFile upserts a staged entry for path. Requires Write.
func (e *Engine) StageFile(caller object.Identity, repoID object.RepoID, path, locator string, size uint64, hash object.Hash, mode string, status staging.Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("stage file: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("stage file: %w", err)
	}

	if err := e.stagings[repoID].StageFile(path, locator, size, hash, mode, status, e.now()); err != nil {
		return err
	}
	e.emit(event.Record{Kind: event.KindFileStaged, Repo: repoID, Name: path, Actor: caller})
	return nil
}

// StageDeletion soft-deletes a staged path. Requires Write.
func (e *Engine) StageDeletion(caller object.Identity, repoID object.RepoID, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("stage deletion: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("stage deletion: %w", err)
	}

	if err := e.stagings[repoID].StageDeletion(path, e.now()); err != nil {
		return err
	}
	e.emit(event.Record{Kind: event.KindDeletionStaged, Repo: repoID, Name: path, Actor: caller})
	return nil
}

// ResetIndex clears the staging index and rebinds its baseline to the
// given commit. Requires Write.
func (e *Engine) ResetIndex(caller object.Identity, repoID object.RepoID, baseline object.ObjectID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	if baseline != "" {
		c, err := e.arena.Commit(baseline)
		if err != nil {
			return fmt.Errorf("reset index: %w", err)
		}
		if c.Repo != repoID {
			return fmt.Errorf("reset index: commit %s: %w", baseline, object.ErrRepositoryMismatch)
		}
	}

	e.stagings[repoID].Reset(baseline)
	e.emit(event.Record{Kind: event.KindIndexReset, Repo: repoID, ObjectID: baseline, Actor: caller})
	return nil
}

// CommitStaged materializes the staging index into tree objects, creates a
// commit on top of the baseline, advances HEAD, and resets the index to the
// new commit. Requires Write.
//
// Blobs that were staged but never registered are created here, consuming
// quota, so staging alone costs nothing until the commit lands.
func (e *Engine) CommitStaged(caller object.Identity, repoID object.RepoID, message string) (*object.Commit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return nil, fmt.Errorf("commit staged: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return nil, fmt.Errorf("commit staged: %w", err)
	}

	idx := e.stagings[repoID]
	if idx.Len() == 0 {
		return nil, fmt.Errorf("commit staged: nothing staged")
	}

	// Start from the baseline commit's flattened tree, then apply the
	// staged changes on top.
	flat := make(map[string]object.TreeEntry)
	if idx.Baseline != "" {
		base, err := e.arena.Commit(idx.Baseline)
		if err != nil {
			return nil, fmt.Errorf("commit staged: baseline: %w", err)
		}
		if err := e.flattenInto(flat, base.TreeID, ""); err != nil {
			return nil, fmt.Errorf("commit staged: %w", err)
		}
	}

	for _, se := range idx.StagedEntries() {
		if se.Status == staging.StatusDeleted {
			delete(flat, se.Path)
			continue
		}
		blobID, ok := e.arena.BlobByContentHash(repoID, se.Hash)
		if !ok {
			b, err := e.createBlobLocked(caller, repoID, se.Hash, se.Locator, se.Size, se.Mode)
			if err != nil {
				return nil, fmt.Errorf("commit staged %q: %w", se.Path, err)
			}
			blobID = b.ID
		}
		flat[se.Path] = object.TreeEntry{
			Kind:       object.KindBlob,
			TargetID:   blobID,
			TargetHash: se.Hash,
			Mode:       se.Mode,
		}
	}

	rootID, err := e.buildTreeDir(caller, repoID, flat, "")
	if err != nil {
		return nil, fmt.Errorf("commit staged: %w", err)
	}

	var parents []object.ObjectID
	if idx.Baseline != "" {
		parents = append(parents, idx.Baseline)
	} else if r.Head != "" {
		parents = append(parents, r.Head)
	}

	c, err := e.createCommitLocked(caller, repoID, message, rootID, parents)
	if err != nil {
		return nil, err
	}
	if err := e.updateHeadLocked(caller, repoID, c.ID); err != nil {
		return nil, err
	}

	idx.Reset(c.ID)
	e.emit(event.Record{Kind: event.KindIndexReset, Repo: repoID, ObjectID: c.ID, Actor: caller})
	return c, nil
}

// BuildTreeFromFlat materializes a flat path map into nested tree objects
// and returns the root tree id. Requires Write. Entries of kind tree are
// grafted wholesale at their path.
func (e *Engine) BuildTreeFromFlat(caller object.Identity, repoID object.RepoID, flat map[string]object.TreeEntry) (object.ObjectID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return "", fmt.Errorf("build tree: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return "", fmt.Errorf("build tree: %w", err)
	}
	return e.buildTreeDir(caller, repoID, flat, "")
}

// flattenInto walks a tree recursively, collecting blob entries keyed by
// their slash-joined path.
func (e *Engine) flattenInto(out map[string]object.TreeEntry, treeID object.ObjectID, prefix string) error {
	t, err := e.arena.Tree(treeID)
	if err != nil {
		return err
	}
	for _, entry := range t.Entries {
		full := entry.Name
		if prefix != "" {
			full = prefix + "/" + entry.Name
		}
		if entry.Kind == object.KindTree {
			if err := e.flattenInto(out, entry.TargetID, full); err != nil {
				return err
			}
			continue
		}
		out[full] = entry
	}
	return nil
}

// buildTreeDir builds the tree object for one directory prefix out of the
// flat path map, recursing into subdirectories, and returns the tree id.
func (e *Engine) buildTreeDir(caller object.Identity, repoID object.RepoID, flat map[string]object.TreeEntry, prefix string) (object.ObjectID, error) {
	files := make(map[string]object.TreeEntry)
	subdirs := make(map[string]struct{})

	for p, entry := range flat {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}
		if slash := strings.IndexByte(rel, '/'); slash < 0 {
			files[rel] = entry
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		names = append(names, name)
	}
	for name := range subdirs {
		if _, isFile := files[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	tree := e.arena.PutTree(repoID)
	for _, name := range names {
		if entry, isFile := files[name]; isFile {
			entry.Name = name
			if err := tree.AddEntry(entry); err != nil {
				return "", fmt.Errorf("build tree %q: %w", name, err)
			}
			continue
		}
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		subID, err := e.buildTreeDir(caller, repoID, flat, childPrefix)
		if err != nil {
			return "", err
		}
		sub, err := e.arena.Tree(subID)
		if err != nil {
			return "", err
		}
		err = tree.AddEntry(object.TreeEntry{
			Name:       name,
			Kind:       object.KindTree,
			TargetID:   subID,
			TargetHash: sub.Hash,
			Mode:       object.ModeDir,
		})
		if err != nil {
			return "", fmt.Errorf("build tree %q: %w", childPrefix, err)
		}
		sub.Seal()
	}
	return tree.ID, nil
}
