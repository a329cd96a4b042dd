package merge

import (
	"fmt"

	"github.com/permagit/permagit/pkg/event"
	"github.com/permagit/permagit/pkg/object"
)

// ResolveConflict settles the conflict at path by picking one side's
// object. When the last conflict drains, the engine synthesizes the merged
// tree and the two-parent merge commit and the result turns terminal.
func (e *Engine) ResolveConflict(caller object.Identity, res *Result, path string, side Side) error {
	r, err := e.repos.Repo(res.Repo)
	if err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}
	if res.Success {
		return fmt.Errorf("resolve conflict %q: %w", path, ErrAlreadyFinal)
	}

	if err := e.resolveLocked(caller, res, path, side); err != nil {
		return err
	}
	e.emit(event.Record{Kind: event.KindConflictResolved, Repo: res.Repo, Name: path, Actor: caller, Detail: string(side)})

	if len(res.Conflicts) == 0 {
		if err := e.finalize(caller, res); err != nil {
			return err
		}
	}
	return nil
}

// resolveLocked removes the conflict entry for path and records the chosen
// side in the merged path map. Choosing the empty side of a delete
// conflict keeps the path deleted.
func (e *Engine) resolveLocked(caller object.Identity, res *Result, path string, side Side) error {
	idx := -1
	for i, c := range res.Conflicts {
		if c.Path == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("resolve conflict %q: %w", path, ErrConflictNotFound)
	}
	c := res.Conflicts[idx]

	var winner object.ObjectID
	switch side {
	case SideOurs:
		winner = c.Ours
	case SideTheirs:
		winner = c.Theirs
	default:
		return fmt.Errorf("resolve conflict %q: side %q: %w", path, side, ErrConflictNotFound)
	}

	if winner == "" {
		delete(res.merged, path)
	} else {
		entry, err := e.entryFor(winner)
		if err != nil {
			return fmt.Errorf("resolve conflict %q: %w", path, err)
		}
		res.merged[path] = entry
	}

	res.Conflicts = append(res.Conflicts[:idx], res.Conflicts[idx+1:]...)
	return nil
}

// entryFor builds a tree entry referencing the given object, whichever
// kind it is.
func (e *Engine) entryFor(id object.ObjectID) (object.TreeEntry, error) {
	arena := e.repos.Arena()
	kind, err := arena.Kind(id)
	if err != nil {
		return object.TreeEntry{}, err
	}
	switch kind {
	case object.KindBlob:
		b, err := arena.Blob(id)
		if err != nil {
			return object.TreeEntry{}, err
		}
		return object.TreeEntry{Kind: object.KindBlob, TargetID: id, TargetHash: b.Hash, Mode: b.Mode}, nil
	case object.KindTree:
		t, err := arena.Tree(id)
		if err != nil {
			return object.TreeEntry{}, err
		}
		return object.TreeEntry{Kind: object.KindTree, TargetID: id, TargetHash: t.Hash, Mode: object.ModeDir}, nil
	}
	return object.TreeEntry{}, fmt.Errorf("object %s: %w", id, object.ErrInvalidEntryKind)
}

// finalize synthesizes the merged root tree and the two-parent merge
// commit, marking the result terminal.
func (e *Engine) finalize(caller object.Identity, res *Result) error {
	if len(res.Conflicts) > 0 {
		return fmt.Errorf("finalize merge: %w", ErrUnresolved)
	}

	rootID, err := e.repos.BuildTreeFromFlat(caller, res.Repo, res.merged)
	if err != nil {
		return fmt.Errorf("finalize merge: %w", err)
	}

	message := fmt.Sprintf("merge %s into %s (%s)", res.Source, res.Target, res.Strategy)
	c, err := e.repos.CreateCommit(caller, res.Repo, message, rootID, []object.ObjectID{res.Target, res.Source})
	if err != nil {
		return fmt.Errorf("finalize merge: %w", err)
	}

	res.Success = true
	res.ResultCommit = c.ID
	e.emit(event.Record{Kind: event.KindMergeCompleted, Repo: res.Repo, ObjectID: c.ID, Actor: caller, Detail: string(res.Strategy)})
	return nil
}
