// Package merge computes fast-forward or conflict-bearing merges between
// two commits, tracks conflicts through explicit resolution, and
// synthesizes the merged tree and two-parent merge commit.
package merge

import (
	"errors"
	"fmt"

	"github.com/permagit/permagit/pkg/event"
	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/repo"
)

var (
	// ErrNotFastForward is returned when a fast-forward merge is requested
	// but the target commit is not an ancestor of the source.
	ErrNotFastForward = errors.New("target is not an ancestor of source")

	// ErrConflictNotFound is returned when resolving a path with no
	// recorded conflict.
	ErrConflictNotFound = errors.New("no conflict recorded for path")

	// ErrUnresolved is returned when finalizing a result that still has
	// open conflicts.
	ErrUnresolved = errors.New("merge result has unresolved conflicts")

	// ErrAlreadyFinal is returned when resolving against a terminal result.
	ErrAlreadyFinal = errors.New("merge result is already final")

	// ErrUnknownStrategy is returned for strategies the engine does not
	// implement.
	ErrUnknownStrategy = errors.New("unknown merge strategy")
)

// Strategy selects how two commits are combined.
type Strategy string

const (
	StrategyFastForward Strategy = "fast-forward"
	StrategyRecursive   Strategy = "recursive"
	StrategyOurs        Strategy = "ours"
	StrategyTheirs      Strategy = "theirs"
)

// ConflictType classifies a conflict at tree-entry granularity.
type ConflictType string

const (
	ConflictContent      ConflictType = "content"
	ConflictDelete       ConflictType = "delete"
	ConflictTypeMismatch ConflictType = "type"
)

// Side selects whose object wins a conflict resolution.
type Side string

const (
	SideOurs   Side = "ours"
	SideTheirs Side = "theirs"
)

// Conflict is one contested path. Ours is the target-side object id,
// Theirs the source-side; either may be empty for delete conflicts.
type Conflict struct {
	Path   string          `json:"path"`
	Type   ConflictType    `json:"type"`
	Ours   object.ObjectID `json:"ours,omitempty"`
	Theirs object.ObjectID `json:"theirs,omitempty"`
}

// Result tracks one merge attempt. It becomes terminal (Success=true,
// ResultCommit set) once every conflict is resolved and the merged commit
// is synthesized.
type Result struct {
	Repo         object.RepoID   `json:"repo"`
	Source       object.ObjectID `json:"source"`
	Target       object.ObjectID `json:"target"`
	Strategy     Strategy        `json:"strategy"`
	Success      bool            `json:"success"`
	ResultCommit object.ObjectID `json:"result_commit,omitempty"`
	Conflicts    []Conflict      `json:"conflicts,omitempty"`

	// merged accumulates the flat path map of the merged tree: clean
	// takes from the diff plus resolution picks.
	merged map[string]object.TreeEntry
}

// Engine performs merges against a repository engine's state.
type Engine struct {
	repos *repo.Engine
}

// NewEngine creates a merge engine over the given repository engine.
func NewEngine(repos *repo.Engine) *Engine {
	return &Engine{repos: repos}
}

// Merge merges source into target. Requires Write on the repository.
//
// Fast-forward verifies that target is an ancestor of source and yields
// source as the result commit with zero conflicts. Every other strategy
// diffs the two root trees against their merge base at tree-entry
// granularity; a conflict-free diff (or an ours/theirs strategy, which
// auto-selects a side) synthesizes the merged commit immediately.
func (e *Engine) Merge(caller object.Identity, repoID object.RepoID, sourceID, targetID object.ObjectID, strategy Strategy) (*Result, error) {
	r, err := e.repos.Repo(repoID)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	arena := e.repos.Arena()
	source, err := arena.Commit(sourceID)
	if err != nil {
		return nil, fmt.Errorf("merge: source: %w", err)
	}
	target, err := arena.Commit(targetID)
	if err != nil {
		return nil, fmt.Errorf("merge: target: %w", err)
	}
	if source.Repo != repoID || target.Repo != repoID {
		return nil, fmt.Errorf("merge: %w", object.ErrRepositoryMismatch)
	}

	res := &Result{
		Repo:     repoID,
		Source:   sourceID,
		Target:   targetID,
		Strategy: strategy,
		merged:   make(map[string]object.TreeEntry),
	}

	switch strategy {
	case StrategyFastForward:
		ok, err := e.IsAncestor(targetID, sourceID)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("merge %s into %s: %w", sourceID, targetID, ErrNotFastForward)
		}
		res.Success = true
		res.ResultCommit = sourceID
		e.emit(event.Record{Kind: event.KindMergeCompleted, Repo: repoID, ObjectID: sourceID, Actor: caller, Detail: string(strategy)})
		return res, nil

	case StrategyRecursive, StrategyOurs, StrategyTheirs:
		// Diff both root trees against the merge base.
		baseID, err := e.FindMergeBase(sourceID, targetID)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		var baseTree *object.Tree
		if baseID != "" {
			baseCommit, err := arena.Commit(baseID)
			if err != nil {
				return nil, fmt.Errorf("merge: base: %w", err)
			}
			baseTree, err = arena.Tree(baseCommit.TreeID)
			if err != nil {
				return nil, fmt.Errorf("merge: base tree: %w", err)
			}
		}
		oursTree, err := arena.Tree(target.TreeID)
		if err != nil {
			return nil, fmt.Errorf("merge: ours tree: %w", err)
		}
		theirsTree, err := arena.Tree(source.TreeID)
		if err != nil {
			return nil, fmt.Errorf("merge: theirs tree: %w", err)
		}

		if err := e.diffTrees(baseTree, oursTree, theirsTree, "", res); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}

		// Ours/theirs auto-select a side for every conflict.
		if strategy == StrategyOurs || strategy == StrategyTheirs {
			side := SideOurs
			if strategy == StrategyTheirs {
				side = SideTheirs
			}
			for len(res.Conflicts) > 0 {
				if err := e.resolveLocked(caller, res, res.Conflicts[0].Path, side); err != nil {
					return nil, fmt.Errorf("merge: %w", err)
				}
			}
		}

		if len(res.Conflicts) > 0 {
			res.Success = false
			return res, nil
		}
		if res.ResultCommit == "" {
			if err := e.finalize(caller, res); err != nil {
				return nil, fmt.Errorf("merge: %w", err)
			}
		}
		return res, nil

	default:
		return nil, fmt.Errorf("merge: %q: %w", strategy, ErrUnknownStrategy)
	}
}

// diffTrees walks one directory level of base/ours/theirs, classifying
// each name as clean (recorded into res.merged) or conflicting.
func (e *Engine) diffTrees(base, ours, theirs *object.Tree, prefix string, res *Result) error {
	arena := e.repos.Arena()

	names := make(map[string]struct{})
	for _, t := range []*object.Tree{base, ours, theirs} {
		if t == nil {
			continue
		}
		for _, entry := range t.Entries {
			names[entry.Name] = struct{}{}
		}
	}

	for name := range names {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}

		bE, inBase := lookup(base, name)
		oE, inOurs := lookup(ours, name)
		tE, inTheirs := lookup(theirs, name)

		switch {
		case inOurs && inTheirs:
			if oE.Kind != tE.Kind {
				// Blob on one side, tree on the other.
				res.Conflicts = append(res.Conflicts, Conflict{
					Path: path, Type: ConflictTypeMismatch, Ours: oE.TargetID, Theirs: tE.TargetID,
				})
				continue
			}
			if oE.Kind == object.KindTree {
				var baseSub *object.Tree
				if inBase && bE.Kind == object.KindTree {
					sub, err := arena.Tree(bE.TargetID)
					if err != nil {
						return err
					}
					baseSub = sub
				}
				oursSub, err := arena.Tree(oE.TargetID)
				if err != nil {
					return err
				}
				theirsSub, err := arena.Tree(tE.TargetID)
				if err != nil {
					return err
				}
				if err := e.diffTrees(baseSub, oursSub, theirsSub, path, res); err != nil {
					return err
				}
				continue
			}

			// Both blobs.
			switch {
			case oE.TargetHash == tE.TargetHash:
				res.merged[path] = leaf(oE)
			case inBase && oE.TargetHash == bE.TargetHash:
				res.merged[path] = leaf(tE) // changed only by theirs
			case inBase && tE.TargetHash == bE.TargetHash:
				res.merged[path] = leaf(oE) // changed only by ours
			default:
				res.Conflicts = append(res.Conflicts, Conflict{
					Path: path, Type: ConflictContent, Ours: oE.TargetID, Theirs: tE.TargetID,
				})
			}

		case inOurs && !inTheirs:
			if !inBase {
				res.merged[path] = leaf(oE) // added by ours
				continue
			}
			if oE.TargetHash == bE.TargetHash {
				continue // deleted by theirs, ours unchanged: clean delete
			}
			res.Conflicts = append(res.Conflicts, Conflict{
				Path: path, Type: ConflictDelete, Ours: oE.TargetID,
			})

		case !inOurs && inTheirs:
			if !inBase {
				res.merged[path] = leaf(tE) // added by theirs
				continue
			}
			if tE.TargetHash == bE.TargetHash {
				continue // deleted by ours, theirs unchanged: clean delete
			}
			res.Conflicts = append(res.Conflicts, Conflict{
				Path: path, Type: ConflictDelete, Theirs: tE.TargetID,
			})

		default:
			// Present only in base: deleted on both sides.
		}
	}
	return nil
}

func lookup(t *object.Tree, name string) (object.TreeEntry, bool) {
	if t == nil {
		return object.TreeEntry{}, false
	}
	entry, err := t.Entry(name)
	if err != nil {
		return object.TreeEntry{}, false
	}
	return entry, true
}

// leaf strips the name from an entry; merged-map entries are renamed when
// the tree is rebuilt.
func leaf(e object.TreeEntry) object.TreeEntry {
	e.Name = ""
	return e
}

func (e *Engine) emit(rec event.Record) {
	rec.Unix = e.repos.Now()
	_ = e.repos.Events().Emit(rec)
}
