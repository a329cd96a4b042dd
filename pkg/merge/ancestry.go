package merge

import (
	"fmt"

	"github.com/permagit/permagit/pkg/object"
)

const maxTraversalSteps = 1_000_000

// traversalStepsLimit lets tests tighten the safety bound; it may only
// tighten, never exceed the hard maximum.
var traversalStepsLimit = maxTraversalSteps

func stepsLimit() int {
	if traversalStepsLimit <= 0 || traversalStepsLimit > maxTraversalSteps {
		return maxTraversalSteps
	}
	return traversalStepsLimit
}

// IsAncestor reports whether ancestor is reachable from descendant by
// walking parent pointers. A commit is its own ancestor.
func (e *Engine) IsAncestor(ancestor, descendant object.ObjectID) (bool, error) {
	if ancestor == "" || descendant == "" {
		return false, nil
	}
	if ancestor == descendant {
		return true, nil
	}

	arena := e.repos.Arena()
	limit := stepsLimit()
	visited := map[object.ObjectID]struct{}{descendant: {}}
	queue := []object.ObjectID{descendant}
	steps := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		steps++
		if steps > limit {
			return false, fmt.Errorf("ancestry walk exceeded maximum steps (%d)", limit)
		}

		c, err := arena.Commit(cur)
		if err != nil {
			return false, fmt.Errorf("ancestry walk: %w", err)
		}
		for _, p := range c.Parents {
			if p == "" {
				continue
			}
			if p == ancestor {
				return true, nil
			}
			if _, seen := visited[p]; seen {
				continue
			}
			visited[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return false, nil
}

// FindMergeBase returns a common ancestor of a and b, or "" when the two
// histories are unrelated. The ancestor set of a is materialized first,
// then b's history is walked breadth-first until it hits that set, which
// yields the nearest common ancestor along b's lineage.
func (e *Engine) FindMergeBase(a, b object.ObjectID) (object.ObjectID, error) {
	if a == "" || b == "" {
		return "", nil
	}
	if a == b {
		return a, nil
	}

	arena := e.repos.Arena()
	limit := stepsLimit()

	ancestorsOfA := make(map[object.ObjectID]struct{})
	queue := []object.ObjectID{a}
	steps := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := ancestorsOfA[cur]; seen {
			continue
		}
		ancestorsOfA[cur] = struct{}{}

		steps++
		if steps > limit {
			return "", fmt.Errorf("find merge base: traversal exceeded maximum steps (%d)", limit)
		}

		c, err := arena.Commit(cur)
		if err != nil {
			return "", fmt.Errorf("find merge base: %w", err)
		}
		for _, p := range c.Parents {
			if p != "" {
				queue = append(queue, p)
			}
		}
	}

	visited := map[object.ObjectID]struct{}{b: {}}
	queue = []object.ObjectID{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if _, ok := ancestorsOfA[cur]; ok {
			return cur, nil
		}

		steps++
		if steps > limit {
			return "", fmt.Errorf("find merge base: traversal exceeded maximum steps (%d)", limit)
		}

		c, err := arena.Commit(cur)
		if err != nil {
			return "", fmt.Errorf("find merge base: %w", err)
		}
		for _, p := range c.Parents {
			if p == "" {
				continue
			}
			if _, seen := visited[p]; seen {
				continue
			}
			visited[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return "", nil
}
