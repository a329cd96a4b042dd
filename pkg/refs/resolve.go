package refs

import "fmt"

// DefaultMaxDepth caps symbolic chains during resolution. It is a secondary
// guard for pathological-but-acyclic chains; cycles are caught by the
// visited set regardless of depth.
const DefaultMaxDepth = 32

// Resolve chases symbolic references starting at name until it reaches a
// concrete entry, returning that entry plus the ordered symbolic hops taken.
//
// A revisited name means the index holds a cycle and resolution aborts with
// ErrIndexCorrupted immediately, independent of maxDepth. Exceeding maxDepth
// without a cycle fails with ErrRefNotFound.
func (ix *Index) Resolve(name string, maxDepth int) (Entry, []string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	visited := make(map[string]struct{})
	var hops []string

	current := name
	for depth := 0; ; depth++ {
		e, ok := ix.refs[current]
		if !ok {
			return Entry{}, hops, fmt.Errorf("resolve %q: %q: %w", name, current, ErrRefNotFound)
		}
		if e.Type != TypeSymbolic {
			return *e, hops, nil
		}

		visited[current] = struct{}{}
		next := e.SymbolicTarget

		// The cycle check runs before the depth cap: a repeated name is
		// corruption no matter how short the chain.
		if _, seen := visited[next]; seen {
			return Entry{}, hops, fmt.Errorf("resolve %q: revisited %q: %w", name, next, ErrIndexCorrupted)
		}
		if depth+1 > maxDepth {
			return Entry{}, hops, fmt.Errorf("resolve %q: chain exceeds depth %d: %w", name, maxDepth, ErrRefNotFound)
		}
		hops = append(hops, current)
		current = next
	}
}
