package refs

import (
	"errors"
	"reflect"
	"testing"

	"github.com/permagit/permagit/pkg/object"
)

func addSymbolic(t *testing.T, ix *Index, name, target string) {
	t.Helper()
	err := ix.Add(Entry{Name: name, Type: TypeSymbolic, SymbolicTarget: target}, 100)
	if err != nil {
		t.Fatalf("Add(%q -> %q): %v", name, target, err)
	}
}

func addBranch(t *testing.T, ix *Index, name string, target object.ObjectID) {
	t.Helper()
	if err := ix.Add(branchEntry(name, target), 100); err != nil {
		t.Fatalf("Add(%q): %v", name, err)
	}
}

// Test 1: resolving a concrete reference takes zero hops.
func TestResolve_Concrete(t *testing.T) {
	ix := NewIndex()
	addBranch(t, ix, "main", "commit-1")

	e, hops, err := ix.Resolve("main", DefaultMaxDepth)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.TargetID != "commit-1" || len(hops) != 0 {
		t.Errorf("Resolve = %+v via %v", e, hops)
	}
}

// Test 2: a symbolic chain resolves through every hop in order.
func TestResolve_Chain(t *testing.T) {
	ix := NewIndex()
	addBranch(t, ix, "main", "commit-1")
	addSymbolic(t, ix, "HEAD", "default")
	addSymbolic(t, ix, "default", "main")

	e, hops, err := ix.Resolve("HEAD", DefaultMaxDepth)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Name != "main" {
		t.Errorf("resolved to %q, want main", e.Name)
	}
	if !reflect.DeepEqual(hops, []string{"HEAD", "default"}) {
		t.Errorf("hops = %v, want [HEAD default]", hops)
	}
}

// Test 3: a 2-cycle aborts with ErrIndexCorrupted for any max depth >= 1.
func TestResolve_Cycle(t *testing.T) {
	ix := NewIndex()
	addSymbolic(t, ix, "A", "B")
	addSymbolic(t, ix, "B", "A")

	for _, depth := range []int{1, 2, 5, DefaultMaxDepth} {
		_, _, err := ix.Resolve("A", depth)
		if !errors.Is(err, ErrIndexCorrupted) {
			t.Errorf("Resolve(A, depth=%d): err = %v, want ErrIndexCorrupted", depth, err)
		}
	}
}

// Test 4: a self-loop is corruption too.
func TestResolve_SelfLoop(t *testing.T) {
	ix := NewIndex()
	addSymbolic(t, ix, "loop", "loop")

	_, _, err := ix.Resolve("loop", 1)
	if !errors.Is(err, ErrIndexCorrupted) {
		t.Fatalf("Resolve: err = %v, want ErrIndexCorrupted", err)
	}
}

// Test 5: an acyclic chain longer than max depth is reported as not found,
// not as corruption.
func TestResolve_DepthExceeded(t *testing.T) {
	ix := NewIndex()
	addBranch(t, ix, "main", "commit-1")
	addSymbolic(t, ix, "s1", "s2")
	addSymbolic(t, ix, "s2", "s3")
	addSymbolic(t, ix, "s3", "main")

	_, _, err := ix.Resolve("s1", 2)
	if !errors.Is(err, ErrRefNotFound) {
		t.Fatalf("Resolve depth=2: err = %v, want ErrRefNotFound", err)
	}
	if errors.Is(err, ErrIndexCorrupted) {
		t.Fatal("acyclic chain misreported as corruption")
	}

	// With enough depth the same chain resolves.
	e, hops, err := ix.Resolve("s1", 3)
	if err != nil {
		t.Fatalf("Resolve depth=3: %v", err)
	}
	if e.Name != "main" || len(hops) != 3 {
		t.Errorf("Resolve = %q via %v", e.Name, hops)
	}
}

// Test 6: a dangling symbolic target is not found.
func TestResolve_Dangling(t *testing.T) {
	ix := NewIndex()
	addSymbolic(t, ix, "HEAD", "gone")

	_, _, err := ix.Resolve("HEAD", DefaultMaxDepth)
	if !errors.Is(err, ErrRefNotFound) {
		t.Fatalf("Resolve: err = %v, want ErrRefNotFound", err)
	}
}
