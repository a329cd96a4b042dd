package merge

import (
	"testing"

	"github.com/permagit/permagit/pkg/object"
)

// Test 1: ancestry along a linear chain, self-ancestry, and unrelated
// commits.
func TestIsAncestor(t *testing.T) {
	re, me, r := newMergeEnv(t)

	c1 := commitFiles(t, re, r.ID, "", "c1", map[string]string{"a.txt": "1"}, nil)
	c2 := commitFiles(t, re, r.ID, c1.ID, "c2", map[string]string{"b.txt": "2"}, nil)
	c3 := commitFiles(t, re, r.ID, c2.ID, "c3", map[string]string{"c.txt": "3"}, nil)
	side := commitFiles(t, re, r.ID, c1.ID, "side", map[string]string{"s.txt": "s"}, nil)

	cases := []struct {
		ancestor, descendant object.ObjectID
		want                 bool
	}{
		{c1.ID, c3.ID, true},
		{c2.ID, c3.ID, true},
		{c3.ID, c3.ID, true},
		{c3.ID, c1.ID, false},
		{side.ID, c3.ID, false},
		{c1.ID, side.ID, true},
		{"", c3.ID, false},
	}
	for i, tc := range cases {
		got, err := me.IsAncestor(tc.ancestor, tc.descendant)
		if err != nil {
			t.Fatalf("case %d: IsAncestor: %v", i, err)
		}
		if got != tc.want {
			t.Errorf("case %d: IsAncestor = %v, want %v", i, got, tc.want)
		}
	}
}

// Test 2: the merge base of two branches is their fork point; a merge
// commit makes one side an ancestor of the other.
func TestFindMergeBase(t *testing.T) {
	re, me, r := newMergeEnv(t)

	c1 := commitFiles(t, re, r.ID, "", "c1", map[string]string{"a.txt": "1"}, nil)
	left := commitFiles(t, re, r.ID, c1.ID, "left", map[string]string{"l.txt": "l"}, nil)
	right := commitFiles(t, re, r.ID, c1.ID, "right", map[string]string{"r.txt": "r"}, nil)

	base, err := me.FindMergeBase(left.ID, right.ID)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if base != c1.ID {
		t.Errorf("base = %s, want %s", base, c1.ID)
	}

	// A commit is the base of itself and any descendant.
	base, err = me.FindMergeBase(c1.ID, left.ID)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if base != c1.ID {
		t.Errorf("base = %s, want %s", base, c1.ID)
	}

	// A two-parent merge commit links both lineages.
	res, err := me.Merge(alice, r.ID, right.ID, left.ID, StrategyRecursive)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	ok, err := me.IsAncestor(right.ID, res.ResultCommit)
	if err != nil {
		t.Fatalf("IsAncestor: %v", err)
	}
	if !ok {
		t.Error("merged commit does not descend from its second parent")
	}
}

// Test 3: two root commits with no shared history have no merge base.
func TestFindMergeBase_Unrelated(t *testing.T) {
	re, me, r := newMergeEnv(t)

	a := commitFiles(t, re, r.ID, "", "a", map[string]string{"a.txt": "a"}, nil)
	b := commitFiles(t, re, r.ID, "", "b", map[string]string{"b.txt": "b"}, nil)

	base, err := me.FindMergeBase(a.ID, b.ID)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if base != "" {
		t.Errorf("base = %s, want empty", base)
	}
}

// Test 4: the traversal bound trips on histories longer than the limit.
func TestTraversalLimit(t *testing.T) {
	re, me, r := newMergeEnv(t)

	c1 := commitFiles(t, re, r.ID, "", "c1", map[string]string{"a.txt": "1"}, nil)
	c2 := commitFiles(t, re, r.ID, c1.ID, "c2", map[string]string{"b.txt": "2"}, nil)
	c3 := commitFiles(t, re, r.ID, c2.ID, "c3", map[string]string{"c.txt": "3"}, nil)

	old := traversalStepsLimit
	traversalStepsLimit = 1
	defer func() { traversalStepsLimit = old }()

	if _, err := me.IsAncestor(c1.ID, c3.ID); err == nil {
		t.Error("IsAncestor: expected step-limit error")
	}
	if _, err := me.FindMergeBase(c1.ID, c3.ID); err == nil {
		t.Error("FindMergeBase: expected step-limit error")
	}
}
