package object

import "sort"

// ArenaSnapshot is the serializable form of an Arena. The per-repository
// blob hash index is derived and rebuilt on load.
type ArenaSnapshot struct {
	Blobs   []Blob   `json:"blobs"`
	Trees   []Tree   `json:"trees"`
	Commits []Commit `json:"commits"`
}

// Export captures every record for persistence, sorted by id so snapshots
// of the same arena are byte-stable.
func (a *Arena) Export() ArenaSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := ArenaSnapshot{
		Blobs:   make([]Blob, 0, len(a.blobs)),
		Trees:   make([]Tree, 0, len(a.trees)),
		Commits: make([]Commit, 0, len(a.commits)),
	}
	for _, b := range a.blobs {
		snap.Blobs = append(snap.Blobs, *b)
	}
	for _, t := range a.trees {
		cp := *t
		cp.Entries = append([]TreeEntry(nil), t.Entries...)
		snap.Trees = append(snap.Trees, cp)
	}
	for _, c := range a.commits {
		cp := *c
		cp.Parents = append([]ObjectID(nil), c.Parents...)
		snap.Commits = append(snap.Commits, cp)
	}
	sort.Slice(snap.Blobs, func(i, j int) bool { return snap.Blobs[i].ID < snap.Blobs[j].ID })
	sort.Slice(snap.Trees, func(i, j int) bool { return snap.Trees[i].ID < snap.Trees[j].ID })
	sort.Slice(snap.Commits, func(i, j int) bool { return snap.Commits[i].ID < snap.Commits[j].ID })
	return snap
}

// ArenaFromSnapshot rebuilds an Arena, hash index included, from a snapshot.
func ArenaFromSnapshot(s ArenaSnapshot) *Arena {
	a := NewArena()
	for i := range s.Blobs {
		b := s.Blobs[i]
		a.blobs[b.ID] = &b
		if a.blobByHash[b.Repo] == nil {
			a.blobByHash[b.Repo] = make(map[Hash]ObjectID)
		}
		a.blobByHash[b.Repo][b.Hash] = b.ID
	}
	for i := range s.Trees {
		t := s.Trees[i]
		a.trees[t.ID] = &t
	}
	for i := range s.Commits {
		c := s.Commits[i]
		a.commits[c.ID] = &c
	}
	return a
}
