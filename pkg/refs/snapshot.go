package refs

import "sort"

// Snapshot is the serializable form of an Index: the primary entries plus
// the last-updated stamp. Secondary indices are derived and rebuilt on load.
type Snapshot struct {
	Entries     []Entry `json:"entries"`
	UpdatedUnix int64   `json:"updated_unix"`
}

// Export captures the index for persistence.
func (ix *Index) Export() Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries := make([]Entry, 0, len(ix.refs))
	for _, e := range ix.refs {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return Snapshot{Entries: entries, UpdatedUnix: ix.updatedUnix}
}

// FromSnapshot rebuilds an Index, secondary maps included, from a snapshot.
func FromSnapshot(s Snapshot) *Index {
	ix := NewIndex()
	for i := range s.Entries {
		stored := s.Entries[i]
		ix.refs[stored.Name] = &stored
		ix.insertIntoSecondaries(&stored)
		ix.total++
	}
	ix.updatedUnix = s.UpdatedUnix
	return ix
}
