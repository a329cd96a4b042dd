package repo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/quota"
	"github.com/permagit/permagit/pkg/refs"
	"github.com/permagit/permagit/pkg/staging"
	"github.com/permagit/permagit/pkg/state"
)

const (
	bucketEngine   = "engine"
	bucketRepos    = "repos"
	bucketRefs     = "refs"
	bucketStagings = "stagings"

	keyEngine = "core"
)

// engineRecord holds the engine-wide aggregates that are not keyed per
// repository: the object arena and the per-owner quota accounts.
type engineRecord struct {
	Arena  object.ArenaSnapshot             `json:"arena"`
	Quotas map[object.Identity]*quota.Quota `json:"quotas"`
}

func putLatest(st state.Store, bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", bucket, key, err)
	}
	_, current, err := st.Get(bucket, key)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return err
	}
	if _, err := st.Put(bucket, key, data, current); err != nil {
		return err
	}
	return nil
}

// Save persists the full engine state through the store: arena and quotas
// under one engine record, then one record per repository for the aggregate,
// its reference index, and its staging index.
func (e *Engine) Save(st state.Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := engineRecord{Arena: e.arena.Export(), Quotas: e.quotas}
	if err := putLatest(st, bucketEngine, keyEngine, rec); err != nil {
		return fmt.Errorf("save engine: %w", err)
	}

	for id, r := range e.repos {
		if err := putLatest(st, bucketRepos, string(id), r); err != nil {
			return fmt.Errorf("save repository %s: %w", id, err)
		}
		if err := putLatest(st, bucketRefs, string(id), e.refIdx[id].Export()); err != nil {
			return fmt.Errorf("save refs %s: %w", id, err)
		}
		if err := putLatest(st, bucketStagings, string(id), e.stagings[id]); err != nil {
			return fmt.Errorf("save staging %s: %w", id, err)
		}
	}
	return nil
}

// Load rebuilds an engine from a store populated by Save. A store with no
// engine record yields an empty engine.
func Load(st state.Store, opts ...Option) (*Engine, error) {
	e := NewEngine(opts...)

	data, _, err := st.Get(bucketEngine, keyEngine)
	if errors.Is(err, state.ErrNotFound) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load engine: %w", err)
	}

	var rec engineRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("load engine: decode: %w", err)
	}
	e.arena = object.ArenaFromSnapshot(rec.Arena)
	if rec.Quotas != nil {
		e.quotas = rec.Quotas
	}

	ids, err := st.Keys(bucketRepos)
	if err != nil {
		return nil, fmt.Errorf("load engine: %w", err)
	}
	for _, id := range ids {
		raw, _, err := st.Get(bucketRepos, id)
		if err != nil {
			return nil, fmt.Errorf("load repository %s: %w", id, err)
		}
		var r Repository
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("load repository %s: decode: %w", id, err)
		}
		if r.Collaborators == nil {
			r.Collaborators = make(map[object.Identity]Permission)
		}
		e.repos[r.ID] = &r

		raw, _, err = st.Get(bucketRefs, id)
		if err != nil {
			return nil, fmt.Errorf("load refs %s: %w", id, err)
		}
		var snap refs.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("load refs %s: decode: %w", id, err)
		}
		e.refIdx[r.ID] = refs.FromSnapshot(snap)

		raw, _, err = st.Get(bucketStagings, id)
		if err != nil {
			return nil, fmt.Errorf("load staging %s: %w", id, err)
		}
		var idx staging.Index
		if err := json.Unmarshal(raw, &idx); err != nil {
			return nil, fmt.Errorf("load staging %s: decode: %w", id, err)
		}
		if idx.Entries == nil {
			idx.Entries = make(map[string]*staging.Entry)
		}
		e.stagings[r.ID] = &idx
	}
	return e, nil
}
