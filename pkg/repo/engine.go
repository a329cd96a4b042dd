package repo

import (
	"fmt"
	"sync"
	"time"

	"github.com/permagit/permagit/pkg/event"
	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/quota"
	"github.com/permagit/permagit/pkg/refs"
	"github.com/permagit/permagit/pkg/staging"
)

// Engine owns the aggregates of every repository it manages: the object
// arena, per-owner quotas, per-repository staging indexes and reference
// tables. Every public method is one atomic operation: all preconditions
// (permission, quota, uniqueness) are checked before the first mutation.
type Engine struct {
	mu sync.Mutex

	arena    *object.Arena
	quotas   map[object.Identity]*quota.Quota
	repos    map[object.RepoID]*Repository
	refIdx   map[object.RepoID]*refs.Index
	stagings map[object.RepoID]*staging.Index

	sink    event.Sink
	clock   func() time.Time
	pricing quota.Pricing
}

// Option customizes a new Engine.
type Option func(*Engine)

// WithSink routes change records to the given sink.
func WithSink(s event.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithClock injects a logical clock; useful in tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithPricing sets quota purchase pricing.
func WithPricing(p quota.Pricing) Option {
	return func(e *Engine) { e.pricing = p }
}

// NewEngine creates an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		arena:    object.NewArena(),
		quotas:   make(map[object.Identity]*quota.Quota),
		repos:    make(map[object.RepoID]*Repository),
		refIdx:   make(map[object.RepoID]*refs.Index),
		stagings: make(map[object.RepoID]*staging.Index),
		sink:     event.Discard{},
		clock:    time.Now,
		pricing:  quota.DefaultPricing,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Arena exposes the object registry for read paths and the merge engine.
func (e *Engine) Arena() *object.Arena {
	return e.arena
}

// Events exposes the engine's sink so cooperating engines (merge) emit
// through the same channel.
func (e *Engine) Events() event.Sink {
	return e.sink
}

// Now reports the engine's logical clock as a unix timestamp.
func (e *Engine) Now() int64 {
	return e.now()
}

func (e *Engine) now() int64 {
	return e.clock().Unix()
}

func (e *Engine) emit(rec event.Record) {
	rec.Unix = e.now()
	// Sink failures must not abort the state transition; the record is
	// redelivered from the snapshot on the next indexer sync.
	_ = e.sink.Emit(rec)
}

// ---------------------------------------------------------------------------
// Quota accounts
// ---------------------------------------------------------------------------

// OpenQuota creates the storage account for an owner. Idempotent: an
// existing account is returned unchanged.
func (e *Engine) OpenQuota(owner object.Identity, initialBytes uint64) *quota.Quota {
	e.mu.Lock()
	defer e.mu.Unlock()

	if q, ok := e.quotas[owner]; ok {
		return q
	}
	q := quota.New(owner, initialBytes)
	e.quotas[owner] = q
	return q
}

// Quota returns the owner's storage account.
func (e *Engine) Quota(owner object.Identity) (*quota.Quota, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.quotas[owner]
	if !ok {
		return nil, fmt.Errorf("quota for %s: %w", owner, ErrNoQuota)
	}
	return q, nil
}

// PurchaseStorage grows the owner's capacity, debiting the payment.
func (e *Engine) PurchaseStorage(owner object.Identity, p *quota.Payment, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.quotas[owner]
	if !ok {
		return fmt.Errorf("purchase storage: %w", ErrNoQuota)
	}
	if err := q.Purchase(p, amount, e.pricing); err != nil {
		return fmt.Errorf("purchase storage: %w", err)
	}
	e.emit(event.Record{Kind: event.KindQuotaPurchased, Actor: owner, Detail: fmt.Sprintf("%d bytes", amount)})
	return nil
}

// ---------------------------------------------------------------------------
// Repository lifecycle
// ---------------------------------------------------------------------------

// CreateRepository creates a repository owned by owner, consuming
// initialSize bytes from the owner's quota. Repository deletion is
// deliberately not modeled.
func (e *Engine) CreateRepository(owner object.Identity, name, description, defaultBranch string, initialSize uint64) (*Repository, error) {
	if name == "" {
		return nil, fmt.Errorf("create repository: %w", ErrEmptyName)
	}
	if defaultBranch == "" {
		defaultBranch = "main"
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.quotas[owner]
	if !ok {
		return nil, fmt.Errorf("create repository %q: %w", name, ErrNoQuota)
	}
	if err := q.Consume(initialSize); err != nil {
		return nil, fmt.Errorf("create repository %q: %w", name, err)
	}

	r := &Repository{
		ID:            object.RepoID(object.NewID()),
		Name:          name,
		Description:   description,
		Owner:         owner,
		DefaultBranch: defaultBranch,
		Collaborators: make(map[object.Identity]Permission),
		CreatedAt:     e.now(),
	}
	e.repos[r.ID] = r
	e.refIdx[r.ID] = refs.NewIndex()
	e.stagings[r.ID] = staging.New(r.ID, "")

	e.emit(event.Record{Kind: event.KindRepoCreated, Repo: r.ID, Name: name, Actor: owner})
	return r, nil
}

// Repo returns the repository aggregate.
func (e *Engine) Repo(id object.RepoID) (*Repository, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repoLocked(id)
}

func (e *Engine) repoLocked(id object.RepoID) (*Repository, error) {
	r, ok := e.repos[id]
	if !ok {
		return nil, fmt.Errorf("repository %s: %w", id, ErrRepoNotFound)
	}
	return r, nil
}

// Repositories lists all repository ids the engine manages.
func (e *Engine) Repositories() []*Repository {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Repository, 0, len(e.repos))
	for _, r := range e.repos {
		out = append(out, r)
	}
	return out
}

// AddCollaborator upserts a collaborator entry. Requires Admin.
func (e *Engine) AddCollaborator(caller object.Identity, repoID object.RepoID, addr object.Identity, level Permission) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}
	if err := r.AssertIsAdmin(caller); err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}

	r.Collaborators[addr] = level
	e.emit(event.Record{Kind: event.KindCollaboratorAdded, Repo: repoID, Name: string(addr), Actor: caller, Detail: level.String()})
	return nil
}

// UpdateHead advances the repository HEAD to the given commit. Requires
// Write. The commit must exist and belong to the repository.
func (e *Engine) UpdateHead(caller object.Identity, repoID object.RepoID, commitID object.ObjectID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateHeadLocked(caller, repoID, commitID)
}

func (e *Engine) updateHeadLocked(caller object.Identity, repoID object.RepoID, commitID object.ObjectID) error {
	r, err := e.repoLocked(repoID)
	if err != nil {
		return fmt.Errorf("update head: %w", err)
	}
	if err := r.AssertCanWrite(caller); err != nil {
		return fmt.Errorf("update head: %w", err)
	}
	c, err := e.arena.Commit(commitID)
	if err != nil {
		return fmt.Errorf("update head: %w", err)
	}
	if c.Repo != repoID {
		return fmt.Errorf("update head: commit %s: %w", commitID, object.ErrRepositoryMismatch)
	}

	r.Head = commitID
	e.emit(event.Record{Kind: event.KindHeadAdvanced, Repo: repoID, ObjectID: commitID, Actor: caller})
	return nil
}

// Refs returns the repository's reference index.
func (e *Engine) Refs(repoID object.RepoID) (*refs.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ix, ok := e.refIdx[repoID]
	if !ok {
		return nil, fmt.Errorf("refs for %s: %w", repoID, ErrRepoNotFound)
	}
	return ix, nil
}

// Staging returns the repository's staging index. Requires Read.
func (e *Engine) Staging(caller object.Identity, repoID object.RepoID) (*staging.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.repoLocked(repoID)
	if err != nil {
		return nil, err
	}
	if err := r.AssertCanRead(caller); err != nil {
		return nil, err
	}
	return e.stagings[repoID], nil
}
