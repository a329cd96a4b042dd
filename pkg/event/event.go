// Package event defines the structured change records the engine emits,
// one per state-changing operation, and the sinks that deliver them to the
// off-chain indexer and operators.
package event

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/permagit/permagit/pkg/object"
)

// Kind names a state-changing operation.
type Kind string

const (
	KindRepoCreated       Kind = "repository.created"
	KindCollaboratorAdded Kind = "repository.collaborator_added"
	KindHeadAdvanced      Kind = "repository.head_advanced"
	KindBlobCreated       Kind = "object.blob_created"
	KindTreeCreated       Kind = "object.tree_created"
	KindCommitCreated     Kind = "object.commit_created"
	KindFileStaged        Kind = "staging.file_staged"
	KindDeletionStaged    Kind = "staging.deletion_staged"
	KindIndexReset        Kind = "staging.reset"
	KindRefAdded          Kind = "refs.added"
	KindRefDeleted        Kind = "refs.deleted"
	KindMergeCompleted    Kind = "merge.completed"
	KindConflictResolved  Kind = "merge.conflict_resolved"
	KindQuotaPurchased    Kind = "quota.purchased"
)

// Record is one change record: enough fields for the external indexer to
// rebuild its read model without consulting engine state.
type Record struct {
	Kind     Kind            `json:"kind"`
	Repo     object.RepoID   `json:"repo,omitempty"`
	Name     string          `json:"name,omitempty"` // ref name, path, or collaborator
	ObjectID object.ObjectID `json:"object_id,omitempty"`
	Actor    object.Identity `json:"actor,omitempty"`
	Unix     int64           `json:"unix"`
	Detail   string          `json:"detail,omitempty"`
}

// Sink receives records. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(rec Record) error
}

// MemorySink buffers records in order; used by tests and as a default.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink creates an empty buffer sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Emit appends the record.
func (s *MemorySink) Emit(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of everything emitted so far.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// LogSink writes each record through a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink logging at info level.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs the record.
func (s *LogSink) Emit(rec Record) error {
	s.logger.Info().
		Str("kind", string(rec.Kind)).
		Str("repo", string(rec.Repo)).
		Str("name", rec.Name).
		Str("object_id", string(rec.ObjectID)).
		Str("actor", string(rec.Actor)).
		Int64("unix", rec.Unix).
		Msg("change record")
	return nil
}

// MultiSink fans records out to several sinks, stopping at the first error.
type MultiSink []Sink

// Emit delivers the record to every sink.
func (m MultiSink) Emit(rec Record) error {
	for _, s := range m {
		if err := s.Emit(rec); err != nil {
			return err
		}
	}
	return nil
}

// Discard drops every record.
type Discard struct{}

// Emit does nothing.
func (Discard) Emit(Record) error { return nil }
