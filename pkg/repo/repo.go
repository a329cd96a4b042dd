// Package repo implements the repository aggregate — ownership,
// collaborator permissions, HEAD — and the engine that gates every
// mutating operation on permission and storage quota.
package repo

import (
	"errors"
	"fmt"

	"github.com/permagit/permagit/pkg/object"
)

var (
	// ErrPermissionDenied is returned when the caller's level is below
	// the required one.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotOwnerOrCollaborator is returned when the caller is neither
	// the owner nor present in the collaborator map at all.
	ErrNotOwnerOrCollaborator = errors.New("not owner or collaborator")

	// ErrRepoNotFound is returned for unknown repository ids.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrEmptyName is returned when creating a repository without a name.
	ErrEmptyName = errors.New("repository name is required")

	// ErrNoQuota is returned when the caller has no storage quota account.
	ErrNoQuota = errors.New("no storage quota for owner")
)

// Permission is the ordered access scale gating repository operations.
type Permission uint8

const (
	PermNone Permission = iota
	PermRead
	PermWrite
	PermAdmin
)

// String returns the lowercase permission name.
func (p Permission) String() string {
	switch p {
	case PermRead:
		return "read"
	case PermWrite:
		return "write"
	case PermAdmin:
		return "admin"
	default:
		return "none"
	}
}

// ParsePermission converts a permission name to its level.
func ParsePermission(s string) (Permission, error) {
	switch s {
	case "none":
		return PermNone, nil
	case "read":
		return PermRead, nil
	case "write":
		return PermWrite, nil
	case "admin":
		return PermAdmin, nil
	}
	return PermNone, fmt.Errorf("unknown permission %q", s)
}

// Repository is the permission table and HEAD pointer for one repository.
// The owner always has implicit admin; collaborators are tracked explicitly.
type Repository struct {
	ID            object.RepoID                  `json:"id"`
	Name          string                         `json:"name"`
	Description   string                         `json:"description,omitempty"`
	Owner         object.Identity                `json:"owner"`
	DefaultBranch string                         `json:"default_branch"`
	Head          object.ObjectID                `json:"head,omitempty"` // current HEAD commit, if any
	Collaborators map[object.Identity]Permission `json:"collaborators"`
	CreatedAt     int64                          `json:"created_at"`
}

// Level reports the caller's effective permission.
func (r *Repository) Level(caller object.Identity) Permission {
	if caller == r.Owner {
		return PermAdmin
	}
	return r.Collaborators[caller]
}

// assertLevel checks the caller against the required level. The owner
// always passes; a caller with no map entry fails with
// ErrNotOwnerOrCollaborator, a caller below the level with
// ErrPermissionDenied.
func (r *Repository) assertLevel(caller object.Identity, required Permission) error {
	if caller == r.Owner {
		return nil
	}
	level, ok := r.Collaborators[caller]
	if !ok {
		return fmt.Errorf("repository %s: caller %s: %w", r.ID, caller, ErrNotOwnerOrCollaborator)
	}
	if level < required {
		return fmt.Errorf("repository %s: caller %s has %s, needs %s: %w",
			r.ID, caller, level, required, ErrPermissionDenied)
	}
	return nil
}

// AssertCanRead fails unless the caller has Read or better.
func (r *Repository) AssertCanRead(caller object.Identity) error {
	return r.assertLevel(caller, PermRead)
}

// AssertCanWrite fails unless the caller has Write or better.
func (r *Repository) AssertCanWrite(caller object.Identity) error {
	return r.assertLevel(caller, PermWrite)
}

// AssertIsAdmin fails unless the caller has Admin.
func (r *Repository) AssertIsAdmin(caller object.Identity) error {
	return r.assertLevel(caller, PermAdmin)
}
