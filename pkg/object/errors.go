package object

import "errors"

var (
	// ErrEntryExists is returned when a tree already has an entry with the
	// requested name.
	ErrEntryExists = errors.New("tree entry already exists")

	// ErrEntryNotFound is returned when a named tree entry is absent.
	ErrEntryNotFound = errors.New("tree entry not found")

	// ErrInvalidEntryKind is returned for tree entries that are neither
	// blobs nor trees, or whose kind does not match the referenced object.
	ErrInvalidEntryKind = errors.New("invalid tree entry kind")

	// ErrRepositoryMismatch is returned when an operation would link
	// objects that belong to different repositories.
	ErrRepositoryMismatch = errors.New("object belongs to a different repository")

	// ErrInvalidBlobSize is returned when registering a zero-sized blob.
	ErrInvalidBlobSize = errors.New("invalid blob size")

	// ErrBlobAlreadyRegistered is returned when a blob with the same
	// content hash is already registered in the repository.
	ErrBlobAlreadyRegistered = errors.New("blob already registered")

	// ErrTreeSealed is returned when mutating a tree after it has been
	// referenced by a commit.
	ErrTreeSealed = errors.New("tree is sealed")

	// ErrNotFound is returned when an object id has no record in the arena.
	ErrNotFound = errors.New("object not found")

	// ErrTooManyParents is returned when a commit would exceed the bounded
	// parent list.
	ErrTooManyParents = errors.New("too many commit parents")

	// ErrInvalidLocator is returned for content locators that do not parse
	// as CIDs.
	ErrInvalidLocator = errors.New("invalid content locator")
)
