package object

// Hash is a 64-character hex-encoded SHA-256 digest.
type Hash string

// ObjectID uniquely identifies one record in an Arena. Unlike Hash it is
// stable across tree mutations that happen before the tree is sealed.
type ObjectID string

// RepoID identifies the repository an object belongs to. Every object is
// bound to exactly one repository at creation and never reassigned.
type RepoID string

// Identity is an account address in the host execution environment.
type Identity string

// Kind identifies the kind of object stored.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
)

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	ModeDir        = "40000"
	ModeFile       = "100644"
	ModeExecutable = "100755"
	ModeSymlink    = "120000"
)

// Blob is a content-addressed record for file data held by an external
// content store. The core keeps only the locator and size, never the bytes.
type Blob struct {
	ID      ObjectID
	Repo    RepoID
	Hash    Hash   // content hash of the external bytes
	Locator string // CIDv1 locator into the content store
	Size    uint64
	Mode    string
}

// TreeEntry is one named child of a tree: either a blob or a subtree.
type TreeEntry struct {
	Name       string
	Kind       Kind // KindBlob or KindTree
	TargetID   ObjectID
	TargetHash Hash
	Mode       string
}

// Commit points at a root tree with author metadata. Parents holds up to
// two entries so merge commits can record both lineages.
type Commit struct {
	ID        ObjectID
	Repo      RepoID
	Message   string
	Author    Identity
	Timestamp int64
	TreeID    ObjectID
	TreeHash  Hash
	Parents   []ObjectID
	Signature string
}

// MaxCommitParents bounds the parent list: one for ordinary commits, two
// for merge commits.
const MaxCommitParents = 2
