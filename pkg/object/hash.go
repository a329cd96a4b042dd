package object

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashBytes computes the raw SHA-256 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-256 of the envelope "kind len\0content",
// mirroring Git's object hashing but with SHA-256.
func HashObject(kind Kind, data []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", kind, len(data))
	h := sha256.New()
	h.Write([]byte(header))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// hashTreeEntries computes the aggregate hash of a tree from its sorted
// entry list. One canonical line per entry keeps the digest stable under
// re-serialization.
func hashTreeEntries(entries []TreeEntry) Hash {
	var buf []byte
	for _, e := range entries {
		buf = append(buf, fmt.Sprintf("%s %s %s %s\n", e.Mode, e.Kind, e.TargetHash, e.Name)...)
	}
	return HashObject(KindTree, buf)
}

// CommitSigningPayload builds the canonical byte payload a signer signs.
// The signature field itself is excluded.
func CommitSigningPayload(c *Commit) []byte {
	payload := fmt.Sprintf("tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		payload += fmt.Sprintf("parent %s\n", p)
	}
	payload += fmt.Sprintf("author %s %d\n\n%s", c.Author, c.Timestamp, c.Message)
	return []byte(payload)
}
