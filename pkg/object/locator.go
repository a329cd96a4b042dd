package object

import (
	"fmt"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// ComputeLocator derives the CIDv1 (raw codec, SHA2-256) content locator for
// the given bytes, encoded base32lower. The core itself never reads content;
// this helper exists for callers that feed the external content store.
func ComputeLocator(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("compute locator: multihash: %w", err)
	}
	c := gocid.NewCidV1(gocid.Raw, mh)
	encoded, err := multibase.Encode(multibase.Base32, c.Bytes())
	if err != nil {
		return "", fmt.Errorf("compute locator: encode: %w", err)
	}
	return encoded, nil
}

// ValidateLocator checks that a locator string decodes to a well-formed CID.
func ValidateLocator(locator string) error {
	if locator == "" {
		return fmt.Errorf("validate locator: empty: %w", ErrInvalidLocator)
	}
	if _, err := gocid.Decode(locator); err != nil {
		return fmt.Errorf("validate locator %q: %w", locator, ErrInvalidLocator)
	}
	return nil
}
