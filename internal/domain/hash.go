package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DomainSnapshot separates snapshot hashes from any other hashed content.
const DomainSnapshot = "collabevents/snapshot/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the content-addressed identity of a snapshot. Two
// snapshots hash equal iff every versioned field is equal (timestamps are
// compared as UTC instants). A nil location is omitted from the hashed
// object, so it differs from an empty one.
func (s Snapshot) ContentHash() (string, error) {
	obj := map[string]any{
		FieldTitle:       s.Title,
		FieldDescription: s.Description,
		FieldStartTime:   s.Start.UTC().Format(time.RFC3339Nano),
		FieldEndTime:     s.End.UTC().Format(time.RFC3339Nano),
	}
	if s.Location != nil {
		obj[FieldLocation] = *s.Location
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("snapshot hash: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
