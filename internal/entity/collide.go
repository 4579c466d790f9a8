package entity

import (
	"strings"

	"github.com/abner20953/bidding-data/internal/fingerprint"
)

// Collision is one identifier found in both bids.
type Collision struct {
	Kind Kind
	A    Entity
	B    Entity
}

// Collide intersects two sets. Identifiers that appear in the tender
// fingerprint (case-insensitive) belong to the buyer and are skipped.
// Results follow A's order of first appearance.
func Collide(a, b Set, tenderFingerprint string) []Collision {
	tender := strings.ToLower(tenderFingerprint)
	var out []Collision
	for _, ea := range a.Sorted() {
		eb, ok := b[ea.Key]
		if !ok {
			continue
		}
		if tender != "" && strings.Contains(tender, strings.ToLower(fingerprint.Fingerprint(ea.Text))) {
			continue
		}
		out = append(out, Collision{Kind: ea.Kind, A: ea, B: eb})
	}
	return out
}
