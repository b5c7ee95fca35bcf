package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Policy controls how name+address are normalized before hashing into the
// dedup ID. Exact key equality was left open upstream, so each step is
// toggleable from config rather than hard-coded.
type Policy struct {
	CaseFold           bool
	CollapseWhitespace bool
	StripPunctuation   bool
}

func DefaultPolicy() Policy {
	return Policy{CaseFold: true, CollapseWhitespace: true, StripPunctuation: true}
}

// Normalize applies the policy to one field.
func (p Policy) Normalize(s string) string {
	if p.CaseFold {
		s = strings.ToLower(s)
	}
	if p.StripPunctuation {
		s = strings.Map(func(r rune) rune {
			if unicode.IsPunct(r) {
				return -1
			}
			return r
		}, s)
	}
	if p.CollapseWhitespace {
		s = strings.Join(strings.Fields(s), " ")
	}
	return strings.TrimSpace(s)
}

// LeadID is the dedup key: a stable hash of the normalized name and
// address. Two listings for the same business collected under different
// queries hash to the same ID and merge in the store.
func (p Policy) LeadID(name, address string) string {
	key := p.Normalize(name) + "|" + p.Normalize(address)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}
