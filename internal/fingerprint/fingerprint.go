// Package fingerprint computes listing identity artifacts: a change-detection
// content hash and an approximate-match dedup key.
//
// The content hash is a pure function of the identity-relevant fields
// (address, price, area, rooms, district, title) after text normalization, so
// re-parsing identical raw input always yields the identical hash while
// cosmetic feed differences (casing, punctuation, whitespace) never do.
//
// The dedup key is deliberately coarser: it exists only to resolve the same
// real-world listing across providers that share no common id. The matching
// policy is pluggable behind the Matcher interface so field weights or
// fuzziness can change without touching the store or the orchestrator. The
// default ApproxMatcher prefers false negatives over false positives: a
// missed duplicate merely displays twice, a wrong merge corrupts price
// history irreversibly.
package fingerprint

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/normalize"
)

// ContentHash returns the hex digest of the normalized identity projection of
// a candidate. Price history and seen-timestamps are excluded by design: the
// hash changes if and only if identity content changes.
func ContentHash(c *domain.Candidate) string {
	var b strings.Builder
	b.WriteString(normalize.Address(c.Address))
	b.WriteByte('|')
	if c.Price != nil {
		b.WriteString(strconv.FormatInt(*c.Price, 10))
	}
	b.WriteByte('|')
	if c.AreaSqm != nil {
		b.WriteString(strconv.FormatFloat(*c.AreaSqm, 'f', 2, 64))
	}
	b.WriteByte('|')
	if c.Rooms != nil {
		b.WriteString(strconv.Itoa(*c.Rooms))
	}
	b.WriteByte('|')
	b.WriteString(normalize.Text(c.District))
	b.WriteByte('|')
	b.WriteString(normalize.Text(c.Title))
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

// Matcher derives the cross-provider identity key for a candidate.
// Implementations must be deterministic and safe for concurrent use.
type Matcher interface {
	// Key returns the dedup key. Candidates with equal keys are treated as
	// the same real-world listing and merged under one stable id.
	Key(c *domain.Candidate) string
}

// ApproxMatcher is the default matching policy: normalized address plus area
// rounded to the nearest whole sqm plus a logarithmic price band. Two
// observations of the same property whose area differs by less than a square
// meter and whose price differs by less than the band width resolve to the
// same key.
type ApproxMatcher struct {
	// PriceBandPct is the width of one price band in percent. Values <= 0
	// fall back to 5.
	PriceBandPct float64
}

// Key implements Matcher.
func (m ApproxMatcher) Key(c *domain.Candidate) string {
	pct := m.PriceBandPct
	if pct <= 0 {
		pct = 5
	}

	var b strings.Builder
	b.WriteString(normalize.Address(c.Address))
	b.WriteByte('|')
	if c.AreaSqm != nil {
		b.WriteString(strconv.FormatInt(int64(math.Round(*c.AreaSqm)), 10))
	} else {
		b.WriteByte('?')
	}
	b.WriteByte('|')
	if c.Price != nil && *c.Price > 0 {
		band := int64(math.Round(math.Log(float64(*c.Price)) / math.Log(1+pct/100)))
		b.WriteString(strconv.FormatInt(band, 10))
	} else {
		b.WriteByte('?')
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}
