package feed

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/normalize"
)

// Supported feed formats.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// MaxErrorSamples caps how many offending raw fragments are retained per
// parse run for diagnostics.
const MaxErrorSamples = 5

// Result is the outcome of parsing one raw feed document: the usable
// candidates plus per-run error accounting. A non-zero ErrorCount with a
// non-empty candidate list is a partial success; only a top-level document
// failure is reported as an error from Parse.
type Result struct {
	Candidates []domain.Candidate
	ErrorCount int
	Samples    []string // capped raw fragments of dropped records
}

// record is the format-agnostic intermediate shape: raw field values keyed by
// canonical field name. Decoders fill it, buildCandidate coerces it.
type record map[string]string

// Parse converts one provider document into canonical candidates.
//
// A single malformed record never fails the batch: records missing price AND
// area AND title are dropped and counted, all other records are emitted with
// best-effort coercion (a field that fails numeric coercion is nulled, not
// fatal). A document whose top level cannot be decoded at all returns an
// error, which the orchestrator treats as a failed fetch cycle.
func Parse(provider, format string, raw []byte) (*Result, error) {
	var (
		records []record
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatXML:
		records, err = decodeXML(raw)
	case FormatJSON:
		records, err = decodeJSON(raw)
	case FormatCSV:
		records, err = decodeCSV(raw)
	default:
		return nil, fmt.Errorf("feed: unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("feed: decode %s document for %s: %w", format, provider, err)
	}

	res := &Result{Candidates: make([]domain.Candidate, 0, len(records))}
	for _, rec := range records {
		c, ok := buildCandidate(provider, rec)
		if !ok {
			res.ErrorCount++
			if len(res.Samples) < MaxErrorSamples {
				res.Samples = append(res.Samples, renderSample(rec))
			}
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}
	return res, nil
}

// buildCandidate coerces a raw record into a candidate. The second return
// value is false when the record is not minimally normalizable, i.e. price,
// area and title are all absent from the raw record.
func buildCandidate(provider string, rec record) (domain.Candidate, bool) {
	rawTitle := strings.TrimSpace(rec["title"])
	rawPrice := strings.TrimSpace(rec["price"])
	rawArea := strings.TrimSpace(rec["area"])
	if rawTitle == "" && rawPrice == "" && rawArea == "" {
		return domain.Candidate{}, false
	}

	c := domain.Candidate{
		ProviderName: provider,
		SourceID:     strings.TrimSpace(rec["id"]),
		Title:        normalize.Collapse(rawTitle),
		Price:        coercePrice(rawPrice),
		Currency:     coerceCurrency(firstNonEmpty(rec["currency"], rawPrice)),
		AreaSqm:      coerceArea(rawArea),
		Rooms:        coerceRooms(rec["rooms"]),
		District:     normalize.Collapse(rec["district"]),
		Address:      normalize.Collapse(rec["address"]),
		URL:          strings.TrimSpace(rec["url"]),
	}

	// Coordinates only make sense as a pair.
	lat, lon := coerceCoord(rec["lat"]), coerceCoord(rec["lon"])
	if lat != nil && lon != nil {
		c.Lat, c.Lon = lat, lon
	}
	return c, true
}

// renderSample produces a compact, bounded rendering of a dropped record for
// the diagnostics sample list.
func renderSample(rec record) string {
	keys := make([]string, 0, len(rec))
	for k, v := range rec {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	compact := make(map[string]string, len(keys))
	for _, k := range keys {
		compact[k] = truncateSample(rec[k], 80)
	}
	b, err := json.Marshal(compact)
	if err != nil {
		return "<unrenderable record>"
	}
	return truncateSample(string(b), 240)
}

func truncateSample(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
