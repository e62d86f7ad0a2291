// Package feed converts raw provider documents (XML, JSON, CSV) into
// canonical listing candidates. Parsing is a pure transformation: the caller
// supplies the raw bytes, the package performs no IO of its own (the HTTP
// fetcher in this package is a separate, explicit collaborator).
//
// Per-provider quirks are isolated here. A record that cannot be minimally
// normalized (price AND area AND title all missing) is skipped and counted;
// everything else is emitted with best-effort field coercion, where a single
// uncoercible field nulls that field rather than dropping the record.
package feed

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

var (
	// priceNumRE captures the first numeric group of a price string, with
	// optional thousand separators and decimal part.
	priceNumRE = regexp.MustCompile(`\d{1,3}(?:[ ,.\x{00a0}]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?`)
	// areaNumRE captures a decimal area value ("50", "50.3", "50,30").
	areaNumRE = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	// roomsNumRE captures a small integer room count.
	roomsNumRE = regexp.MustCompile(`\d{1,2}`)
)

// currencySymbols maps common symbols to ISO 4217 codes.
var currencySymbols = map[string]string{
	"$":  "USD",
	"€":  "EUR",
	"£":  "GBP",
	"¥":  "JPY",
	"zł": "PLN",
	"kč": "CZK",
	"₴":  "UAH",
}

// coercePrice parses a raw price string into minor currency units. It strips
// currency symbols/codes and thousand separators and accepts either "." or
// "," as the decimal separator. Returns nil when no usable number is present.
//
// Examples: "€1,250.50" → 125050; "100 000 zł" → 10000000; "junk" → nil.
func coercePrice(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	m := priceNumRE.FindString(raw)
	if m == "" {
		return nil
	}
	major, ok := parseDecimal(m)
	if !ok || major < 0 {
		return nil
	}
	v := int64(major*100 + 0.5)
	return &v
}

// coerceCurrency extracts an ISO 4217 code from a raw price or currency
// fragment. Symbols are translated, codes validated against x/text/currency.
// Unrecognized input yields "".
func coerceCurrency(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	low := strings.ToLower(raw)
	for sym, code := range currencySymbols {
		if strings.Contains(low, sym) {
			return code
		}
	}
	// Look for a three-letter code anywhere in the fragment.
	for _, f := range strings.FieldsFunc(strings.ToUpper(raw), func(r rune) bool {
		return r < 'A' || r > 'Z'
	}) {
		if len(f) != 3 {
			continue
		}
		if unit, err := currency.ParseISO(f); err == nil {
			return unit.String()
		}
	}
	return ""
}

// coerceArea parses an area string ("50.3 m²", "50,3 sqm") into square
// meters. Returns nil when no usable number is present.
func coerceArea(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	m := areaNumRE.FindString(raw)
	if m == "" {
		return nil
	}
	v, ok := parseDecimal(m)
	if !ok || v <= 0 {
		return nil
	}
	return &v
}

// coerceRooms parses a room count. Returns nil on failure so the record is
// kept with rooms unset.
func coerceRooms(raw string) *int {
	m := roomsNumRE.FindString(raw)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// coerceCoord parses a latitude/longitude component. Returns nil on failure.
func coerceCoord(raw string) *float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseDecimal parses a numeric string that may use ".", "," or spaces as
// thousand separators and "." or "," as the decimal separator.
func parseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")

	// A trailing group of 1-2 digits after the last "." or "," is a decimal
	// part; every other separator is a thousands separator.
	lastSep := strings.LastIndexAny(s, ".,")
	if lastSep >= 0 {
		frac := s[lastSep+1:]
		if len(frac) >= 1 && len(frac) <= 2 {
			intPart := strings.Map(dropSeps, s[:lastSep])
			v, err := strconv.ParseFloat(intPart+"."+frac, 64)
			return v, err == nil
		}
	}
	v, err := strconv.ParseFloat(strings.Map(dropSeps, s), 64)
	return v, err == nil
}

func dropSeps(r rune) rune {
	if r == '.' || r == ',' {
		return -1
	}
	return r
}
