package feed

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// csvFieldAliases maps CSV header names onto canonical record fields.
var csvFieldAliases = map[string]string{
	"id":        "id",
	"title":     "title",
	"name":      "title",
	"price":     "price",
	"currency":  "currency",
	"area":      "area",
	"area_sqm":  "area",
	"sqm":       "area",
	"rooms":     "rooms",
	"district":  "district",
	"address":   "address",
	"lat":       "lat",
	"latitude":  "lat",
	"lon":       "lon",
	"longitude": "lon",
	"url":       "url",
}

// decodeCSV extracts listing records from a header-keyed CSV document. A row
// with the wrong column count is not fatal: the reader is lenient and the
// row flows through minimal-normalization checks like any other record.
func decodeCSV(raw []byte) ([]record, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1 // tolerate ragged rows
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = csvFieldAliases[strings.ToLower(strings.TrimSpace(h))]
	}

	var records []record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A single unreadable line (stray quote etc.) becomes an empty
			// record so it is counted as a parse error, not a dead batch.
			records = append(records, record{})
			continue
		}
		rec := record{}
		for i, v := range row {
			if i >= len(cols) || cols[i] == "" {
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				rec[cols[i]] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
