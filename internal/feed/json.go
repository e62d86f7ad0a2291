package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// jsonFieldAliases maps JSON property names onto canonical record fields.
var jsonFieldAliases = map[string]string{
	"id":          "id",
	"listing_id":  "id",
	"external_id": "id",
	"title":       "title",
	"name":        "title",
	"price":       "price",
	"price_pln":   "price",
	"currency":    "currency",
	"area":        "area",
	"area_sqm":    "area",
	"surface":     "area",
	"rooms":       "rooms",
	"room_count":  "rooms",
	"district":    "district",
	"quarter":     "district",
	"address":     "address",
	"street":      "address",
	"lat":         "lat",
	"latitude":    "lat",
	"lon":         "lon",
	"lng":         "lon",
	"longitude":   "lon",
	"url":         "url",
	"link":        "url",
}

// decodeJSON extracts listing records from a JSON feed. Both a top-level
// array and an envelope object ({"listings": […]} / {"items": […]} /
// {"data": […]}) are accepted. Scalar values of any JSON type are rendered
// to strings and coerced later, so a numeric price and a "1 200 €" string
// flow through the same path.
func decodeJSON(raw []byte) ([]record, error) {
	var rows []map[string]any

	if err := json.Unmarshal(raw, &rows); err != nil {
		var envelope map[string]json.RawMessage
		if err2 := json.Unmarshal(raw, &envelope); err2 != nil {
			return nil, err
		}
		var inner json.RawMessage
		for _, key := range []string{"listings", "items", "data", "results"} {
			if v, ok := envelope[key]; ok {
				inner = v
				break
			}
		}
		if inner == nil {
			return nil, fmt.Errorf("no listing array found in JSON envelope")
		}
		if err := json.Unmarshal(inner, &rows); err != nil {
			return nil, err
		}
	}

	records := make([]record, 0, len(rows))
	for _, row := range rows {
		rec := record{}
		for k, v := range row {
			field, ok := jsonFieldAliases[strings.ToLower(k)]
			if !ok {
				continue
			}
			if s := stringifyJSON(v); s != "" {
				rec[field] = s
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records, nil
}

// stringifyJSON renders a scalar JSON value as a string; objects and arrays
// are not meaningful as listing fields and yield "".
func stringifyJSON(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return ""
	}
}
