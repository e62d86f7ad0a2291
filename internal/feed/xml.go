package feed

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
)

// xmlFieldAliases maps the element names seen across provider XML feeds onto
// canonical record fields. Matching is case-insensitive on the local name.
var xmlFieldAliases = map[string]string{
	"id":          "id",
	"listingid":   "id",
	"externalid":  "id",
	"title":       "title",
	"name":        "title",
	"price":       "price",
	"priceamount": "price",
	"currency":    "currency",
	"area":        "area",
	"areasqm":     "area",
	"surface":     "area",
	"rooms":       "rooms",
	"roomcount":   "rooms",
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

// decodeXML extracts listing records from an XML feed. Providers nest records
// under different container names, so any element named listing/offer/
// property/item is treated as one record and its child elements are mapped
// through xmlFieldAliases.
func decodeXML(raw []byte) ([]record, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	nodes := xmlquery.Find(doc, "//listing|//offer|//property|//item")
	records := make([]record, 0, len(nodes))
	for _, n := range nodes {
		rec := record{}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != xmlquery.ElementNode {
				continue
			}
			field, ok := xmlFieldAliases[strings.ToLower(child.Data)]
			if !ok {
				continue
			}
			if _, exists := rec[field]; exists {
				continue // first occurrence wins
			}
			rec[field] = strings.TrimSpace(child.InnerText())
		}
		// An id-only attribute form is common: <listing id="123">…</listing>
		if rec["id"] == "" {
			for _, attr := range n.Attr {
				if strings.EqualFold(attr.Name.Local, "id") {
					rec["id"] = strings.TrimSpace(attr.Value)
					break
				}
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records, nil
}
