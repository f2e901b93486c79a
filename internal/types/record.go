package types

import (
	"strconv"
	"time"
)

// PriceRecord is a single normalized price observation for an item.
// Records are immutable once created: they are appended to the price
// history and only ever read afterwards.
type PriceRecord struct {
	// ItemName is the user-supplied query term, unchanged.
	ItemName string `json:"item_name"`

	// Title is a best-effort human label for the priced thing.
	Title string `json:"title"`

	// Price is the extracted price. Always range-validated before a
	// record is constructed.
	Price float64 `json:"price"`

	// Currency is a single display symbol: $ £ € ¥.
	Currency string `json:"currency"`

	// Unit is set for metal/commodity API results ("troy oz", "barrel").
	Unit string `json:"unit,omitempty"`

	// Change24h is the 24-hour percentage change, crypto results only.
	Change24h *float64 `json:"change_24h,omitempty"`

	// Source identifies provenance: an API name ("CoinGecko API") or
	// the host name of the page the price was scraped from.
	Source string `json:"source"`

	// URL is the originating resource.
	URL string `json:"url"`

	// Timestamp is when the price was captured.
	Timestamp time.Time `json:"timestamp"`
}

// Float64Ptr returns a pointer to v, for optional record fields.
func Float64Ptr(v float64) *float64 { return &v }

// ToFlatMap returns a flat string map suitable for CSV export.
// Optional fields that are unset are omitted so the CSV writer can
// compute the header as the union of keys actually present.
func (r *PriceRecord) ToFlatMap() map[string]string {
	flat := map[string]string{
		"item_name": r.ItemName,
		"title":     r.Title,
		"price":     strconv.FormatFloat(r.Price, 'f', -1, 64),
		"currency":  r.Currency,
		"source":    r.Source,
		"url":       r.URL,
		"timestamp": r.Timestamp.Format(time.RFC3339),
	}
	if r.Unit != "" {
		flat["unit"] = r.Unit
	}
	if r.Change24h != nil {
		flat["change_24h"] = strconv.FormatFloat(*r.Change24h, 'f', -1, 64)
	}
	return flat
}

// SourcePrice is one source's contribution to a comparison.
type SourcePrice struct {
	Source   string  `json:"source"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	URL      string  `json:"url"`
}

// ComparisonSummary aggregates all successful records for one item.
// It is derived on demand from the record list and never persisted.
type ComparisonSummary struct {
	Prices  []SourcePrice `json:"prices"`
	Lowest  float64       `json:"lowest"`
	Highest float64       `json:"highest"`
	Average float64       `json:"average"`
}
