package pipeline

import (
	"fmt"
	"html"
	"strings"

	"pricehound/internal/types"
)

// TrimMiddleware normalizes whitespace in string fields and decodes
// HTML entities page-derived titles sometimes carry.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(rec *types.PriceRecord) (*types.PriceRecord, error) {
	rec.ItemName = strings.TrimSpace(rec.ItemName)
	rec.Title = strings.Join(strings.Fields(html.UnescapeString(rec.Title)), " ")
	rec.Source = strings.TrimSpace(rec.Source)
	return rec, nil
}

// TitleLimitMiddleware truncates over-long titles.
type TitleLimitMiddleware struct {
	Max int
}

func (m *TitleLimitMiddleware) Name() string { return "title_limit" }

func (m *TitleLimitMiddleware) Process(rec *types.PriceRecord) (*types.PriceRecord, error) {
	max := m.Max
	if max <= 0 {
		max = 100
	}
	if runes := []rune(rec.Title); len(runes) > max {
		rec.Title = string(runes[:max])
	}
	return rec, nil
}

// RangeGuardMiddleware drops records whose price escaped the plausible
// range. Extraction already validates; this is the final gate in front
// of the history list, keeping the invariant local to one place.
type RangeGuardMiddleware struct {
	Min float64
	Max float64
}

func (m *RangeGuardMiddleware) Name() string { return "range_guard" }

func (m *RangeGuardMiddleware) Process(rec *types.PriceRecord) (*types.PriceRecord, error) {
	if rec.Price <= m.Min || rec.Price >= m.Max {
		return nil, nil // drop
	}
	return rec, nil
}

// DedupeMiddleware drops repeat (item, source, price) observations
// within a single run.
type DedupeMiddleware struct {
	seen map[string]bool
}

func NewDedupeMiddleware() *DedupeMiddleware {
	return &DedupeMiddleware{seen: make(map[string]bool)}
}

func (m *DedupeMiddleware) Name() string { return "dedupe" }

// Reset forgets all observations, making the next run a clean slate.
func (m *DedupeMiddleware) Reset() {
	m.seen = make(map[string]bool)
}

func (m *DedupeMiddleware) Process(rec *types.PriceRecord) (*types.PriceRecord, error) {
	key := fmt.Sprintf("%s|%s|%.2f", rec.ItemName, rec.Source, rec.Price)
	if m.seen[key] {
		return nil, nil // drop
	}
	m.seen[key] = true
	return rec, nil
}
