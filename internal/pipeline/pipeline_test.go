package pipeline

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"pricehound/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func record(item, source string, price float64) *types.PriceRecord {
	return &types.PriceRecord{
		ItemName:  item,
		Title:     item,
		Price:     price,
		Currency:  "$",
		Source:    source,
		Timestamp: time.Now(),
	}
}

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})

	rec := record("widget", "example.com", 9.99)
	rec.Title = "  Deluxe &amp; Fancy   Widget  "

	result, err := p.Process(rec)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Title != "Deluxe & Fancy Widget" {
		t.Errorf("expected normalized title, got %q", result.Title)
	}
}

func TestTitleLimitMiddleware(t *testing.T) {
	m := &TitleLimitMiddleware{Max: 10}

	rec := record("widget", "example.com", 9.99)
	rec.Title = "a very long product title"

	result, _ := m.Process(rec)
	if result.Title != "a very lon" {
		t.Errorf("expected truncation to 10 runes, got %q", result.Title)
	}
}

func TestRangeGuardMiddleware(t *testing.T) {
	m := &RangeGuardMiddleware{Min: 0.01, Max: 1000}

	if result, _ := m.Process(record("widget", "a", 9.99)); result == nil {
		t.Error("in-range record should pass")
	}
	if result, _ := m.Process(record("widget", "a", 5000)); result != nil {
		t.Error("out-of-range record should be dropped (nil)")
	}
}

func TestDedupeMiddleware(t *testing.T) {
	m := NewDedupeMiddleware()

	if result, _ := m.Process(record("widget", "a.com", 9.99)); result == nil {
		t.Fatal("first observation should pass")
	}
	if result, _ := m.Process(record("widget", "a.com", 9.99)); result != nil {
		t.Error("repeat observation should be dropped (nil)")
	}
	if result, _ := m.Process(record("widget", "b.com", 9.99)); result == nil {
		t.Error("same price from a different source should pass")
	}
}

func TestResetClearsDedupeState(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})
	p.Use(NewDedupeMiddleware())

	if result, _ := p.Process(record("widget", "a.com", 9.99)); result == nil {
		t.Fatal("first observation should pass")
	}
	if result, _ := p.Process(record("widget", "a.com", 9.99)); result != nil {
		t.Fatal("repeat within a run should be dropped")
	}

	p.Reset()

	if result, _ := p.Process(record("widget", "a.com", 9.99)); result == nil {
		t.Error("after a reset the same observation should pass again")
	}
}

func TestPipelineStopsOnDrop(t *testing.T) {
	p := New(testLogger)
	p.Use(&RangeGuardMiddleware{Min: 0.01, Max: 10})
	p.Use(&TitleLimitMiddleware{Max: 5})

	result, err := p.Process(record("widget", "a", 100))
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result != nil {
		t.Error("dropped record should not continue through the chain")
	}
}
