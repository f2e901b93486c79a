package resolver

import (
	"log/slog"
	"os"
	"testing"

	"pricehound/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func defaultResolver() *Resolver {
	cfg := config.DefaultConfig()
	return New(&cfg.Resolver, cfg.Search.ExtraTerms, testLogger)
}

func TestResolveClassification(t *testing.T) {
	r := defaultResolver()

	tests := []struct {
		item string
		kind string
		code string
	}{
		{"bitcoin", KindCrypto, "bitcoin"},
		{"  Bitcoin  ", KindCrypto, "bitcoin"},
		{"BTC price", KindCrypto, "bitcoin"},
		{"ethereum", KindCrypto, "ethereum"},
		{"gold", KindMetal, "XAU"},
		{"silver bars", KindMetal, "XAG"},
		{"crude oil", KindCommodity, "WTI"},
		{"brent", KindCommodity, "BRENT"},
		{"natural gas", KindCommodity, "NG"},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			sources := r.Resolve(tt.item)
			if len(sources) != 1 {
				t.Fatalf("expected a single source, got %d", len(sources))
			}
			if sources[0].Kind != tt.kind {
				t.Errorf("kind = %q, want %q", sources[0].Kind, tt.kind)
			}
			if sources[0].Code != tt.code {
				t.Errorf("code = %q, want %q", sources[0].Code, tt.code)
			}
		})
	}
}

func TestResolveTablePrecedence(t *testing.T) {
	r := defaultResolver()

	// Matches both the crypto and the metal table; the crypto table is
	// checked first and claims the item.
	sources := r.Resolve("bitcoin gold fund")
	if len(sources) != 1 || sources[0].Kind != KindCrypto {
		t.Fatalf("expected crypto to claim the ambiguous item, got %+v", sources)
	}
	if sources[0].Code != "bitcoin" {
		t.Errorf("code = %q, want bitcoin", sources[0].Code)
	}
}

func TestResolveUnclassifiedGoesToSearch(t *testing.T) {
	r := defaultResolver()

	sources := r.Resolve("mechanical keyboard")
	if len(sources) != 1 {
		t.Fatalf("expected a single search source, got %d", len(sources))
	}
	s := sources[0]
	if s.Kind != KindSearch {
		t.Fatalf("kind = %q, want %q", s.Kind, KindSearch)
	}
	if s.Query != "mechanical keyboard price buy" {
		t.Errorf("query = %q, expected extra terms appended", s.Query)
	}
	if s.Fallback {
		t.Error("a lone search source must not be marked fallback")
	}
}

func TestResolveKnownPagesThenSearchFallback(t *testing.T) {
	cfg := &config.ResolverConfig{
		KnownSources: []config.KnownSource{
			{Match: "widget", URLs: []string{"https://widgets.example.com/pricing"}},
		},
	}
	r := New(cfg, "price", testLogger)

	sources := r.Resolve("deluxe widget")
	if len(sources) != 2 {
		t.Fatalf("expected page + search sources, got %d", len(sources))
	}
	if sources[0].Kind != KindPage || len(sources[0].URLs) != 1 {
		t.Errorf("first source should be the known pages, got %+v", sources[0])
	}
	if sources[1].Kind != KindSearch || !sources[1].Fallback {
		t.Errorf("second source should be a fallback search, got %+v", sources[1])
	}
}
