// Package resolver classifies requested item names and produces the
// ordered list of sources to try for each one.
package resolver

import (
	"log/slog"
	"strings"

	"pricehound/internal/config"
)

// Source kinds, in the order the aggregator understands them.
const (
	KindCrypto    = "crypto"
	KindMetal     = "metal"
	KindCommodity = "commodity"
	KindPage      = "page"
	KindSearch    = "search"
)

// Source describes one way to obtain a price for an item.
type Source struct {
	// Kind selects the fetch path: an API adapter (crypto, metal,
	// commodity), a fixed list of pages, or a web search.
	Kind string

	// Code is the API identifier for structured sources (coin id,
	// metal code, commodity code).
	Code string

	// URLs are candidate pages for page sources.
	URLs []string

	// Query is the search query for search sources.
	Query string

	// Fallback marks sources consulted only when every earlier source
	// produced nothing.
	Fallback bool
}

// Resolver maps item names to source lists using substring containment
// against priority-ordered lookup tables.
type Resolver struct {
	cfg        *config.ResolverConfig
	extraTerms string
	logger     *slog.Logger
}

// New creates a resolver over the configured classification tables.
func New(cfg *config.ResolverConfig, extraTerms string, logger *slog.Logger) *Resolver {
	return &Resolver{
		cfg:        cfg,
		extraTerms: extraTerms,
		logger:     logger.With("component", "resolver"),
	}
}

// Resolve classifies an item name and returns its sources in the order
// they should be tried.
//
// Tables are checked crypto -> metals -> commodities, and the first
// table containing a substring match claims the item. An item matching
// entries in more than one table ("bitcoin gold fund") therefore always
// resolves to the earlier table; this ambiguity is intentional and
// relied upon by callers.
func (r *Resolver) Resolve(itemName string) []Source {
	lower := strings.ToLower(strings.TrimSpace(itemName))

	if code, ok := lookup(r.cfg.CryptoAliases, lower); ok {
		r.logger.Debug("classified item", "item", itemName, "kind", KindCrypto, "code", code)
		return []Source{{Kind: KindCrypto, Code: code}}
	}
	if code, ok := lookup(r.cfg.MetalCodes, lower); ok {
		r.logger.Debug("classified item", "item", itemName, "kind", KindMetal, "code", code)
		return []Source{{Kind: KindMetal, Code: code}}
	}
	if code, ok := lookup(r.cfg.CommodityCodes, lower); ok {
		r.logger.Debug("classified item", "item", itemName, "kind", KindCommodity, "code", code)
		return []Source{{Kind: KindCommodity, Code: code}}
	}

	// Unclassified items go to the open web: pre-vetted pages first
	// when any are known, then a search as fallback.
	var sources []Source
	for _, known := range r.cfg.KnownSources {
		if known.Match != "" && strings.Contains(lower, known.Match) {
			sources = append(sources, Source{Kind: KindPage, URLs: known.URLs})
			break
		}
	}

	query := itemName
	if r.extraTerms != "" {
		query = itemName + " " + r.extraTerms
	}
	sources = append(sources, Source{
		Kind:     KindSearch,
		Query:    query,
		Fallback: len(sources) > 0,
	})

	r.logger.Debug("classified item", "item", itemName, "kind", "web", "sources", len(sources))
	return sources
}

// lookup scans an alias table in order and returns the first code whose
// match string is contained in the item name.
func lookup(table []config.AliasEntry, lower string) (string, bool) {
	for _, entry := range table {
		if entry.Match != "" && strings.Contains(lower, entry.Match) {
			return entry.Code, true
		}
	}
	return "", false
}
