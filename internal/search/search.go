// Package search turns an item query into candidate page URLs by
// scraping a search engine's HTML results. Candidates are just leads:
// nothing here confirms a page actually carries a price.
package search

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricehound/internal/config"
	"pricehound/internal/fetcher"
	"pricehound/internal/types"
)

const shoppingResultCap = 5

// Finder discovers candidate URLs for a query.
type Finder struct {
	fetcher fetcher.Fetcher
	cfg     *config.SearchConfig
	logger  *slog.Logger
}

// NewFinder creates a Finder over the given fetcher.
func NewFinder(f fetcher.Fetcher, cfg *config.SearchConfig, logger *slog.Logger) *Finder {
	return &Finder{
		fetcher: f,
		cfg:     cfg,
		logger:  logger.With("component", "search"),
	}
}

// FindCandidates runs the configured engine and returns candidate URLs
// in result order. An empty slice with nil error means the search
// worked but produced nothing usable.
func (f *Finder) FindCandidates(ctx context.Context, query string) ([]string, error) {
	switch f.cfg.Engine {
	case "shopping":
		return f.searchShopping(ctx, query)
	default:
		return f.searchDuckDuckGo(ctx, query)
	}
}

// searchDuckDuckGo scrapes the DuckDuckGo HTML endpoint, which needs
// no API key.
func (f *Finder) searchDuckDuckGo(ctx context.Context, query string) ([]string, error) {
	doc, err := f.fetchDoc(ctx, f.cfg.DuckDuckGoURL+"?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, exists := sel.Attr("href")
		if !exists || !strings.HasPrefix(href, "http") {
			return true
		}
		// Skip the engine's own redirect links.
		if strings.Contains(href, "//duckduckgo.com/l/?") {
			return true
		}
		urls = append(urls, href)
		return len(urls) < f.cfg.MaxResults
	})

	f.logger.Debug("search complete", "engine", "duckduckgo", "query", query, "candidates", len(urls))
	return urls, nil
}

// searchShopping scrapes a shopping-tab results page. Result links are
// wrapped in /url?q= redirects that must be unwrapped.
func (f *Finder) searchShopping(ctx context.Context, query string) ([]string, error) {
	doc, err := f.fetchDoc(ctx, f.cfg.ShoppingURL+"?q="+url.QueryEscape(query)+"&tbm=shop")
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		idx := strings.Index(href, "/url?q=")
		if idx < 0 {
			return true
		}
		target := href[idx+len("/url?q="):]
		if amp := strings.Index(target, "&"); amp >= 0 {
			target = target[:amp]
		}
		if unescaped, err := url.QueryUnescape(target); err == nil {
			target = unescaped
		}
		if !strings.HasPrefix(target, "http") || strings.Contains(target, "google") {
			return true
		}
		urls = append(urls, target)
		return len(urls) < shoppingResultCap
	})

	f.logger.Debug("search complete", "engine", "shopping", "query", query, "candidates", len(urls))
	return urls, nil
}

func (f *Finder) fetchDoc(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := f.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Document()
}
