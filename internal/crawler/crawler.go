// Package crawler drives the collection run: it resolves items to
// sources, probes each source through the right path, and accumulates
// the resulting records into an append-only price history.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pricehound/internal/config"
	"pricehound/internal/fetcher"
	"pricehound/internal/parser"
	"pricehound/internal/pipeline"
	"pricehound/internal/provider"
	"pricehound/internal/resolver"
	"pricehound/internal/search"
	"pricehound/internal/types"
)

// Crawler collects prices for a batch of item names.
type Crawler struct {
	cfg      *config.Config
	resolver *resolver.Resolver
	fetcher  fetcher.Fetcher
	locator  *parser.Locator
	finder   *search.Finder
	adapters map[string]provider.Adapter
	pipeline *pipeline.Pipeline
	pacer    *pacer
	logger   *slog.Logger

	mu      sync.Mutex
	history []types.PriceRecord
}

// Deps bundles the collaborators a Crawler is built from.
type Deps struct {
	Resolver *resolver.Resolver
	Fetcher  fetcher.Fetcher
	Locator  *parser.Locator
	Finder   *search.Finder

	// Adapters is keyed by source kind (crypto, metal, commodity).
	Adapters map[string]provider.Adapter

	Pipeline *pipeline.Pipeline
}

// New creates a Crawler.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Crawler {
	return &Crawler{
		cfg:      cfg,
		resolver: deps.Resolver,
		fetcher:  deps.Fetcher,
		locator:  deps.Locator,
		finder:   deps.Finder,
		adapters: deps.Adapters,
		pipeline: deps.Pipeline,
		pacer:    newPacer(cfg.Crawler.PacingInterval),
		logger:   logger.With("component", "crawler"),
	}
}

// Collect gathers prices for each item in order and returns them keyed
// by item name. Items that yielded nothing map to an empty slice. The
// only error returned is context cancellation; per-source failures are
// logged and skipped.
func (c *Crawler) Collect(ctx context.Context, items []string) (map[string][]types.PriceRecord, error) {
	if c.pipeline != nil {
		// Dedupe and similar middleware state is scoped to one run; a
		// price unchanged since the previous run is still a new record.
		c.pipeline.Reset()
	}

	results := make(map[string][]types.PriceRecord, len(items))

	for i, item := range items {
		if i > 0 {
			if err := c.pacer.WaitN(ctx, c.cfg.Crawler.ItemPacingFactor); err != nil {
				return results, err
			}
		}

		records, err := c.collectItem(ctx, item)
		results[item] = records
		if err != nil {
			return results, err
		}

		c.logger.Info("item complete", "item", item, "records", len(records))
	}

	return results, nil
}

// collectItem walks the item's resolved sources in order, stopping once
// the success cap is reached. Fallback sources are consulted only when
// everything before them came up empty.
func (c *Crawler) collectItem(ctx context.Context, item string) ([]types.PriceRecord, error) {
	records := []types.PriceRecord{}

	for _, src := range c.resolver.Resolve(item) {
		if src.Fallback && len(records) > 0 {
			continue
		}
		if len(records) >= c.cfg.Crawler.SuccessCap {
			break
		}

		var (
			found []types.PriceRecord
			err   error
		)
		switch src.Kind {
		case resolver.KindCrypto, resolver.KindMetal, resolver.KindCommodity:
			found, err = c.probeAPI(ctx, src, item)
		case resolver.KindPage:
			found, err = c.probePages(ctx, src.URLs, item, c.cfg.Crawler.SuccessCap-len(records))
		case resolver.KindSearch:
			found, err = c.probeSearch(ctx, src.Query, item, c.cfg.Crawler.SuccessCap-len(records))
		}
		if err != nil {
			return records, err
		}
		records = append(records, found...)
	}

	c.mu.Lock()
	c.history = append(c.history, records...)
	c.mu.Unlock()

	return records, nil
}

// probeAPI asks the adapter registered for the source kind. A missing
// credential or adapter failure skips the source; abstention is silent.
func (c *Crawler) probeAPI(ctx context.Context, src resolver.Source, item string) ([]types.PriceRecord, error) {
	adapter, ok := c.adapters[src.Kind]
	if !ok {
		c.logger.Warn("no adapter for source kind", "kind", src.Kind, "item", item)
		return nil, nil
	}

	rec, ok, err := adapter.Fetch(ctx, src.Code, item)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if errors.Is(err, types.ErrCredentialRequired) {
			c.logger.Warn("source needs an API key, skipping",
				"item", item, "adapter", adapter.Name())
			return nil, nil
		}
		c.logger.Warn("api fetch failed", "item", item, "adapter", adapter.Name(), "error", err)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	return c.admit(rec), nil
}

// probePages fetches candidate pages in order and extracts prices until
// the remaining cap is exhausted.
func (c *Crawler) probePages(ctx context.Context, urls []string, item string, remaining int) ([]types.PriceRecord, error) {
	var records []types.PriceRecord

	for i, rawURL := range urls {
		if len(records) >= remaining {
			break
		}
		if i >= c.cfg.Crawler.MaxSources {
			break
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return records, err
		}

		rec, ok, err := c.probePage(ctx, rawURL, item)
		if err != nil {
			return records, err
		}
		if ok {
			records = append(records, c.admit(rec)...)
		}
	}

	return records, nil
}

// probePage fetches one URL and runs the locator over it. Every failure
// mode short of context cancellation is a skip.
func (c *Crawler) probePage(ctx context.Context, rawURL, item string) (*types.PriceRecord, bool, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		c.logger.Debug("skipping malformed url", "url", rawURL, "error", err)
		return nil, false, nil
	}
	req.ItemName = item
	req.Timeout = c.cfg.Crawler.RequestTimeout

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, false, err
		}
		var fe *types.FetchError
		if errors.As(err, &fe) {
			c.logger.Debug("fetch failed", "url", rawURL, "retryable", fe.IsRetryable(), "error", err)
		} else {
			c.logger.Debug("fetch failed", "url", rawURL, "error", err)
		}
		return nil, false, nil
	}

	rec, ok := c.locator.Locate(resp, item)
	return rec, ok, nil
}

// probeSearch discovers candidate pages for the query and probes them.
func (c *Crawler) probeSearch(ctx context.Context, query, item string, remaining int) ([]types.PriceRecord, error) {
	urls, err := c.finder.FindCandidates(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Warn("search failed", "query", query, "error", err)
		return nil, nil
	}
	if len(urls) > c.cfg.Crawler.MaxSources {
		urls = urls[:c.cfg.Crawler.MaxSources]
	}

	return c.probePages(ctx, urls, item, remaining)
}

// admit runs a record through the post-processing pipeline and returns
// it as a zero-or-one element slice.
func (c *Crawler) admit(rec *types.PriceRecord) []types.PriceRecord {
	if c.pipeline == nil {
		return []types.PriceRecord{*rec}
	}

	processed, err := c.pipeline.Process(rec)
	if err != nil {
		c.logger.Warn("pipeline rejected record", "item", rec.ItemName, "error", err)
		return nil
	}
	if processed == nil {
		return nil
	}
	return []types.PriceRecord{*processed}
}

// History returns a copy of every record collected so far, in
// collection order.
func (c *Crawler) History() []types.PriceRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]types.PriceRecord, len(c.history))
	copy(out, c.history)
	return out
}

// Compare reduces collected records to per-item summaries. Items with
// no records are omitted entirely rather than reported with zeroes.
func Compare(results map[string][]types.PriceRecord) map[string]types.ComparisonSummary {
	summaries := make(map[string]types.ComparisonSummary)

	for item, records := range results {
		if len(records) == 0 {
			continue
		}

		summary := types.ComparisonSummary{
			Lowest:  records[0].Price,
			Highest: records[0].Price,
		}
		var sum float64
		for _, rec := range records {
			summary.Prices = append(summary.Prices, types.SourcePrice{
				Source:   rec.Source,
				Price:    rec.Price,
				Currency: rec.Currency,
				URL:      rec.URL,
			})
			if rec.Price < summary.Lowest {
				summary.Lowest = rec.Price
			}
			if rec.Price > summary.Highest {
				summary.Highest = rec.Price
			}
			sum += rec.Price
		}
		summary.Average = sum / float64(len(records))

		summaries[item] = summary
	}

	return summaries
}
