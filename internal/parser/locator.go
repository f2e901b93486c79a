package parser

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pricehound/internal/config"
	"pricehound/internal/types"
)

const maxTitleLength = 100

// Extraction is a price-bearing fragment located in a document. The raw
// fragment is kept so currency detection can run over the same text the
// price came from.
type Extraction struct {
	Price    float64
	Fragment string
	Strategy string
}

// Strategy is one attempt at locating a price in a parsed document.
// Strategies abstain by returning false; abstention is the expected
// outcome for most arbitrary pages and is never an error.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Attempt tries to locate a price-bearing fragment.
	Attempt(doc *goquery.Document) (Extraction, bool)
}

// Locator runs an ordered strategy cascade over a document to find the
// most plausible price. Each strategy is tried only when every earlier
// one has fully abstained.
type Locator struct {
	strategies []Strategy
	prices     *PriceParser
	logger     *slog.Logger
}

// NewLocator builds a locator with the default cascade: metadata tags,
// then element selectors, then the full-text line scan.
func NewLocator(cfg *config.ParserConfig, logger *slog.Logger) *Locator {
	prices := NewPriceParser(cfg.MinPrice, cfg.MaxPrice)

	return &Locator{
		prices: prices,
		strategies: []Strategy{
			&MetaStrategy{Selectors: cfg.MetaSelectors, Prices: prices},
			&SelectorStrategy{Rules: cfg.PriceSelectors, Prices: prices},
			&FulltextStrategy{
				MaxLineLength: cfg.MaxLineLength,
				MinPrice:      cfg.MinPrice,
				MaxPrice:      cfg.FulltextMaxPrice,
				Prices:        prices,
			},
		},
		logger: logger.With("component", "locator"),
	}
}

// NewLocatorWithStrategies builds a locator with a caller-supplied
// cascade, preserving the given order.
func NewLocatorWithStrategies(strategies []Strategy, prices *PriceParser, logger *slog.Logger) *Locator {
	return &Locator{
		strategies: strategies,
		prices:     prices,
		logger:     logger.With("component", "locator"),
	}
}

// Locate runs the cascade over a fetched page and builds a PriceRecord
// on success. A false return means no strategy found a plausible price;
// callers treat that as a skipped source, not a failure.
func (l *Locator) Locate(resp *types.Response, itemName string) (*types.PriceRecord, bool) {
	if !resp.IsSuccess() {
		l.logger.Debug("non-success response", "url", resp.Request.URLString(), "status", resp.StatusCode)
		return nil, false
	}

	doc, err := resp.Document()
	if err != nil {
		l.logger.Debug("document parse failed", "url", resp.Request.URLString(), "error", err)
		return nil, false
	}

	for _, s := range l.strategies {
		ext, ok := s.Attempt(doc)
		if !ok {
			continue
		}

		l.logger.Debug("price located",
			"url", resp.Request.URLString(),
			"strategy", s.Name(),
			"price", ext.Price,
		)

		return &types.PriceRecord{
			ItemName:  itemName,
			Title:     deriveTitle(doc, itemName),
			Price:     ext.Price,
			Currency:  l.prices.DetectCurrency(ext.Fragment),
			Source:    resp.Request.Host(),
			URL:       resp.Request.URLString(),
			Timestamp: time.Now(),
		}, true
	}

	l.logger.Debug("no price found", "url", resp.Request.URLString())
	return nil, false
}

// deriveTitle prefers the first h1, then the title element, then the
// item name itself. Page-derived titles are truncated.
func deriveTitle(doc *goquery.Document, itemName string) string {
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		return itemName
	}
	return truncate(title, maxTitleLength)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
