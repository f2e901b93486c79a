package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"pricehound/internal/config"
)

// MetaStrategy probes an ordered list of meta-tag selectors and parses
// the content attribute of the first tag that yields a valid price.
type MetaStrategy struct {
	Selectors []string
	Prices    *PriceParser
}

func (s *MetaStrategy) Name() string { return "metadata" }

func (s *MetaStrategy) Attempt(doc *goquery.Document) (Extraction, bool) {
	for _, sel := range s.Selectors {
		content, exists := doc.Find(sel).First().Attr("content")
		if !exists || content == "" {
			continue
		}
		if price, ok := s.Prices.ParseDirect(content); ok {
			return Extraction{Price: price, Fragment: content, Strategy: s.Name()}, true
		}
	}
	return Extraction{}, false
}

// SelectorStrategy probes ordered element selectors targeting price-ish
// class/id/attribute names. A data-price attribute wins over rendered
// text. The cascade stops at the first selector index that yields any
// valid price; later, lower-priority selectors are never consulted once
// one succeeds.
type SelectorStrategy struct {
	Rules  []config.SelectorRule
	Prices *PriceParser
}

func (s *SelectorStrategy) Name() string { return "selectors" }

func (s *SelectorStrategy) Attempt(doc *goquery.Document) (Extraction, bool) {
	for _, rule := range s.Rules {
		var ext Extraction
		var found bool

		if rule.Type == "xpath" {
			ext, found = s.attemptXPath(doc, rule.Selector)
		} else {
			ext, found = s.attemptCSS(doc, rule.Selector)
		}
		if found {
			ext.Strategy = s.Name()
			return ext, true
		}
	}
	return Extraction{}, false
}

func (s *SelectorStrategy) attemptCSS(doc *goquery.Document, selector string) (Extraction, bool) {
	var ext Extraction
	var found bool

	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if attr, ok := sel.Attr("data-price"); ok && attr != "" {
			if price, ok := s.Prices.ParseDirect(attr); ok {
				ext = Extraction{Price: price, Fragment: attr}
				found = true
				return false
			}
		}
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			if price, ok := s.Prices.Extract(text); ok {
				ext = Extraction{Price: price, Fragment: text}
				found = true
				return false
			}
		}
		return true
	})

	return ext, found
}

func (s *SelectorStrategy) attemptXPath(doc *goquery.Document, expr string) (Extraction, bool) {
	root := rootNode(doc)
	if root == nil {
		return Extraction{}, false
	}

	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return Extraction{}, false
	}

	for _, n := range nodes {
		if attr := htmlquery.SelectAttr(n, "data-price"); attr != "" {
			if price, ok := s.Prices.ParseDirect(attr); ok {
				return Extraction{Price: price, Fragment: attr}, true
			}
		}
		text := strings.TrimSpace(htmlquery.InnerText(n))
		if text != "" {
			if price, ok := s.Prices.Extract(text); ok {
				return Extraction{Price: price, Fragment: text}, true
			}
		}
	}
	return Extraction{}, false
}

// FulltextStrategy is the last resort: scan the page's visible text line
// by line, keeping short lines that mention a currency symbol or the
// word "price", and parse each in document order. It applies a tighter
// price ceiling than the structured strategies since this is where false
// positives live.
type FulltextStrategy struct {
	MaxLineLength int
	MinPrice      float64
	MaxPrice      float64
	Prices        *PriceParser
}

func (s *FulltextStrategy) Name() string { return "fulltext" }

func (s *FulltextStrategy) Attempt(doc *goquery.Document) (Extraction, bool) {
	for _, line := range strings.Split(visibleText(doc), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || utf8.RuneCountInString(line) >= s.MaxLineLength {
			continue
		}
		if !strings.ContainsAny(line, "$£€¥") && !strings.Contains(strings.ToLower(line), "price") {
			continue
		}
		if price, ok := s.Prices.ExtractWithin(line, s.MinPrice, s.MaxPrice); ok {
			return Extraction{Price: price, Fragment: line, Strategy: s.Name()}, true
		}
	}
	return Extraction{}, false
}

// visibleText returns the rendered text of the page body with script,
// style, and other non-content elements removed.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Text()
	}
	clone := body.Clone()
	clone.Find("script, style, noscript, template").Remove()
	return clone.Text()
}

// rootNode exposes the underlying html node tree goquery parsed, so
// xpath expressions can run over the same document.
func rootNode(doc *goquery.Document) *html.Node {
	if len(doc.Nodes) == 0 {
		return nil
	}
	return doc.Nodes[0]
}
