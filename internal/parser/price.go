package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// pricePatterns is the ordered extraction cascade. Order is load-bearing:
// the first pattern that matches and whose capture survives range
// validation wins, regardless of where later patterns would match.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\$£€¥]\s*(\d+(?:\.\d{1,2})?)`),          // $1234.56
	regexp.MustCompile(`(\d+(?:\.\d{1,2})?)\s*[\$£€¥]`),          // 1234.56$
	regexp.MustCompile(`(?i)USD\s*(\d+(?:\.\d{1,2})?)`),          // USD 1234.56
	regexp.MustCompile(`(?i)(\d+(?:\.\d{1,2})?)\s*USD`),          // 1234.56 USD
	regexp.MustCompile(`(?i)price[:\s]+\$?(\d+(?:\.\d{1,2})?)`),  // Price: $1234.56
	regexp.MustCompile(`\$(\d{1,3}(?:,?\d{3})*(?:\.\d{1,2})?)`),  // $1,234.56
}

// currencyTable maps symbols and ISO codes to display symbols, in
// detection priority order.
var currencyTable = []struct {
	match   string
	display string
}{
	{"$", "$"},
	{"£", "£"},
	{"€", "€"},
	{"¥", "¥"},
	{"USD", "$"},
	{"GBP", "£"},
	{"EUR", "€"},
	{"JPY", "¥"},
}

// PriceParser extracts a plausible numeric price from a short text
// fragment. It abstains (returns false) rather than guessing: out-of-range
// captures are expected on most candidate fragments and are not errors.
type PriceParser struct {
	min float64
	max float64
}

// NewPriceParser creates a parser with the given plausibility bounds.
// A price p is accepted only when min < p < max.
func NewPriceParser(min, max float64) *PriceParser {
	return &PriceParser{min: min, max: max}
}

// Extract returns the first in-range price found in text, or false.
func (p *PriceParser) Extract(text string) (float64, bool) {
	return p.ExtractWithin(text, p.min, p.max)
}

// ExtractWithin is Extract with caller-supplied bounds; used by the
// full-text fallback, which applies a tighter ceiling.
func (p *PriceParser) ExtractWithin(text string, min, max float64) (float64, bool) {
	// Strip thousands separators and whitespace before matching.
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(text)

	for _, re := range pricePatterns {
		match := re.FindStringSubmatch(cleaned)
		if match == nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if price > min && price < max {
			return price, true
		}
		// In-pattern match but implausible value: fall through to the
		// next pattern, not the next occurrence.
	}
	return 0, false
}

// ParseDirect parses a fragment expected to hold a bare numeric amount,
// as found in metadata content and data-price attributes. Fragments
// carrying extra text fall back to the pattern cascade.
func (p *PriceParser) ParseDirect(text string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.NewReplacer(",", "", " ", "").Replace(text))
	if price, err := strconv.ParseFloat(cleaned, 64); err == nil {
		if price > p.min && price < p.max {
			return price, true
		}
		return 0, false
	}
	return p.Extract(text)
}

// DetectCurrency scans a fragment for a currency symbol or code and
// returns the display symbol, defaulting to "$".
func (p *PriceParser) DetectCurrency(text string) string {
	upper := strings.ToUpper(text)
	for _, c := range currencyTable {
		if strings.Contains(text, c.match) || strings.Contains(upper, c.match) {
			return c.display
		}
	}
	return "$"
}
