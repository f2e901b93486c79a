// Package provider holds structured-API adapters for sources that
// bypass HTML extraction entirely.
package provider

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode"

	"pricehound/internal/types"
)

// Adapter fetches a price for a resolved source code from a structured
// API. A (nil, false, nil) return is an abstention: the API answered
// but had no usable price for this code. Errors cover transport and
// configuration failures; callers recover from both by skipping the
// source.
type Adapter interface {
	// Name identifies the adapter and doubles as the record source.
	Name() string

	// Fetch returns one normalized record, an abstention, or an error.
	Fetch(ctx context.Context, code, itemName string) (*types.PriceRecord, bool, error)
}

// newHTTPClient builds the client shared by adapter constructors.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// titleCase uppercases the first letter of each space-separated word,
// matching how API records template their display titles.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// round2 rounds to two decimal places for display-grade prices.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
