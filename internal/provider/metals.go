package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"pricehound/internal/types"
)

// Metals fetches precious-metal spot prices. The primary endpoint
// returns USD-base exchange rates, so the quoted rate must be inverted
// to get a price per troy ounce. When the primary endpoint fails or
// answers without the requested code, a secondary single-metal quote
// endpoint is consulted, which returns the price directly.
type Metals struct {
	client     *http.Client
	ratesURL   string
	quoteURL   string
	ratesKey   string
	quoteToken string
	logger     *slog.Logger
}

// NewMetals creates a metals adapter. Empty credentials fall back to
// the providers' demo keys.
func NewMetals(ratesURL, quoteURL, ratesKey, quoteToken string, timeout time.Duration, logger *slog.Logger) *Metals {
	if ratesKey == "" {
		ratesKey = "demo"
	}
	if quoteToken == "" {
		quoteToken = "goldapi-demo-key"
	}
	return &Metals{
		client:     newHTTPClient(timeout),
		ratesURL:   ratesURL,
		quoteURL:   quoteURL,
		ratesKey:   ratesKey,
		quoteToken: quoteToken,
		logger:     logger.With("component", "metals"),
	}
}

func (m *Metals) Name() string { return "Metal Price API" }

// Fetch requests the latest quote for one metal code (XAU, XAG, ...).
func (m *Metals) Fetch(ctx context.Context, code, itemName string) (*types.PriceRecord, bool, error) {
	rec, ok, err := m.fetchRates(ctx, code, itemName)
	if err == nil && ok {
		return rec, true, nil
	}
	if err != nil {
		m.logger.Debug("primary metals endpoint failed, trying fallback", "code", code, "error", err)
	}
	return m.fetchQuote(ctx, code, itemName)
}

func (m *Metals) fetchRates(ctx context.Context, code, itemName string) (*types.PriceRecord, bool, error) {
	params := url.Values{}
	params.Set("api_key", m.ratesKey)
	params.Set("base", "USD")
	params.Set("currencies", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.ratesURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, false, &types.FetchError{URL: m.ratesURL, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, &types.FetchError{
			URL:        m.ratesURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("metals: unexpected status"),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &types.FetchError{URL: m.ratesURL, Err: err, Retryable: true}
	}

	var data struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false, &types.ParseError{URL: m.ratesURL, Err: err}
	}

	rate, ok := data.Rates[code]
	if !ok || rate <= 0 {
		// Zero/negative rate would invert to nonsense; let the
		// fallback endpoint answer instead.
		return nil, false, nil
	}

	price := round2(1 / rate)
	m.logger.Debug("metal rate", "code", code, "rate", rate, "price", price)

	return m.record(itemName, price, m.Name(), "https://www.metalpriceapi.com/"), true, nil
}

// fetchQuote is the fallback: a per-metal endpoint returning the price
// field directly, no inversion.
func (m *Metals) fetchQuote(ctx context.Context, code, itemName string) (*types.PriceRecord, bool, error) {
	u := fmt.Sprintf("%s/%s/USD", m.quoteURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("x-access-token", m.quoteToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, false, &types.FetchError{URL: u, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, &types.FetchError{
			URL:        u,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("goldapi: unexpected status"),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &types.FetchError{URL: u, Err: err, Retryable: true}
	}

	var data struct {
		Price *float64 `json:"price"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false, &types.ParseError{URL: u, Err: err}
	}
	if data.Price == nil {
		return nil, false, nil
	}

	m.logger.Debug("metal quote", "code", code, "price", *data.Price)
	return m.record(itemName, round2(*data.Price), "Gold API", "https://www.goldapi.io/"), true, nil
}

func (m *Metals) record(itemName string, price float64, source, pageURL string) *types.PriceRecord {
	return &types.PriceRecord{
		ItemName:  itemName,
		Title:     fmt.Sprintf("%s per Troy Ounce", titleCase(itemName)),
		Price:     price,
		Currency:  "$",
		Unit:      "troy oz",
		Source:    source,
		URL:       pageURL,
		Timestamp: time.Now(),
	}
}
