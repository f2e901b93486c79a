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

// CoinGecko fetches cryptocurrency quotes from the CoinGecko simple
// price API. No credential is required.
type CoinGecko struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewCoinGecko creates a CoinGecko adapter. baseURL points at the
// simple/price endpoint and is overridable for tests.
func NewCoinGecko(baseURL string, timeout time.Duration, logger *slog.Logger) *CoinGecko {
	return &CoinGecko{
		client:  newHTTPClient(timeout),
		baseURL: baseURL,
		logger:  logger.With("component", "coingecko"),
	}
}

func (c *CoinGecko) Name() string { return "CoinGecko API" }

// Fetch requests the USD quote and 24h change for one coin id.
func (c *CoinGecko) Fetch(ctx context.Context, id, itemName string) (*types.PriceRecord, bool, error) {
	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")
	params.Set("include_last_updated_at", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, &types.FetchError{URL: c.baseURL, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, &types.FetchError{
			URL:        c.baseURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("coingecko: unexpected status"),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &types.FetchError{URL: c.baseURL, Err: err, Retryable: true}
	}

	var data map[string]map[string]float64
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false, &types.ParseError{URL: c.baseURL, Err: err}
	}

	quote, ok := data[id]
	if !ok {
		return nil, false, nil
	}
	price, ok := quote["usd"]
	if !ok {
		return nil, false, nil
	}

	rec := &types.PriceRecord{
		ItemName:  itemName,
		Title:     fmt.Sprintf("%s (Cryptocurrency)", titleCase(itemName)),
		Price:     price,
		Currency:  "$",
		Source:    c.Name(),
		URL:       "https://www.coingecko.com/en/coins/" + id,
		Timestamp: time.Now(),
	}
	if change, ok := quote["usd_24h_change"]; ok {
		rec.Change24h = types.Float64Ptr(round2(change))
	}

	c.logger.Debug("crypto quote", "id", id, "price", price)
	return rec, true, nil
}
