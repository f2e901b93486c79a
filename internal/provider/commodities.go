package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pricehound/internal/types"
)

// Commodities fetches oil and gas prices from Alpha Vantage. Unlike the
// other adapters this one is useless without a caller-supplied API key:
// a missing key is surfaced immediately as ErrCredentialRequired so the
// item can be skipped with an explanation instead of burning a request.
type Commodities struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewCommodities creates an Alpha Vantage adapter. apiKey may be empty;
// Fetch then refuses to call out.
func NewCommodities(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Commodities {
	return &Commodities{
		client:  newHTTPClient(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger.With("component", "commodities"),
	}
}

func (c *Commodities) Name() string { return "Alpha Vantage" }

// Fetch requests the latest value of a commodity series and takes its
// most recent entry.
func (c *Commodities) Fetch(ctx context.Context, code, itemName string) (*types.PriceRecord, bool, error) {
	if c.apiKey == "" {
		return nil, false, types.ErrCredentialRequired
	}

	function := "BRENT"
	if code == "WTI" {
		function = "WTI"
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("apikey", c.apiKey)
	params.Set("datatype", "json")

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
			Err:        fmt.Errorf("alphavantage: unexpected status"),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &types.FetchError{URL: c.baseURL, Err: err, Retryable: true}
	}

	var data struct {
		Data []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false, &types.ParseError{URL: c.baseURL, Err: err}
	}
	if len(data.Data) == 0 {
		return nil, false, nil
	}

	// Series is newest-first; the first entry is the latest value.
	price, err := strconv.ParseFloat(data.Data[0].Value, 64)
	if err != nil {
		return nil, false, &types.ParseError{URL: c.baseURL, Err: err}
	}

	rec := &types.PriceRecord{
		ItemName:  itemName,
		Title:     fmt.Sprintf("%s per Barrel", titleCase(itemName)),
		Price:     round2(price),
		Currency:  "$",
		Unit:      "barrel",
		Source:    c.Name(),
		URL:       "https://www.alphavantage.co/",
		Timestamp: time.Now(),
	}

	c.logger.Debug("commodity quote", "function", function, "price", rec.Price)
	return rec, true, nil
}
