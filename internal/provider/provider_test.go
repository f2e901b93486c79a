package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"pricehound/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestCoinGeckoFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "bitcoin" {
			t.Errorf("unexpected ids param: %q", r.URL.Query().Get("ids"))
		}
		if r.URL.Query().Get("vs_currencies") != "usd" {
			t.Errorf("unexpected vs_currencies param: %q", r.URL.Query().Get("vs_currencies"))
		}
		w.Write([]byte(`{"bitcoin":{"usd":65000.12,"usd_24h_change":1.49999,"last_updated_at":1700000000}}`))
	}))
	defer srv.Close()

	cg := NewCoinGecko(srv.URL, 5*time.Second, testLogger)
	rec, ok, err := cg.Fetch(context.Background(), "bitcoin", "bitcoin")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Price != 65000.12 {
		t.Errorf("price = %v, want 65000.12", rec.Price)
	}
	if rec.Change24h == nil || *rec.Change24h != 1.5 {
		t.Errorf("change = %v, want rounded 1.5", rec.Change24h)
	}
	if rec.Title != "Bitcoin (Cryptocurrency)" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Currency != "$" {
		t.Errorf("currency = %q, want $", rec.Currency)
	}
	if rec.Source != "CoinGecko API" {
		t.Errorf("source = %q", rec.Source)
	}
}

func TestCoinGeckoOmitsMissingChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":65000.12}}`))
	}))
	defer srv.Close()

	cg := NewCoinGecko(srv.URL, 5*time.Second, testLogger)
	rec, ok, err := cg.Fetch(context.Background(), "bitcoin", "bitcoin")
	if err != nil || !ok {
		t.Fatalf("fetch: ok=%v err=%v", ok, err)
	}
	if rec.Change24h != nil {
		t.Errorf("change_24h absent from the response must stay unset, got %v", *rec.Change24h)
	}
}

func TestCoinGeckoAbstainsOnUnknownID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cg := NewCoinGecko(srv.URL, 5*time.Second, testLogger)
	rec, ok, err := cg.Fetch(context.Background(), "nonexistent-coin", "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || rec != nil {
		t.Error("unknown id should be an abstention, not a record")
	}
}

func TestMetalsInvertsRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("base") != "USD" {
			t.Errorf("unexpected base: %q", r.URL.Query().Get("base"))
		}
		w.Write([]byte(`{"success":true,"rates":{"XAU":0.00047}}`))
	}))
	defer srv.Close()

	m := NewMetals(srv.URL, "http://unused.invalid", "", "", 5*time.Second, testLogger)
	rec, ok, err := m.Fetch(context.Background(), "XAU", "gold")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if !ok {
		t.Fatal("expected a record")
	}
	// 1 / 0.00047 = 2127.659..., rounded to cents.
	if rec.Price != 2127.66 {
		t.Errorf("price = %v, want 2127.66", rec.Price)
	}
	if rec.Unit != "troy oz" {
		t.Errorf("unit = %q, want troy oz", rec.Unit)
	}
	if rec.Source != "Metal Price API" {
		t.Errorf("source = %q", rec.Source)
	}
}

func TestMetalsFallsBackToQuoteEndpoint(t *testing.T) {
	rates := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer rates.Close()

	quote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/XAG/USD" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if r.Header.Get("x-access-token") == "" {
			t.Error("expected access token header")
		}
		w.Write([]byte(`{"price":28.75}`))
	}))
	defer quote.Close()

	m := NewMetals(rates.URL, quote.URL, "", "", 5*time.Second, testLogger)
	rec, ok, err := m.Fetch(context.Background(), "XAG", "silver")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if !ok {
		t.Fatal("expected the fallback endpoint to answer")
	}
	if rec.Price != 28.75 {
		t.Errorf("price = %v, want 28.75", rec.Price)
	}
	if rec.Source != "Gold API" {
		t.Errorf("source = %q, want Gold API", rec.Source)
	}
}

func TestMetalsZeroRateFallsBack(t *testing.T) {
	rates := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"XAU":0}}`))
	}))
	defer rates.Close()

	quote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":2300.5}`))
	}))
	defer quote.Close()

	m := NewMetals(rates.URL, quote.URL, "", "", 5*time.Second, testLogger)
	rec, ok, err := m.Fetch(context.Background(), "XAU", "gold")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if !ok || rec.Price != 2300.5 {
		t.Errorf("expected the fallback price, got ok=%v rec=%+v", ok, rec)
	}
}

func TestCommoditiesRequiresKey(t *testing.T) {
	c := NewCommodities("http://unused.invalid", "", 5*time.Second, testLogger)
	_, _, err := c.Fetch(context.Background(), "WTI", "crude oil")
	if !errors.Is(err, types.ErrCredentialRequired) {
		t.Fatalf("expected ErrCredentialRequired, got %v", err)
	}
}

func TestCommoditiesFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") != "WTI" {
			t.Errorf("unexpected function: %q", r.URL.Query().Get("function"))
		}
		if r.URL.Query().Get("apikey") != "test-key" {
			t.Errorf("unexpected apikey: %q", r.URL.Query().Get("apikey"))
		}
		w.Write([]byte(`{"name":"WTI","data":[{"date":"2026-08-29","value":"82.55"},{"date":"2026-08-28","value":"81.90"}]}`))
	}))
	defer srv.Close()

	c := NewCommodities(srv.URL, "test-key", 5*time.Second, testLogger)
	rec, ok, err := c.Fetch(context.Background(), "WTI", "crude oil")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Price != 82.55 {
		t.Errorf("price = %v, want the newest series value 82.55", rec.Price)
	}
	if rec.Unit != "barrel" {
		t.Errorf("unit = %q, want barrel", rec.Unit)
	}
	if rec.Title != "Crude Oil per Barrel" {
		t.Errorf("title = %q", rec.Title)
	}
}

func TestCommoditiesNaturalGasUsesBrentSeries(t *testing.T) {
	var gotFunction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFunction = r.URL.Query().Get("function")
		w.Write([]byte(`{"data":[{"date":"2026-08-29","value":"70.10"}]}`))
	}))
	defer srv.Close()

	c := NewCommodities(srv.URL, "test-key", 5*time.Second, testLogger)
	if _, _, err := c.Fetch(context.Background(), "NG", "natural gas"); err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if gotFunction != "BRENT" {
		t.Errorf("function = %q, want BRENT for non-WTI codes", gotFunction)
	}
}
