package parser

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"pricehound/internal/config"
	"pricehound/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func makeResp(url, body string) *types.Response {
	req, _ := types.NewRequest(url)
	return &types.Response{
		Request:     req,
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html",
	}
}

func defaultLocator() *Locator {
	cfg := config.DefaultConfig()
	return NewLocator(&cfg.Parser, testLogger)
}

func TestLocateMetadataWinsOverSelectors(t *testing.T) {
	html := `<html><head>
		<title>Widget Shop</title>
		<meta property="og:price:amount" content="42.50">
	</head><body>
		<h1>Deluxe Widget</h1>
		<span class="price">$99.99</span>
	</body></html>`

	rec, ok := defaultLocator().Locate(makeResp("https://shop.example.com/widget", html), "widget")
	if !ok {
		t.Fatal("expected a price")
	}
	if rec.Price != 42.50 {
		t.Errorf("expected the metadata price 42.50, got %v", rec.Price)
	}
	if rec.Title != "Deluxe Widget" {
		t.Errorf("expected h1 title, got %q", rec.Title)
	}
	if rec.Source != "shop.example.com" {
		t.Errorf("expected host as source, got %q", rec.Source)
	}
}

func TestLocateSelectorCascade(t *testing.T) {
	html := `<html><body>
		<h1>Gadget</h1>
		<div class="product-price">$15.00</div>
		<span class="price">$12.34</span>
	</body></html>`

	rec, ok := defaultLocator().Locate(makeResp("https://example.com/gadget", html), "gadget")
	if !ok {
		t.Fatal("expected a price")
	}
	// .price ranks above .product-price in the cascade.
	if rec.Price != 12.34 {
		t.Errorf("expected 12.34 from the higher-priority selector, got %v", rec.Price)
	}
}

func TestLocateDataPriceAttributePreferred(t *testing.T) {
	html := `<html><body>
		<span class="price" data-price="10.50">Sale! $99.99</span>
	</body></html>`

	rec, ok := defaultLocator().Locate(makeResp("https://example.com", html), "thing")
	if !ok {
		t.Fatal("expected a price")
	}
	if rec.Price != 10.50 {
		t.Errorf("expected the data-price value 10.50, got %v", rec.Price)
	}
}

func TestLocateFulltextFallback(t *testing.T) {
	html := `<html><body>
		<p>The best deal in town.</p>
		<p>Special price: $49.99 while stocks last</p>
	</body></html>`

	rec, ok := defaultLocator().Locate(makeResp("https://example.com", html), "thing")
	if !ok {
		t.Fatal("expected the full-text fallback to find a price")
	}
	if rec.Price != 49.99 {
		t.Errorf("expected 49.99, got %v", rec.Price)
	}
}

func TestLocateFulltextIgnoresScripts(t *testing.T) {
	html := `<html><body>
		<script>var price = "$12.99";</script>
		<p>No prices here.</p>
	</body></html>`

	if _, ok := defaultLocator().Locate(makeResp("https://example.com", html), "thing"); ok {
		t.Error("script content must not yield a price")
	}
}

func TestLocateFulltextTighterCeiling(t *testing.T) {
	// 500000 is within the structured bounds but above the full-text
	// ceiling, so a page offering it only in prose yields nothing.
	html := `<html><body><p>price: $500000</p></body></html>`

	if _, ok := defaultLocator().Locate(makeResp("https://example.com", html), "mansion"); ok {
		t.Error("full-text ceiling should reject 500000")
	}
}

func TestLocateFulltextCountsRunesNotBytes(t *testing.T) {
	// Byte length is well past the line cap but the rune count is not;
	// multi-byte currency symbols must not trip the cap early.
	line := strings.Repeat("€", 120) + " 49.99"
	html := `<html><body><p>` + line + `</p></body></html>`

	rec, ok := defaultLocator().Locate(makeResp("https://example.com", html), "thing")
	if !ok {
		t.Fatal("expected the full-text scan to keep a rune-short line")
	}
	if rec.Price != 49.99 {
		t.Errorf("price = %v, want 49.99", rec.Price)
	}
}

func TestLocateNonSuccessResponse(t *testing.T) {
	html := `<html><body><span class="price">$9.99</span></body></html>`
	resp := makeResp("https://example.com", html)
	resp.StatusCode = 503

	if _, ok := defaultLocator().Locate(resp, "thing"); ok {
		t.Error("error pages must not yield prices")
	}
}

func TestLocateAbstains(t *testing.T) {
	html := `<html><body><p>Contact us for availability.</p></body></html>`

	if rec, ok := defaultLocator().Locate(makeResp("https://example.com", html), "thing"); ok {
		t.Errorf("expected abstention, got record %+v", rec)
	}
}

func TestXPathSelectorRule(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Parser.PriceSelectors = []config.SelectorRule{
		{Selector: `//div[@id="cost"]`, Type: "xpath"},
	}
	loc := NewLocator(&cfg.Parser, testLogger)

	html := `<html><body><div id="cost">$77.70</div></body></html>`
	rec, ok := loc.Locate(makeResp("https://example.com", html), "thing")
	if !ok {
		t.Fatal("expected the xpath rule to find a price")
	}
	if rec.Price != 77.70 {
		t.Errorf("expected 77.70, got %v", rec.Price)
	}
}

func TestDeriveTitle(t *testing.T) {
	t.Run("falls back to title element", func(t *testing.T) {
		html := `<html><head><title>Page Title</title></head>
			<body><span class="price">$5.00</span></body></html>`
		rec, ok := defaultLocator().Locate(makeResp("https://example.com", html), "thing")
		if !ok {
			t.Fatal("expected a price")
		}
		if rec.Title != "Page Title" {
			t.Errorf("expected title element, got %q", rec.Title)
		}
	})

	t.Run("falls back to item name", func(t *testing.T) {
		html := `<html><body><span class="price">$5.00</span></body></html>`
		rec, ok := defaultLocator().Locate(makeResp("https://example.com", html), "my thing")
		if !ok {
			t.Fatal("expected a price")
		}
		if rec.Title != "my thing" {
			t.Errorf("expected item name, got %q", rec.Title)
		}
	})

	t.Run("truncates long titles", func(t *testing.T) {
		long := strings.Repeat("x", 150)
		html := `<html><body><h1>` + long + `</h1><span class="price">$5.00</span></body></html>`
		rec, ok := defaultLocator().Locate(makeResp("https://example.com", html), "thing")
		if !ok {
			t.Fatal("expected a price")
		}
		if got := len([]rune(rec.Title)); got != 100 {
			t.Errorf("expected title truncated to 100 runes, got %d", got)
		}
	})
}
