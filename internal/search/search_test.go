package search

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"testing"

	"pricehound/internal/config"
	"pricehound/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// stubFetcher serves a canned body for every request and records the
// URLs it was asked for.
type stubFetcher struct {
	body string
	urls []string
}

func (s *stubFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	s.urls = append(s.urls, req.URLString())
	return &types.Response{
		Request:     req,
		StatusCode:  200,
		Body:        []byte(s.body),
		ContentType: "text/html",
	}, nil
}

func (s *stubFetcher) Close() error { return nil }
func (s *stubFetcher) Type() string { return "stub" }

func TestFindCandidatesDuckDuckGo(t *testing.T) {
	html := `<html><body>
		<a class="result__a" href="https://shop-a.example.com/item">Shop A</a>
		<a class="result__a" href="//duckduckgo.com/l/?uddg=wrapped">Redirect</a>
		<a class="result__a" href="/relative/path">Relative</a>
		<a class="result__a" href="https://shop-b.example.com/item">Shop B</a>
		<a href="https://not-a-result.example.com">Other link</a>
	</body></html>`

	f := &stubFetcher{body: html}
	cfg := &config.SearchConfig{
		Engine:        "duckduckgo",
		MaxResults:    10,
		DuckDuckGoURL: "https://search.example.com/html/",
	}

	urls, err := NewFinder(f, cfg, testLogger).FindCandidates(context.Background(), "mechanical keyboard")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}

	want := []string{"https://shop-a.example.com/item", "https://shop-b.example.com/item"}
	if len(urls) != len(want) {
		t.Fatalf("got %d candidates %v, want %d", len(urls), urls, len(want))
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("candidate[%d] = %q, want %q", i, urls[i], want[i])
		}
	}

	if len(f.urls) != 1 || !strings.Contains(f.urls[0], "q="+url.QueryEscape("mechanical keyboard")) {
		t.Errorf("expected one query-escaped search request, got %v", f.urls)
	}
}

func TestFindCandidatesMaxResults(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 8; i++ {
		b.WriteString(`<a class="result__a" href="https://shop.example.com/item` + string(rune('a'+i)) + `">x</a>`)
	}
	b.WriteString("</body></html>")

	cfg := &config.SearchConfig{
		Engine:        "duckduckgo",
		MaxResults:    3,
		DuckDuckGoURL: "https://search.example.com/html/",
	}

	urls, err := NewFinder(&stubFetcher{body: b.String()}, cfg, testLogger).FindCandidates(context.Background(), "thing")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(urls) != 3 {
		t.Errorf("expected cap at 3 candidates, got %d", len(urls))
	}
}

func TestFindCandidatesShopping(t *testing.T) {
	html := `<html><body>
		<a href="/url?q=https%3A%2F%2Fshop-a.example.com%2Fwidget&amp;sa=U">A</a>
		<a href="/url?q=https%3A%2F%2Fwww.google.com%2Fshopping&amp;sa=U">Google self-link</a>
		<a href="/url?q=https%3A%2F%2Fshop-b.example.com%2Fwidget&amp;sa=U">B</a>
		<a href="/other">Nav</a>
	</body></html>`

	cfg := &config.SearchConfig{
		Engine:      "shopping",
		MaxResults:  10,
		ShoppingURL: "https://shopping.example.com/search",
	}

	urls, err := NewFinder(&stubFetcher{body: html}, cfg, testLogger).FindCandidates(context.Background(), "widget")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}

	want := []string{"https://shop-a.example.com/widget", "https://shop-b.example.com/widget"}
	if len(urls) != len(want) {
		t.Fatalf("got %d candidates %v, want %d", len(urls), urls, len(want))
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("candidate[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}
