package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"pricehound/internal/config"
	"pricehound/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod.
// Some retail pages only render their price via JavaScript; this
// fetcher trades speed for seeing what a shopper sees.
type BrowserFetcher struct {
	browser *rod.Browser
	cfg     *config.Config
	logger  *slog.Logger
	stealth bool
}

// NewBrowserFetcher launches a headless Chromium and connects to it.
// With useStealth set, pages are created with automation fingerprints
// masked.
func NewBrowserFetcher(cfg *config.Config, useStealth bool, logger *slog.Logger) (*BrowserFetcher, error) {
	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf := &BrowserFetcher{
		browser: browser,
		cfg:     cfg,
		logger:  logger.With("component", "browser_fetcher"),
		stealth: useStealth,
	}

	bf.logger.Info("browser fetcher ready", "stealth", useStealth)
	return bf, nil
}

// Fetch navigates to a URL and returns the rendered page content.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()

	page, err := bf.newPage()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: false}
	}
	defer page.Close()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = bf.cfg.Crawler.RequestTimeout
	}
	page = page.Context(ctx).Timeout(timeout)

	if err := page.Navigate(req.URLString()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: false}
	}

	finalURL := req.URLString()
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"size", len(html),
		"duration", duration,
	)

	return types.NewBrowserResponse(req, 200, []byte(html), finalURL, duration), nil
}

// newPage creates a fresh page, stealth-wrapped when configured.
func (bf *BrowserFetcher) newPage() (*rod.Page, error) {
	if bf.stealth {
		return stealth.Page(bf.browser)
	}
	return bf.browser.Page(proto.TargetCreateTarget{})
}

// Close shuts down the browser.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}
