package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Crawler.PacingInterval < 0 {
		return fmt.Errorf("crawler.pacing_interval must be >= 0")
	}
	if cfg.Crawler.ItemPacingFactor < 1 {
		return fmt.Errorf("crawler.item_pacing_factor must be >= 1, got %d", cfg.Crawler.ItemPacingFactor)
	}
	if cfg.Crawler.MaxSources < 1 {
		return fmt.Errorf("crawler.max_sources must be >= 1, got %d", cfg.Crawler.MaxSources)
	}
	if cfg.Crawler.SuccessCap < 1 {
		return fmt.Errorf("crawler.success_cap must be >= 1, got %d", cfg.Crawler.SuccessCap)
	}
	if cfg.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	if cfg.Parser.MinPrice <= 0 {
		return fmt.Errorf("parser.min_price must be > 0")
	}
	if cfg.Parser.MaxPrice <= cfg.Parser.MinPrice {
		return fmt.Errorf("parser.max_price must be > min_price")
	}
	if cfg.Parser.FulltextMaxPrice <= cfg.Parser.MinPrice {
		return fmt.Errorf("parser.fulltext_max_price must be > min_price")
	}
	if cfg.Parser.MaxLineLength < 1 {
		return fmt.Errorf("parser.max_line_length must be >= 1, got %d", cfg.Parser.MaxLineLength)
	}
	for _, rule := range cfg.Parser.PriceSelectors {
		if rule.Type != "" && rule.Type != "css" && rule.Type != "xpath" {
			return fmt.Errorf("parser selector type must be 'css' or 'xpath', got %q", rule.Type)
		}
	}

	if cfg.Search.Engine != "duckduckgo" && cfg.Search.Engine != "shopping" {
		return fmt.Errorf("search.engine must be 'duckduckgo' or 'shopping', got %q", cfg.Search.Engine)
	}
	if cfg.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be >= 1, got %d", cfg.Search.MaxResults)
	}

	validExportTypes := map[string]bool{
		"json": true, "csv": true, "mongo": true,
	}
	if !validExportTypes[cfg.Export.Type] {
		return fmt.Errorf("export.type %q is not supported (valid: json, csv, mongo)", cfg.Export.Type)
	}
	if cfg.Export.Type == "mongo" && cfg.Export.MongoURI == "" {
		return fmt.Errorf("export.mongo_uri is required when export.type is 'mongo'")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a fetch target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
