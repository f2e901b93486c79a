package config

import (
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero success cap", func(c *Config) { c.Crawler.SuccessCap = 0 }},
		{"zero max sources", func(c *Config) { c.Crawler.MaxSources = 0 }},
		{"bad fetcher type", func(c *Config) { c.Fetcher.Type = "carrier-pigeon" }},
		{"inverted price bounds", func(c *Config) { c.Parser.MaxPrice = c.Parser.MinPrice }},
		{"bad selector type", func(c *Config) {
			c.Parser.PriceSelectors = []SelectorRule{{Selector: ".p", Type: "jsonpath"}}
		}},
		{"bad search engine", func(c *Config) { c.Search.Engine = "bing" }},
		{"bad export type", func(c *Config) { c.Export.Type = "xml" }},
		{"mongo without uri", func(c *Config) { c.Export.Type = "mongo"; c.Export.MongoURI = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://example.com/page"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	if err := ValidateURL("ftp://example.com"); err == nil {
		t.Error("expected non-http scheme to be rejected")
	}
	if err := ValidateURL("https://"); err == nil {
		t.Error("expected hostless URL to be rejected")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load without a config file should succeed: %v", err)
	}
	if cfg.Crawler.SuccessCap != 3 {
		t.Errorf("success cap = %d, want default 3", cfg.Crawler.SuccessCap)
	}
	if len(cfg.Resolver.CryptoAliases) == 0 {
		t.Error("classification tables should survive loading")
	}
}
