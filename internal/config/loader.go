package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("PRICEHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pricehound")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".pricehound"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers scalar default values in viper. Structured
// defaults (selector cascades, classification tables) come straight
// from DefaultConfig and survive Unmarshal when the file omits them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("crawler.pacing_interval", cfg.Crawler.PacingInterval)
	v.SetDefault("crawler.item_pacing_factor", cfg.Crawler.ItemPacingFactor)
	v.SetDefault("crawler.max_sources", cfg.Crawler.MaxSources)
	v.SetDefault("crawler.success_cap", cfg.Crawler.SuccessCap)
	v.SetDefault("crawler.request_timeout", cfg.Crawler.RequestTimeout)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)

	v.SetDefault("parser.max_line_length", cfg.Parser.MaxLineLength)
	v.SetDefault("parser.min_price", cfg.Parser.MinPrice)
	v.SetDefault("parser.max_price", cfg.Parser.MaxPrice)
	v.SetDefault("parser.fulltext_max_price", cfg.Parser.FulltextMaxPrice)

	v.SetDefault("search.engine", cfg.Search.Engine)
	v.SetDefault("search.max_results", cfg.Search.MaxResults)
	v.SetDefault("search.extra_terms", cfg.Search.ExtraTerms)
	v.SetDefault("search.duckduckgo_url", cfg.Search.DuckDuckGoURL)
	v.SetDefault("search.shopping_url", cfg.Search.ShoppingURL)

	v.SetDefault("providers.coingecko_url", cfg.Providers.CoinGeckoURL)
	v.SetDefault("providers.metals_url", cfg.Providers.MetalsURL)
	v.SetDefault("providers.goldapi_url", cfg.Providers.GoldAPIURL)
	v.SetDefault("providers.alphavantage_url", cfg.Providers.AlphaVantageURL)

	v.SetDefault("export.type", cfg.Export.Type)
	v.SetDefault("export.output_path", cfg.Export.OutputPath)
	v.SetDefault("export.mongo_database", cfg.Export.MongoDatabase)
	v.SetDefault("export.mongo_collection", cfg.Export.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
}
