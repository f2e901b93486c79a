package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for pricehound.
type Config struct {
	Crawler     CrawlerConfig     `mapstructure:"crawler"     yaml:"crawler"`
	Fetcher     FetcherConfig     `mapstructure:"fetcher"     yaml:"fetcher"`
	Parser      ParserConfig      `mapstructure:"parser"      yaml:"parser"`
	Resolver    ResolverConfig    `mapstructure:"resolver"    yaml:"resolver"`
	Search      SearchConfig      `mapstructure:"search"      yaml:"search"`
	Providers   ProvidersConfig   `mapstructure:"providers"   yaml:"providers"`
	Export      ExportConfig      `mapstructure:"export"      yaml:"export"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
	Credentials map[string]string `mapstructure:"credentials" yaml:"credentials"`
}

// CrawlerConfig controls batch collection behavior.
type CrawlerConfig struct {
	// PacingInterval is the minimum spacing between page fetches for
	// the same item. Politeness only, not a correctness mechanism.
	PacingInterval time.Duration `mapstructure:"pacing_interval" yaml:"pacing_interval"`

	// ItemPacingFactor multiplies the pacing interval between distinct
	// items.
	ItemPacingFactor int `mapstructure:"item_pacing_factor" yaml:"item_pacing_factor"`

	// MaxSources caps how many candidate URLs are probed per item.
	MaxSources int `mapstructure:"max_sources" yaml:"max_sources"`

	// SuccessCap stops probing an item once this many prices were found.
	SuccessCap int `mapstructure:"success_cap" yaml:"success_cap"`

	// RequestTimeout bounds each individual fetch.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// FetcherConfig controls the request fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"` // http or browser
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// SelectorRule is one entry in the locator's ordered selector cascade.
type SelectorRule struct {
	Selector string `mapstructure:"selector" yaml:"selector"`
	Type     string `mapstructure:"type"     yaml:"type"` // css or xpath, defaults to css
}

// ParserConfig controls price extraction from documents.
type ParserConfig struct {
	// MetaSelectors are probed first, in order; the content attribute
	// of the first present tag is parsed.
	MetaSelectors []string `mapstructure:"meta_selectors" yaml:"meta_selectors"`

	// PriceSelectors are the ordered element selectors tried after the
	// metadata pass.
	PriceSelectors []SelectorRule `mapstructure:"price_selectors" yaml:"price_selectors"`

	// MaxLineLength caps candidate lines in the full-text fallback.
	MaxLineLength int `mapstructure:"max_line_length" yaml:"max_line_length"`

	// MinPrice/MaxPrice bound plausible extractions.
	MinPrice float64 `mapstructure:"min_price" yaml:"min_price"`
	MaxPrice float64 `mapstructure:"max_price" yaml:"max_price"`

	// FulltextMaxPrice is the tighter upper bound applied by the
	// full-text fallback, where false positives are most likely.
	FulltextMaxPrice float64 `mapstructure:"fulltext_max_price" yaml:"fulltext_max_price"`
}

// AliasEntry maps a substring of an item name to a source code.
// Order within a table is significant: first match wins.
type AliasEntry struct {
	Match string `mapstructure:"match" yaml:"match"`
	Code  string `mapstructure:"code"  yaml:"code"`
}

// KnownSource maps a substring of an item name to pre-vetted page URLs.
type KnownSource struct {
	Match string   `mapstructure:"match" yaml:"match"`
	URLs  []string `mapstructure:"urls"  yaml:"urls"`
}

// ResolverConfig holds the classification tables. Tables are checked
// crypto -> metals -> commodities; the first table with a substring
// match claims the item.
type ResolverConfig struct {
	CryptoAliases  []AliasEntry  `mapstructure:"crypto_aliases"  yaml:"crypto_aliases"`
	MetalCodes     []AliasEntry  `mapstructure:"metal_codes"     yaml:"metal_codes"`
	CommodityCodes []AliasEntry  `mapstructure:"commodity_codes" yaml:"commodity_codes"`
	KnownSources   []KnownSource `mapstructure:"known_sources"   yaml:"known_sources"`
}

// SearchConfig controls open-web candidate discovery.
type SearchConfig struct {
	// Engine selects the search scraper: duckduckgo or shopping.
	Engine string `mapstructure:"engine" yaml:"engine"`

	// MaxResults caps candidate URLs returned per query.
	MaxResults int `mapstructure:"max_results" yaml:"max_results"`

	// ExtraTerms are appended to the item name in the query.
	ExtraTerms string `mapstructure:"extra_terms" yaml:"extra_terms"`

	// DuckDuckGoURL and ShoppingURL override the endpoints, mainly
	// for tests.
	DuckDuckGoURL string `mapstructure:"duckduckgo_url" yaml:"duckduckgo_url"`
	ShoppingURL   string `mapstructure:"shopping_url"   yaml:"shopping_url"`
}

// ProvidersConfig holds API endpoint overrides for structured sources.
type ProvidersConfig struct {
	CoinGeckoURL    string `mapstructure:"coingecko_url"    yaml:"coingecko_url"`
	MetalsURL       string `mapstructure:"metals_url"       yaml:"metals_url"`
	GoldAPIURL      string `mapstructure:"goldapi_url"      yaml:"goldapi_url"`
	AlphaVantageURL string `mapstructure:"alphavantage_url" yaml:"alphavantage_url"`
}

// ExportConfig controls output/storage.
type ExportConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"` // json, csv, mongo
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DefaultConfig returns a Config with sensible defaults. The selector
// cascades and classification tables mirror the battle-tested ordering
// the heuristics were tuned with; changing their order changes observable
// behavior on ambiguous documents.
func DefaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			PacingInterval:   2 * time.Second,
			ItemPacingFactor: 3,
			MaxSources:       15,
			SuccessCap:       3,
			RequestTimeout:   15 * time.Second,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Parser: ParserConfig{
			MetaSelectors: []string{
				`meta[property="product:price:amount"]`,
				`meta[property="og:price:amount"]`,
				`meta[name="price"]`,
				`meta[itemprop="price"]`,
			},
			PriceSelectors: []SelectorRule{
				{Selector: `[itemprop="price"]`},
				{Selector: `.price`},
				{Selector: `#price`},
				{Selector: `span.price`},
				{Selector: `.product-price`},
				{Selector: `.current-price`},
				{Selector: `.sale-price`},
				{Selector: `[class*="price"]`},
				{Selector: `[data-price]`},
				{Selector: `span[class*="amount"]`},
			},
			MaxLineLength:    200,
			MinPrice:         0.01,
			MaxPrice:         10_000_000,
			FulltextMaxPrice: 100_000,
		},
		Resolver: ResolverConfig{
			CryptoAliases: []AliasEntry{
				{Match: "bitcoin", Code: "bitcoin"},
				{Match: "btc", Code: "bitcoin"},
				{Match: "ethereum", Code: "ethereum"},
				{Match: "eth", Code: "ethereum"},
				{Match: "litecoin", Code: "litecoin"},
				{Match: "ltc", Code: "litecoin"},
				{Match: "ripple", Code: "ripple"},
				{Match: "xrp", Code: "ripple"},
				{Match: "cardano", Code: "cardano"},
				{Match: "ada", Code: "cardano"},
			},
			MetalCodes: []AliasEntry{
				{Match: "gold", Code: "XAU"},
				{Match: "silver", Code: "XAG"},
				{Match: "platinum", Code: "XPT"},
				{Match: "palladium", Code: "XPD"},
			},
			CommodityCodes: []AliasEntry{
				{Match: "crude oil", Code: "WTI"},
				{Match: "oil", Code: "WTI"},
				{Match: "wti", Code: "WTI"},
				{Match: "brent", Code: "BRENT"},
				{Match: "natural gas", Code: "NG"},
			},
			KnownSources: []KnownSource{
				{Match: "gold", URLs: []string{
					"https://www.kitco.com/gold-price-today-usa/",
					"https://www.bullionvault.com/gold-price-chart.do",
				}},
				{Match: "silver", URLs: []string{
					"https://www.kitco.com/silver-price-today-usa/",
					"https://www.bullionvault.com/silver-price-chart.do",
				}},
				{Match: "bitcoin", URLs: []string{
					"https://www.coindesk.com/price/bitcoin/",
					"https://coinmarketcap.com/currencies/bitcoin/",
				}},
				{Match: "crude oil", URLs: []string{
					"https://www.investing.com/commodities/crude-oil",
					"https://markets.businessinsider.com/commodities/oil-price",
				}},
			},
		},
		Search: SearchConfig{
			Engine:        "duckduckgo",
			MaxResults:    10,
			ExtraTerms:    "price buy",
			DuckDuckGoURL: "https://html.duckduckgo.com/html/",
			ShoppingURL:   "https://www.google.com/search",
		},
		Providers: ProvidersConfig{
			CoinGeckoURL:    "https://api.coingecko.com/api/v3/simple/price",
			MetalsURL:       "https://api.metalpriceapi.com/v1/latest",
			GoldAPIURL:      "https://www.goldapi.io/api",
			AlphaVantageURL: "https://www.alphavantage.co/query",
		},
		Export: ExportConfig{
			Type:            "json",
			OutputPath:      "./output",
			MongoDatabase:   "pricehound",
			MongoCollection: "price_history",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Credentials: map[string]string{},
	}
}
