package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pricehound/internal/config"
	"pricehound/internal/crawler"
	"pricehound/internal/export"
	"pricehound/internal/fetcher"
	"pricehound/internal/parser"
	"pricehound/internal/pipeline"
	"pricehound/internal/provider"
	"pricehound/internal/resolver"
	"pricehound/internal/search"
	"pricehound/internal/types"
)

var (
	cfgFile      string
	verbose      bool
	outputPath   string
	outputFormat string
	delay        string
	maxSources   int
	successCap   int
	searchEngine string
	fetcherType  string
	useStealth   bool
	apiKeys      []string
	mongoURI     string
	showCompare  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pricehound",
		Short: "PriceHound — multi-source price lookup",
		Long: `PriceHound looks up current prices for arbitrary item names.

Items are classified and routed to the best source for them:
  • Cryptocurrencies  — CoinGecko API
  • Precious metals   — Metal Price API, Gold API fallback
  • Oil and gas       — Alpha Vantage (API key required)
  • Everything else   — known price pages, then web search + extraction

Results can be compared across sources and exported as JSON, CSV, or
into MongoDB.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// fetchCmd creates the "fetch" subcommand.
func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [item...]",
		Short: "Fetch current prices for one or more items",
		Long:  "Fetch current prices for the given item names, e.g.: pricehound fetch bitcoin gold \"iphone 15\"",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFetch,
	}

	addFetchFlags(cmd)
	return cmd
}

// addFetchFlags registers the collection flags shared by fetch and watch.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: json, csv, mongo")
	cmd.Flags().StringVar(&delay, "delay", "", "pacing interval between page fetches")
	cmd.Flags().IntVarP(&maxSources, "max-sources", "m", 0, "max candidate pages probed per item")
	cmd.Flags().IntVar(&successCap, "success-cap", 0, "stop probing an item after this many prices")
	cmd.Flags().StringVar(&searchEngine, "engine", "", "search engine: duckduckgo or shopping")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher type: http or browser")
	cmd.Flags().BoolVar(&useStealth, "stealth", false, "mask automation fingerprints (browser fetcher only)")
	cmd.Flags().StringArrayVar(&apiKeys, "api-key", nil, "provider credential as name=key (e.g. alphavantage=XYZ); repeatable")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string for mongo export")
	cmd.Flags().BoolVar(&showCompare, "compare", true, "print a cross-source comparison per item")
}

// runFetch executes the fetch command.
func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := setupLogger(&cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	c, cleanup, err := buildCrawler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting collection",
		"items", args,
		"fetcher", cfg.Fetcher.Type,
		"engine", cfg.Search.Engine,
		"format", cfg.Export.Type,
	)

	start := time.Now()
	results, err := c.Collect(ctx, args)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	elapsed := time.Since(start)

	printResults(args, results)
	if showCompare {
		printComparison(args, crawler.Compare(results))
	}

	if err := exportResults(cfg, c.History(), logger); err != nil {
		return err
	}

	total := 0
	for _, recs := range results {
		total += len(recs)
	}
	fmt.Printf("\n✅ Collection complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Items:   %d requested\n", len(args))
	fmt.Printf("   Prices:  %d found\n", total)
	if cfg.Export.Type != "mongo" {
		fmt.Printf("   Output:  %s\n", cfg.Export.OutputPath)
	}

	return nil
}

// buildCrawler wires the collaborators from config. The returned
// cleanup closes the fetcher.
func buildCrawler(cfg *config.Config, logger *slog.Logger) (*crawler.Crawler, func(), error) {
	var (
		f   fetcher.Fetcher
		err error
	)
	if cfg.Fetcher.Type == "browser" {
		f, err = fetcher.NewBrowserFetcher(cfg, useStealth, logger)
	} else {
		f, err = fetcher.NewHTTPFetcher(cfg, logger)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create fetcher: %w", err)
	}

	timeout := cfg.Crawler.RequestTimeout
	adapters := map[string]provider.Adapter{
		resolver.KindCrypto: provider.NewCoinGecko(cfg.Providers.CoinGeckoURL, timeout, logger),
		resolver.KindMetal: provider.NewMetals(
			cfg.Providers.MetalsURL,
			cfg.Providers.GoldAPIURL,
			cfg.Credentials["metalpriceapi"],
			cfg.Credentials["goldapi"],
			timeout, logger,
		),
		resolver.KindCommodity: provider.NewCommodities(
			cfg.Providers.AlphaVantageURL,
			cfg.Credentials["alphavantage"],
			timeout, logger,
		),
	}

	pipe := pipeline.New(logger)
	pipe.Use(&pipeline.TrimMiddleware{})
	pipe.Use(&pipeline.TitleLimitMiddleware{})
	pipe.Use(&pipeline.RangeGuardMiddleware{Min: cfg.Parser.MinPrice, Max: cfg.Parser.MaxPrice})
	pipe.Use(pipeline.NewDedupeMiddleware())
	logger.Debug("pipeline configured", "middlewares", pipe.Len())

	c := crawler.New(cfg, crawler.Deps{
		Resolver: resolver.New(&cfg.Resolver, cfg.Search.ExtraTerms, logger),
		Fetcher:  f,
		Locator:  parser.NewLocator(&cfg.Parser, logger),
		Finder:   search.NewFinder(f, &cfg.Search, logger),
		Adapters: adapters,
		Pipeline: pipe,
	}, logger)

	return c, func() { _ = f.Close() }, nil
}

// exportResults writes the collected history through the configured
// backend.
func exportResults(cfg *config.Config, records []types.PriceRecord, logger *slog.Logger) error {
	var (
		store export.Storage
		err   error
	)
	if cfg.Export.Type == "mongo" {
		store, err = export.NewMongoStorage(cfg.Export.MongoURI, cfg.Export.MongoDatabase, cfg.Export.MongoCollection, logger)
	} else {
		store, err = export.NewFileStorage(cfg.Export.Type, cfg.Export.OutputPath, logger)
	}
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}

	if err := store.Store(records); err != nil {
		_ = store.Close()
		return fmt.Errorf("export: %w", err)
	}
	return store.Close()
}

// printResults prints per-item records in request order.
func printResults(items []string, results map[string][]types.PriceRecord) {
	for _, item := range items {
		records := results[item]
		fmt.Printf("\n%s\n", strings.ToUpper(item))
		if len(records) == 0 {
			fmt.Println("   no price found")
			continue
		}
		for _, rec := range records {
			line := fmt.Sprintf("   %s%.2f", rec.Currency, rec.Price)
			if rec.Unit != "" {
				line += " / " + rec.Unit
			}
			if rec.Change24h != nil {
				line += fmt.Sprintf(" (24h %+.2f%%)", *rec.Change24h)
			}
			fmt.Printf("%s — %s\n", line, rec.Source)
		}
	}
}

// printComparison prints lowest/highest/average per item. Items without
// records are silently left out.
func printComparison(items []string, summaries map[string]types.ComparisonSummary) {
	keys := make([]string, 0, len(summaries))
	for _, item := range items {
		if _, ok := summaries[item]; ok {
			keys = append(keys, item)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return
	}

	fmt.Println("\nCOMPARISON")
	for _, item := range keys {
		s := summaries[item]
		fmt.Printf("   %-20s low %.2f  high %.2f  avg %.2f  (%d sources)\n",
			item, s.Lowest, s.Highest, s.Average, len(s.Prices))
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PriceHound %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Crawler:\n")
			fmt.Printf("  Pacing Interval:   %s\n", cfg.Crawler.PacingInterval)
			fmt.Printf("  Item Factor:       %d\n", cfg.Crawler.ItemPacingFactor)
			fmt.Printf("  Max Sources:       %d\n", cfg.Crawler.MaxSources)
			fmt.Printf("  Success Cap:       %d\n", cfg.Crawler.SuccessCap)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Crawler.RequestTimeout)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nParser:\n")
			fmt.Printf("  Meta Selectors:    %d\n", len(cfg.Parser.MetaSelectors))
			fmt.Printf("  Price Selectors:   %d\n", len(cfg.Parser.PriceSelectors))
			fmt.Printf("  Price Range:       %.2f – %.0f\n", cfg.Parser.MinPrice, cfg.Parser.MaxPrice)
			fmt.Printf("\nSearch:\n")
			fmt.Printf("  Engine:            %s\n", cfg.Search.Engine)
			fmt.Printf("  Max Results:       %d\n", cfg.Search.MaxResults)
			fmt.Printf("\nExport:\n")
			fmt.Printf("  Type:              %s\n", cfg.Export.Type)
			fmt.Printf("  Output Path:       %s\n", cfg.Export.OutputPath)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config. The
// verbose flag forces debug level regardless of config.
func setupLogger(lc *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if lc.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			cfg.Crawler.PacingInterval = d
		}
	}
	if maxSources > 0 {
		cfg.Crawler.MaxSources = maxSources
	}
	if successCap > 0 {
		cfg.Crawler.SuccessCap = successCap
	}
	if searchEngine != "" {
		cfg.Search.Engine = strings.ToLower(searchEngine)
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
	if outputPath != "" {
		cfg.Export.OutputPath = outputPath
	}
	if outputFormat != "" {
		cfg.Export.Type = strings.ToLower(outputFormat)
	}
	if mongoURI != "" {
		cfg.Export.MongoURI = mongoURI
	}
	if cfg.Credentials == nil {
		cfg.Credentials = map[string]string{}
	}
	for _, pair := range apiKeys {
		name, key, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		cfg.Credentials[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(key)
	}
}
