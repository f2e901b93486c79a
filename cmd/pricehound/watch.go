package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"pricehound/internal/config"
	"pricehound/internal/crawler"
)

var watchSchedule string

// watchCmd creates the "watch" subcommand: periodic re-collection on a
// cron schedule, with each run appended to the export backend.
func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [item...]",
		Short: "Re-fetch prices on a schedule",
		Long:  "Re-fetch prices for the given items on a cron schedule until interrupted, e.g.: pricehound watch bitcoin gold --schedule \"@every 1h\"",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWatch,
	}

	addFetchFlags(cmd)
	cmd.Flags().StringVar(&watchSchedule, "schedule", "@every 1h", "cron expression or @every interval")

	return cmd
}

// runWatch executes the watch command.
func runWatch(cmd *cobra.Command, args []string) error {
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

	c, cleanup, err := buildCrawler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	run := func() {
		results, err := c.Collect(ctx, args)
		if err != nil {
			logger.Warn("scheduled run aborted", "error", err)
			return
		}
		printResults(args, results)
		if showCompare {
			printComparison(args, crawler.Compare(results))
		}
	}

	sched := cron.New()
	if _, err := sched.AddFunc(watchSchedule, run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", watchSchedule, err)
	}

	logger.Info("watch started", "items", args, "schedule", watchSchedule)
	run() // immediate first run, then on schedule
	sched.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down...", "signal", sig)

	cancel()
	<-sched.Stop().Done()

	// The accumulated history across all runs is written once at exit.
	return exportResults(cfg, c.History(), logger)
}
