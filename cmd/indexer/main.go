package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/internal/config"
	"github.com/goran-ethernal/StakingIndexor/internal/db"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/internal/metrics"
	_ "github.com/goran-ethernal/StakingIndexor/internal/staking" // registers the staking indexer
	"github.com/goran-ethernal/StakingIndexor/pkg/api"
	"github.com/goran-ethernal/StakingIndexor/pkg/indexer"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║          StakingIndexor v%s            ║
║   Staking Contract Event Aggregation      ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath  string
	rewindBlock uint64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "StakingIndexor - staking contract event indexer",
	Long: `StakingIndexor tails the events of a staking contract and its reward token,
folds them into per-contract and per-user aggregates stored in SQLite and serves
them over a REST API.`,
	Version: version,
	RunE:    runIndexer,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available indexer types",
	Long:  `List all registered indexer types that can be used in the configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available indexer types:")
		types := indexer.ListRegistered()
		if len(types) == 0 {
			fmt.Println("  (no indexers registered)")
			return
		}
		for _, t := range types {
			fmt.Printf("  - %s\n", t)
		}
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var rewindCmd = &cobra.Command{
	Use:   "rewind",
	Short: "Drop indexed events from a block onwards and rederive the aggregates",
	Long: `Delete every event record at or above --block in all configured indexers,
rebuild the aggregates from the remaining records and move the sync checkpoint
so the next run fetches from --block again.`,
	RunE: runRewind,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rederive the aggregates from the stored event records",
	RunE:  runRebuild,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	rewindCmd.Flags().Uint64Var(&rewindBlock, "block", 0, "first block to drop")
	_ = rewindCmd.MarkFlagRequired("block")

	rootCmd.AddCommand(listCmd, schemaCmd, rewindCmd, rebuildCmd)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runIndexer(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics,
			logger.NewComponentLoggerFromConfig(common.ComponentMetrics, cfg.Logging))
		g.Go(func() error {
			return metricsServer.Run(gctx)
		})
		log.Infof("Metrics server listening on %s%s", cfg.Metrics.ListenAddress, cfg.Metrics.Path)
	}

	if cfg.API != nil && cfg.API.Enabled {
		apiServer := api.NewServer(
			cfg.API,
			a.coordinator,
			logger.NewComponentLoggerFromConfig(common.ComponentAPI, cfg.Logging),
		)
		g.Go(func() error {
			return apiServer.Start(gctx)
		})
	}

	scheduler := db.NewScheduler(cfg.Downloader.Maintenance,
		logger.NewComponentLoggerFromConfig(common.ComponentMaintenance, cfg.Logging), a.maintainers...)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		log.Info("Starting StakingIndexor...")
		return a.downloader.Download(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("indexer failed: %w", err)
	}

	log.Info("StakingIndexor stopped successfully")
	return nil
}

func runRewind(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.downloader.Rewind(ctx, rewindBlock); err != nil {
		return fmt.Errorf("rewind to block %d failed: %w", rewindBlock, err)
	}

	a.log.Infof("Rewound %d indexer(s) to block %d", len(a.indexers), rewindBlock)
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, idx := range a.indexers {
		r, ok := idx.(rebuildable)
		if !ok {
			a.log.Infof("Indexer %s keeps no aggregates, skipping", idx.GetName())
			continue
		}

		if err := r.Rebuild(ctx); err != nil {
			return fmt.Errorf("failed to rebuild indexer %s: %w", idx.GetName(), err)
		}
		a.log.Infof("Rebuilt indexer %s", idx.GetName())
	}

	return nil
}
