package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/internal/db"
	"github.com/goran-ethernal/StakingIndexor/internal/downloader"
	coordinator "github.com/goran-ethernal/StakingIndexor/internal/indexer"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	downloadermig "github.com/goran-ethernal/StakingIndexor/internal/migrations"
	"github.com/goran-ethernal/StakingIndexor/internal/reorg"
	"github.com/goran-ethernal/StakingIndexor/internal/rpc"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	"github.com/goran-ethernal/StakingIndexor/pkg/indexer"
)

// maintainable is implemented by indexers that own a SQLite database.
type maintainable interface {
	SetMaintenance(m db.Maintenance)
	DB() *sql.DB
	DBPath() string
}

// rebuildable is implemented by indexers that can rederive their aggregates.
type rebuildable interface {
	Rebuild(ctx context.Context) error
}

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	downloader  *downloader.Downloader
	coordinator *coordinator.IndexerCoordinator
	indexers    []indexer.Indexer
	maintainers []*db.Maintainer
}

// newApp connects to the node, opens the databases and registers every
// configured indexer. Close must be called on the returned app.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	log := logger.NewComponentLoggerFromConfig(common.ComponentDownloader, cfg.Logging)

	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	log.Info("Connecting to Ethereum node...")
	ethClient, err := rpc.NewClient(ctx, cfg.Downloader.RPCURL, cfg.Downloader.Retry)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}
	log.Infof("Connected to Ethereum node: %s", cfg.Downloader.RPCURL)

	database, err := db.NewSQLiteDBFromConfig(cfg.Downloader.DB)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	log.Info("Running database migrations...")
	if err := downloadermig.RunMigrations(log, database); err != nil {
		database.Close()
		ethClient.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	maintenanceLog := logger.NewComponentLoggerFromConfig(common.ComponentMaintenance, cfg.Logging)

	var syncMaintenance db.Maintenance = db.NoOpMaintenance{}
	if m := a.newMaintainer("downloader", cfg.Downloader.DB.Path, database, maintenanceLog); m != nil {
		syncMaintenance = m
	}

	syncManager := downloader.NewSyncManager(
		database,
		logger.NewComponentLoggerFromConfig(common.ComponentSyncManager, cfg.Logging),
		syncMaintenance,
	)

	verifier := reorg.NewCheckpointVerifier(
		ethClient,
		cfg.Downloader.RollbackDepth,
		logger.NewComponentLoggerFromConfig(common.ComponentReorgDetector, cfg.Logging),
	)

	a.coordinator = coordinator.NewIndexerCoordinator(
		logger.NewComponentLoggerFromConfig(common.ComponentIndexerCoordinator, cfg.Logging),
	)

	a.downloader, err = downloader.New(cfg.Downloader, ethClient, verifier, syncManager, a.coordinator, log)
	if err != nil {
		syncManager.Close()
		ethClient.Close()
		return nil, fmt.Errorf("failed to create downloader: %w", err)
	}

	log.Infof("Registering %d indexer(s)...", len(cfg.Indexers))
	for i, idxCfg := range cfg.Indexers {
		if idxCfg.Type == "" {
			return nil, fmt.Errorf("indexer #%d (%s) is missing 'type' field in configuration", i+1, idxCfg.Name)
		}

		log.Infof("Creating indexer: %s (type: %s)", idxCfg.Name, idxCfg.Type)

		idx, err := indexer.Create(
			idxCfg.Type,
			idxCfg,
			ethClient,
			logger.NewComponentLoggerFromConfig(common.ComponentStakingIndexer, cfg.Logging),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create indexer %s: %w", idxCfg.Name, err)
		}
		a.indexers = append(a.indexers, idx)

		if mi, ok := idx.(maintainable); ok {
			if m := a.newMaintainer(idxCfg.Name, mi.DBPath(), mi.DB(), maintenanceLog); m != nil {
				mi.SetMaintenance(m)
			}
		}

		if err := a.downloader.RegisterIndexer(idx); err != nil {
			return nil, fmt.Errorf("failed to register indexer %s: %w", idxCfg.Name, err)
		}
		log.Infof("Registered indexer: %s", idxCfg.Name)
	}

	return a, nil
}

// newMaintainer returns nil when maintenance is not configured.
func (a *app) newMaintainer(name, path string, database *sql.DB, log *logger.Logger) *db.Maintainer {
	if a.cfg.Downloader.Maintenance == nil {
		return nil
	}

	m := db.NewMaintainer(name, path, database, *a.cfg.Downloader.Maintenance, log)
	a.maintainers = append(a.maintainers, m)

	return m
}

// Close releases the indexers, the downloader database and the RPC client.
func (a *app) Close() {
	var errs []error
	for _, idx := range a.indexers {
		if c, ok := idx.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("indexer %s: %w", idx.GetName(), err))
			}
		}
	}

	if a.downloader != nil {
		if err := a.downloader.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.log.Warnf("Failed to close resources: %v", err)
	}
}
