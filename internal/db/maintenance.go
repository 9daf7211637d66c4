package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	"golang.org/x/sync/errgroup"
)

// Maintenance guards a database against concurrent writes while it is
// checkpointed and vacuumed.
type Maintenance interface {
	// AcquireOperationLock acquires a shared lock for a unit of database work.
	// The returned function releases it.
	AcquireOperationLock() func()
	// RunMaintenance checkpoints and vacuums the database once.
	RunMaintenance(ctx context.Context) error
	// Stats returns counters about past maintenance runs.
	Stats() MaintenanceStats
}

// MaintenanceStats provides visibility into maintenance runs.
type MaintenanceStats struct {
	LastRun   time.Time
	Runs      uint64
	LastError error
}

// NoOpMaintenance is used when maintenance is not configured.
type NoOpMaintenance struct{}

func (NoOpMaintenance) AcquireOperationLock() func()         { return func() {} }
func (NoOpMaintenance) RunMaintenance(context.Context) error { return nil }
func (NoOpMaintenance) Stats() MaintenanceStats              { return MaintenanceStats{} }

// Maintainer maintains one SQLite database. Normal operations hold the read
// side of opLock; a maintenance run holds the write side, so it waits for
// in-flight batches and blocks new ones until done.
type Maintainer struct {
	name   string
	path   string
	db     *sql.DB
	config config.MaintenanceConfig
	log    *logger.Logger

	opLock sync.RWMutex

	statsLock sync.Mutex
	stats     MaintenanceStats
}

// NewMaintainer creates a maintainer for the database at path.
func NewMaintainer(name, path string, db *sql.DB, cfg config.MaintenanceConfig, log *logger.Logger) *Maintainer {
	return &Maintainer{
		name:   name,
		path:   path,
		db:     db,
		config: cfg,
		log:    log.WithComponent(common.ComponentMaintenance),
	}
}

// Name returns the database label used in logs and metrics.
func (m *Maintainer) Name() string {
	return m.name
}

// AcquireOperationLock implements Maintenance.
func (m *Maintainer) AcquireOperationLock() func() {
	m.opLock.RLock()
	return m.opLock.RUnlock
}

// Stats implements Maintenance.
func (m *Maintainer) Stats() MaintenanceStats {
	m.statsLock.Lock()
	defer m.statsLock.Unlock()

	return m.stats
}

// RunMaintenance implements Maintenance.
func (m *Maintainer) RunMaintenance(ctx context.Context) error {
	start := time.Now()

	m.opLock.Lock()
	defer m.opLock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	initialSize, err := DBTotalSize(m.path)
	if err != nil {
		m.log.Warnf("Failed to get initial size of %s: %v", m.name, err)
	}

	var runErr error
	if err := m.walCheckpoint(); err != nil {
		runErr = fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	if err := Vacuum(m.db); err != nil && runErr == nil {
		runErr = err
	}

	finalSize, err := DBTotalSize(m.path)
	if err != nil {
		m.log.Warnf("Failed to get final size of %s: %v", m.name, err)
	}

	duration := time.Since(start)
	maintenanceRunLog(m.name, duration, runErr)

	m.statsLock.Lock()
	m.stats.LastRun = time.Now().UTC()
	m.stats.Runs++
	m.stats.LastError = runErr
	m.statsLock.Unlock()

	if runErr != nil {
		m.log.Warnw("maintenance completed with errors", "database", m.name, "duration", duration, "error", runErr)
		return runErr
	}

	if initialSize > finalSize {
		reclaimed := uint64(initialSize - finalSize)
		MaintenanceSpaceReclaimedLog(m.name, reclaimed)
		m.log.Infof("Maintenance of %s reclaimed %d MB", m.name, common.BytesToMB(reclaimed))
	}
	DBSizeLog(m.name, finalSize)

	m.log.Infow("maintenance completed", "database", m.name, "duration", duration, "size_bytes", finalSize)

	return nil
}

func (m *Maintainer) walCheckpoint() error {
	var mode string
	if err := m.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}

	if !strings.EqualFold(mode, "wal") {
		return nil
	}

	var busy, logFrames, checkpointed int
	if err := m.db.QueryRow(fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.config.WALCheckpointMode)).
		Scan(&busy, &logFrames, &checkpointed); err != nil {
		return fmt.Errorf("failed to execute WAL checkpoint: %w", err)
	}

	WALCheckpointInc(strings.ToLower(m.config.WALCheckpointMode))

	if busy > 0 {
		m.log.Warnf("WAL checkpoint of %s encountered %d busy pages", m.name, busy)
	}

	return nil
}

// Scheduler runs maintenance periodically for a set of databases.
type Scheduler struct {
	maintainers []*Maintainer
	config      config.MaintenanceConfig
	log         *logger.Logger
}

// NewScheduler creates a scheduler. A nil or disabled config yields a scheduler whose Run returns immediately.
func NewScheduler(cfg *config.MaintenanceConfig, log *logger.Logger, maintainers ...*Maintainer) *Scheduler {
	s := &Scheduler{
		maintainers: maintainers,
		log:         log.WithComponent(common.ComponentMaintenance),
	}
	if cfg != nil {
		s.config = *cfg
	}

	return s
}

// Run blocks until ctx is done, running maintenance on every interval tick.
// Failures are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.config.Enabled || len(s.maintainers) == 0 {
		s.log.Info("Background maintenance is disabled")
		return nil
	}

	if s.config.VacuumOnStartup {
		s.runAll(ctx)
	}

	ticker := time.NewTicker(s.config.CheckInterval.Duration)
	defer ticker.Stop()

	s.log.Infof("Background maintenance started - interval: %v, databases: %d",
		s.config.CheckInterval.Duration, len(s.maintainers))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Background maintenance stopped")
			return nil
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context) {
	var g errgroup.Group
	for _, m := range s.maintainers {
		g.Go(func() error {
			if err := m.RunMaintenance(ctx); err != nil && ctx.Err() == nil {
				s.log.Warnf("Maintenance of %s failed: %v", m.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
