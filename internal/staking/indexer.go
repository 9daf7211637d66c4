package staking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	icommon "github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/internal/db"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/internal/staking/migrations"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	"github.com/goran-ethernal/StakingIndexor/pkg/indexer"
	"github.com/goran-ethernal/StakingIndexor/pkg/rpc"
)

// IndexerType is the registry name of the staking indexer.
const IndexerType = "staking"

func init() {
	indexer.Register(IndexerType, Factory)
}

var (
	_ indexer.Indexer            = (*Indexer)(nil)
	_ indexer.Queryable          = (*Indexer)(nil)
	_ indexer.AggregateQueryable = (*Indexer)(nil)
)

// Factory creates a staking indexer whose contract reads go through client.
func Factory(cfg config.IndexerConfig, client rpc.EthClient, log *logger.Logger) (indexer.Indexer, error) {
	if client == nil {
		return nil, errors.New("staking indexer requires an RPC client for contract reads")
	}

	reader, err := NewRPCContractReader(client, cfg.Reads.Timeout.Duration,
		log.WithComponent(icommon.ComponentContractReader))
	if err != nil {
		return nil, err
	}

	return New(cfg, reader, log)
}

// Indexer folds staking and token events of the configured contracts into
// contract and user aggregates.
type Indexer struct {
	cfg     config.IndexerConfig
	db      *sql.DB
	store   *SQLStore
	engine  *Engine
	decoder *Decoder
	events  map[common.Address]map[common.Hash]struct{}
	log     *logger.Logger

	maintenance db.Maintenance

	// mu serializes batches, reorgs and rebuilds
	mu sync.Mutex
}

// New opens the indexer database, brings its schema up to date and validates
// the configured event signatures.
func New(cfg config.IndexerConfig, reader ContractReader, log *logger.Logger) (*Indexer, error) {
	if reader == nil {
		return nil, errors.New("contract reader is required")
	}

	events := make(map[common.Address]map[common.Hash]struct{}, len(cfg.Contracts))
	var signatures []string

	for _, c := range cfg.Contracts {
		addr, err := icommon.ParseAddress(c.Address)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", c.Address, err)
		}

		topics, ok := events[addr]
		if !ok {
			topics = make(map[common.Hash]struct{}, len(c.Events))
			events[addr] = topics
		}

		for _, sig := range c.Events {
			topic, err := Topic(sig)
			if err != nil {
				return nil, fmt.Errorf("contract %s: %w", c.Address, err)
			}
			topics[topic] = struct{}{}
			signatures = append(signatures, sig)
		}
	}

	decoder, err := NewDecoder(signatures)
	if err != nil {
		return nil, fmt.Errorf("indexer %s: %w", cfg.Name, err)
	}

	engine, err := NewEngine(cfg.Accounting, log.WithComponent(icommon.ComponentStakingIndexer))
	if err != nil {
		return nil, fmt.Errorf("indexer %s: %w", cfg.Name, err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database for indexer %s: %w", cfg.Name, err)
	}

	if err := migrations.RunMigrations(log, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations for indexer %s: %w", cfg.Name, err)
	}

	return &Indexer{
		cfg:         cfg,
		db:          database,
		store:       NewSQLStore(database, reader, cfg.Reads.AtEventBlock, log.WithComponent(icommon.ComponentEntityStore)),
		engine:      engine,
		decoder:     decoder,
		events:      events,
		log:         log.WithComponent(icommon.ComponentStakingIndexer),
		maintenance: db.NoOpMaintenance{},
	}, nil
}

// SetMaintenance makes writes wait for maintenance of the indexer database.
func (i *Indexer) SetMaintenance(m db.Maintenance) {
	if m == nil {
		m = db.NoOpMaintenance{}
	}
	i.maintenance = m
}

// DB returns the indexer database.
func (i *Indexer) DB() *sql.DB {
	return i.db
}

// DBPath returns the path of the indexer database file.
func (i *Indexer) DBPath() string {
	return i.cfg.DB.Path
}

func (i *Indexer) GetName() string {
	return i.cfg.Name
}

func (i *Indexer) GetType() string {
	return IndexerType
}

func (i *Indexer) StartBlock() uint64 {
	return i.cfg.StartBlock
}

// EventsToIndex returns the configured topics per contract.
func (i *Indexer) EventsToIndex() map[common.Address]map[common.Hash]struct{} {
	return i.events
}

// HandleLogs applies a batch in one transaction. Each event runs in its own
// savepoint: an event that fails is rolled back, logged and counted, and the
// batch goes on with the next one.
func (i *Indexer) HandleLogs(ctx context.Context, batch indexer.Batch) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	release := i.maintenance.AcquireOperationLock()
	defer release()

	start := time.Now()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := db.Rollback(tx); err != nil {
			i.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	store := i.store.WithTx(tx)

	var applied, duplicates, failed int

	for _, l := range batch.Logs {
		ev, err := i.decoder.Decode(l, batch.Timestamp(l.BlockNumber))
		if err != nil {
			i.log.Warnw("skipping undecodable log",
				"block", l.BlockNumber,
				"tx_hash", l.TxHash.Hex(),
				"log_index", l.Index,
				"error", err,
			)
			DecodeFailureInc(i.cfg.Name)
			failed++
			continue
		}

		var ok bool
		err = db.WithSavepoint(ctx, tx, "staking_event", func() error {
			var applyErr error
			ok, applyErr = i.engine.Apply(ctx, store, ev)
			return applyErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			i.log.Errorw("event handler failed, event rolled back",
				"type", ev.Type(),
				"block", l.BlockNumber,
				"tx_hash", l.TxHash.Hex(),
				"log_index", l.Index,
				"error", err,
			)
			HandlerFailureInc(i.cfg.Name, ev.Type())
			failed++
			continue
		}

		if !ok {
			DuplicateEventInc(i.cfg.Name)
			duplicates++
			continue
		}

		EventAppliedInc(i.cfg.Name, ev.Type())
		applied++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	i.log.Infow("batch indexed",
		"from_block", batch.FromBlock,
		"to_block", batch.ToBlock,
		"applied", applied,
		"duplicates", duplicates,
		"failed", failed,
		"duration", time.Since(start),
	)

	return nil
}

// HandleReorg drops every event record at or after blockNum and rederives the
// aggregates from the records that remain.
func (i *Indexer) HandleReorg(ctx context.Context, blockNum uint64) error {
	return i.rebuild(ctx, &blockNum)
}

// Rebuild rederives the aggregates from all stored event records.
func (i *Indexer) Rebuild(ctx context.Context) error {
	return i.rebuild(ctx, nil)
}

func (i *Indexer) rebuild(ctx context.Context, fromBlock *uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	release := i.maintenance.AcquireOperationLock()
	defer release()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := db.Rollback(tx); err != nil {
			i.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	store := i.store.WithTx(tx)

	if fromBlock != nil {
		deleted, err := store.deleteEventsFrom(ctx, *fromBlock)
		if err != nil {
			return err
		}
		i.log.Infof("deleted %d event records from block %d", deleted, *fromBlock)
	}

	if err := store.clearAggregates(ctx); err != nil {
		return err
	}

	records, err := store.allEvents()
	if err != nil {
		return err
	}

	for _, rec := range records {
		ev, err := rec.Event()
		if err != nil {
			return fmt.Errorf("event record %d: %w", rec.ID, err)
		}
		if err := i.engine.fold(ctx, store, ev); err != nil {
			return fmt.Errorf("failed to replay %s at block %d: %w", ev.Type(), rec.BlockNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	i.log.Infof("rebuilt aggregates from %d event records", len(records))

	return nil
}

// Close closes the indexer database.
func (i *Indexer) Close() error {
	return i.db.Close()
}
