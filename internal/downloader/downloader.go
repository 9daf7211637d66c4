package downloader

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	icommon "github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/internal/fetcher"
	"github.com/goran-ethernal/StakingIndexor/internal/indexer"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/internal/metrics"
	"github.com/goran-ethernal/StakingIndexor/internal/reorg"
	"github.com/goran-ethernal/StakingIndexor/internal/types"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	pkgdownloader "github.com/goran-ethernal/StakingIndexor/pkg/downloader"
	pkgfetcher "github.com/goran-ethernal/StakingIndexor/pkg/fetcher"
	idx "github.com/goran-ethernal/StakingIndexor/pkg/indexer"
	pkgreorg "github.com/goran-ethernal/StakingIndexor/pkg/reorg"
	"github.com/goran-ethernal/StakingIndexor/pkg/rpc"
)

// Compile-time check to ensure Downloader implements pkgdownloader.Downloader interface.
var _ pkgdownloader.Downloader = (*Downloader)(nil)

// Downloader orchestrates the log downloading process.
// It coordinates the LogFetcher, SyncManager and IndexerCoordinator to stream
// blockchain logs to registered indexers.
type Downloader struct {
	cfg         config.DownloaderConfig
	rpc         rpc.EthClient
	verifier    pkgreorg.Verifier
	syncManager pkgdownloader.SyncManager
	coordinator *indexer.IndexerCoordinator
	log         *logger.Logger
	logFetcher  pkgfetcher.LogFetcher

	// Filter configuration built from registered indexers
	mu        sync.RWMutex
	addresses []common.Address
	topics    [][]common.Hash

	// Per-address start blocks (minimum across all indexers for that address)
	addressStartBlocks map[common.Address]uint64
}

// New creates a new Downloader instance.
func New(
	cfg config.DownloaderConfig,
	rpcClient rpc.EthClient,
	verifier pkgreorg.Verifier,
	syncManager pkgdownloader.SyncManager,
	coordinator *indexer.IndexerCoordinator,
	log *logger.Logger,
) (*Downloader, error) {
	switch {
	case rpcClient == nil:
		return nil, errors.New("RPC client is required")
	case verifier == nil:
		return nil, errors.New("reorg verifier is required")
	case syncManager == nil:
		return nil, errors.New("sync manager is required")
	case coordinator == nil:
		return nil, errors.New("indexer coordinator is required")
	case log == nil:
		return nil, errors.New("logger is required")
	}

	return &Downloader{
		cfg:                cfg,
		rpc:                rpcClient,
		verifier:           verifier,
		syncManager:        syncManager,
		coordinator:        coordinator,
		log:                log.WithComponent(icommon.ComponentDownloader),
		addressStartBlocks: make(map[common.Address]uint64),
	}, nil
}

// RegisterIndexer registers an indexer with the coordinator and merges its
// events into the downloader's log filter.
func (d *Downloader) RegisterIndexer(i idx.Indexer) error {
	if err := d.coordinator.RegisterIndexer(i); err != nil {
		return err
	}

	startBlock := i.StartBlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	for addr, topicSet := range i.EventsToIndex() {
		if existing, ok := d.addressStartBlocks[addr]; !ok || startBlock < existing {
			d.addressStartBlocks[addr] = startBlock
		}

		index := slices.Index(d.addresses, addr)
		if index == -1 {
			d.addresses = append(d.addresses, addr)
			d.topics = append(d.topics, nil)
			index = len(d.addresses) - 1
		}

		for topic := range topicSet {
			if !slices.Contains(d.topics[index], topic) {
				d.topics[index] = append(d.topics[index], topic)
			}
		}
	}

	d.log.Infow("indexer registered",
		"indexer", i.GetName(),
		"type", i.GetType(),
		"start_block", startBlock,
		"total_addresses", len(d.addresses),
	)

	return nil
}

// startBlock returns the lowest start block across registered indexers.
func (d *Downloader) startBlock() uint64 {
	starts := d.coordinator.IndexerStartBlocks()
	if len(starts) == 0 {
		return 0
	}

	return slices.Min(starts)
}

func (d *Downloader) newLogFetcher() (pkgfetcher.LogFetcher, error) {
	finality, err := types.ParseBlockFinality(d.cfg.Finality)
	if err != nil {
		return nil, fmt.Errorf("invalid finality configuration: %w", err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	topics := make([][]common.Hash, len(d.topics))
	for i, t := range d.topics {
		topics[i] = slices.Clone(t)
	}

	return fetcher.NewLogFetcher(fetcher.LogFetcherConfig{
		ChunkSize:          d.cfg.ChunkSize,
		Finality:           finality,
		FinalizedLag:       d.cfg.FinalizedLag,
		PollInterval:       d.cfg.PollInterval.Duration,
		Addresses:          slices.Clone(d.addresses),
		Topics:             topics,
		AddressStartBlocks: maps.Clone(d.addressStartBlocks),
		StartBlock:         d.startBlock(),
	}, d.log.WithComponent(icommon.ComponentLogFetcher), d.rpc, d.verifier), nil
}

// Download streams logs to registered indexers until the context is cancelled or an error occurs.
func (d *Downloader) Download(ctx context.Context) error {
	d.log.Info("starting download process")

	if d.logFetcher == nil {
		lf, err := d.newLogFetcher()
		if err != nil {
			return err
		}
		d.logFetcher = lf
	}

	state, err := d.syncManager.GetState()
	if err != nil {
		return fmt.Errorf("failed to get sync state: %w", err)
	}

	startBlock := d.startBlock()
	checkpoint := state.Checkpoint()
	if state.IsFresh() {
		checkpoint = pkgfetcher.Checkpoint{}
		if startBlock > 0 {
			checkpoint.Block = startBlock - 1
		}
		d.log.Infow("starting fresh download", "start_block", startBlock)
	} else {
		d.log.Infow("resuming download", "last_indexed_block", checkpoint.Block)
	}

	if finality, err := types.ParseBlockFinality(d.cfg.Finality); err == nil && !finality.Reorgable() {
		d.log.Debugw("finalized blocks cannot reorg, checkpoint verification is a consistency check only")
	}

	d.logFetcher.SetMode(pkgfetcher.ModeBackfill)
	metrics.ComponentHealthSet(icommon.ComponentDownloader, true)

	for {
		if err := ctx.Err(); err != nil {
			d.log.Info("download cancelled")
			return err
		}

		result, err := d.logFetcher.FetchNext(ctx, checkpoint, startBlock)
		if err != nil {
			var reorgErr *reorg.ErrReorgDetected
			if errors.As(err, &reorgErr) {
				// never rewind past the checkpoint itself: blocks above it were not indexed
				first := min(reorgErr.FirstReorgBlock, checkpoint.Block+1)
				d.log.Warnw("reorg detected, initiating rollback",
					"block", first,
					"details", reorgErr.Details,
				)
				metrics.ReorgDetectedLog(checkpoint.Block + 1 - first)

				if err := d.Rewind(ctx, first); err != nil {
					metrics.ComponentHealthSet(icommon.ComponentDownloader, false)
					return fmt.Errorf("failed to handle reorg: %w", err)
				}

				checkpoint = pkgfetcher.Checkpoint{Block: rewindTarget(first)}
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			metrics.ComponentHealthSet(icommon.ComponentDownloader, false)
			d.log.Errorw("failed to fetch logs", "error", err, "last_block", checkpoint.Block)
			return fmt.Errorf("failed to fetch logs: %w", err)
		}

		batch := idx.Batch{
			Logs:            result.Logs,
			BlockTimestamps: result.BlockTimestamps,
			FromBlock:       result.FromBlock,
			ToBlock:         result.ToBlock,
		}
		if err := d.coordinator.HandleLogs(ctx, batch); err != nil {
			metrics.ComponentHealthSet(icommon.ComponentDownloader, false)
			return fmt.Errorf("failed to handle logs: %w", err)
		}

		next := pkgfetcher.Checkpoint{Block: result.ToBlock}
		if result.LastHeader != nil {
			next.Hash = result.LastHeader.Hash()
		}

		if err := d.syncManager.SaveCheckpoint(next.Block, next.Hash, d.logFetcher.GetMode()); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		checkpoint = next

		d.log.Infow("checkpoint saved",
			"block", next.Block,
			"block_hash", next.Hash.Hex(),
			"mode", d.logFetcher.GetMode(),
			"logs_processed", len(result.Logs),
		)
	}
}

// Rewind rolls every indexer back to before block and moves the checkpoint
// to block-1, so the next fetch starts at block again.
func (d *Downloader) Rewind(ctx context.Context, block uint64) error {
	d.log.Warnw("rewinding", "first_block", block)

	if err := d.coordinator.HandleReorg(ctx, block); err != nil {
		return fmt.Errorf("failed to notify indexers of reorg: %w", err)
	}

	target := rewindTarget(block)
	if err := d.syncManager.Reset(target); err != nil {
		return fmt.Errorf("failed to reset sync state: %w", err)
	}

	if d.logFetcher != nil {
		d.logFetcher.SetMode(pkgfetcher.ModeBackfill)
	}

	d.log.Infow("rewind complete, resuming from block", "block", target)

	return nil
}

func rewindTarget(block uint64) uint64 {
	if block == 0 {
		return 0
	}
	return block - 1
}

// Close closes the downloader and releases resources.
func (d *Downloader) Close() error {
	d.log.Info("closing downloader")

	if err := d.syncManager.Close(); err != nil {
		d.log.Errorw("failed to close sync manager", "error", err)
	}

	d.rpc.Close()

	return nil
}
