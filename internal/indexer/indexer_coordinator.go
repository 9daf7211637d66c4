package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	icommon "github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/internal/metrics"
	"github.com/goran-ethernal/StakingIndexor/pkg/indexer"
	"golang.org/x/sync/errgroup"
)

// IndexerCoordinator manages multiple indexers and routes events to them based on address and topics.
type IndexerCoordinator struct {
	mu  sync.RWMutex
	log *logger.Logger

	// addressTopics maps address -> topic -> indexers for specific topic filters
	addressTopics map[common.Address]map[common.Hash][]indexer.Indexer

	// addressAllTopics maps address -> indexers that want every topic from that address
	addressAllTopics map[common.Address][]indexer.Indexer

	// indexers in registration order
	indexers []indexer.Indexer
	byName   map[string]indexer.Indexer
}

// NewIndexerCoordinator creates a new IndexerCoordinator.
func NewIndexerCoordinator(log *logger.Logger) *IndexerCoordinator {
	return &IndexerCoordinator{
		log:              log.WithComponent(icommon.ComponentIndexerCoordinator),
		addressTopics:    make(map[common.Address]map[common.Hash][]indexer.Indexer),
		addressAllTopics: make(map[common.Address][]indexer.Indexer),
		byName:           make(map[string]indexer.Indexer),
	}
}

// RegisterIndexer registers a new indexer. Names must be unique.
func (ic *IndexerCoordinator) RegisterIndexer(idx indexer.Indexer) error {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	name := idx.GetName()
	if _, exists := ic.byName[name]; exists {
		return fmt.Errorf("indexer %q already registered", name)
	}

	for addr, topics := range idx.EventsToIndex() {
		if len(topics) == 0 {
			ic.addressAllTopics[addr] = append(ic.addressAllTopics[addr], idx)
			continue
		}

		if _, exists := ic.addressTopics[addr]; !exists {
			ic.addressTopics[addr] = make(map[common.Hash][]indexer.Indexer)
		}
		for topic := range topics {
			ic.addressTopics[addr][topic] = append(ic.addressTopics[addr][topic], idx)
		}
	}

	ic.indexers = append(ic.indexers, idx)
	ic.byName[name] = idx

	return nil
}

// HandleLogs routes each log of the batch to the indexers interested in its
// address and topic0. Different indexers run concurrently; each one sees its
// logs in delivery order.
func (ic *IndexerCoordinator) HandleLogs(ctx context.Context, batch indexer.Batch) error {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	indexerLogs := make(map[indexer.Indexer][]types.Log, len(ic.indexers))
	for _, log := range batch.Logs {
		for _, idx := range ic.interestedLocked(log) {
			if log.BlockNumber >= idx.StartBlock() {
				indexerLogs[idx] = append(indexerLogs[idx], log)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, idx := range ic.indexers {
		logs := indexerLogs[idx]
		if batch.ToBlock < idx.StartBlock() {
			continue
		}

		g.Go(func() error {
			start := time.Now()
			name := idx.GetName()

			if len(logs) > 0 {
				sub := indexer.Batch{
					Logs:            logs,
					BlockTimestamps: batch.BlockTimestamps,
					FromBlock:       max(batch.FromBlock, idx.StartBlock()),
					ToBlock:         batch.ToBlock,
				}
				if err := idx.HandleLogs(gctx, sub); err != nil {
					return fmt.Errorf("indexer %s failed to handle logs: %w", name, err)
				}
			}

			metrics.BatchProcessingTimeLog(name, time.Since(start))
			metrics.LogsIndexedInc(name, len(logs))
			metrics.LastIndexedBlockSet(name, batch.ToBlock)

			return nil
		})
	}

	return g.Wait()
}

// interestedLocked returns the distinct indexers that want log. Must be called with ic.mu held.
func (ic *IndexerCoordinator) interestedLocked(log types.Log) []indexer.Indexer {
	var out []indexer.Indexer
	seen := make(map[indexer.Indexer]struct{})

	add := func(list []indexer.Indexer) {
		for _, idx := range list {
			if _, ok := seen[idx]; !ok {
				seen[idx] = struct{}{}
				out = append(out, idx)
			}
		}
	}

	add(ic.addressAllTopics[log.Address])
	if len(log.Topics) > 0 {
		add(ic.addressTopics[log.Address][log.Topics[0]])
	}

	return out
}

// HandleReorg notifies all registered indexers about a blockchain reorganization.
// Indexers are called sequentially in registration order.
func (ic *IndexerCoordinator) HandleReorg(ctx context.Context, blockNum uint64) error {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	for _, idx := range ic.indexers {
		if err := idx.HandleReorg(ctx, blockNum); err != nil {
			return fmt.Errorf("indexer %s failed to handle reorg at block %d: %w", idx.GetName(), blockNum, err)
		}
		ic.log.Infow("indexer rolled back", "indexer", idx.GetName(), "block", blockNum)
	}

	return nil
}

// IndexerStartBlocks returns the start blocks of all registered indexers.
func (ic *IndexerCoordinator) IndexerStartBlocks() []uint64 {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	startBlocks := make([]uint64, 0, len(ic.indexers))
	for _, idx := range ic.indexers {
		startBlocks = append(startBlocks, idx.StartBlock())
	}

	return startBlocks
}

// GetByName returns the indexer with the given name, or nil.
func (ic *IndexerCoordinator) GetByName(name string) indexer.Indexer {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	return ic.byName[name]
}

// ListAll returns every registered indexer in registration order.
func (ic *IndexerCoordinator) ListAll() []indexer.Indexer {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	return append([]indexer.Indexer(nil), ic.indexers...)
}
