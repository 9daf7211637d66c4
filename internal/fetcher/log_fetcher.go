package fetcher

import (
	"cmp"
	"context"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/internal/metrics"
	irpc "github.com/goran-ethernal/StakingIndexor/internal/rpc"
	itypes "github.com/goran-ethernal/StakingIndexor/internal/types"
	"github.com/goran-ethernal/StakingIndexor/pkg/fetcher"
	"github.com/goran-ethernal/StakingIndexor/pkg/reorg"
	"github.com/goran-ethernal/StakingIndexor/pkg/rpc"
)

// Compile-time check to ensure LogFetcher implements fetcher.LogFetcher interface.
var _ fetcher.LogFetcher = (*LogFetcher)(nil)

// LogFetcherConfig contains configuration for the LogFetcher.
type LogFetcherConfig struct {
	// ChunkSize is the number of blocks to fetch per request
	ChunkSize uint64

	// Finality specifies the finality mode
	Finality itypes.BlockFinality

	// FinalizedLag is blocks behind head to consider final (only for "latest" mode)
	FinalizedLag uint64

	// PollInterval is how long live mode sleeps when the head has not advanced
	PollInterval time.Duration

	// Addresses are the contract addresses to filter
	Addresses []ethcommon.Address

	// Topics holds the topic0 values wanted for the address at the same index
	Topics [][]ethcommon.Hash

	// AddressStartBlocks maps each address to its minimum start block
	AddressStartBlocks map[ethcommon.Address]uint64

	// StartBlock is the lowest block a reorg may roll back to
	StartBlock uint64
}

// LogFetcher handles fetching logs and block headers from the blockchain.
type LogFetcher struct {
	cfg      LogFetcherConfig
	rpc      rpc.EthClient
	verifier reorg.Verifier
	log      *logger.Logger
	mode     fetcher.FetchMode
}

// NewLogFetcher creates a new LogFetcher instance.
func NewLogFetcher(
	cfg LogFetcherConfig,
	log *logger.Logger,
	rpcClient rpc.EthClient,
	verifier reorg.Verifier,
) *LogFetcher {
	return &LogFetcher{
		cfg:      cfg,
		rpc:      rpcClient,
		verifier: verifier,
		log:      log,
		mode:     fetcher.ModeBackfill,
	}
}

// SetMode changes the fetcher's operating mode.
func (lf *LogFetcher) SetMode(mode fetcher.FetchMode) {
	if lf.mode != mode {
		lf.log.Infof("switching fetch mode from %v to %v", lf.mode, mode)
	}
	lf.mode = mode
}

// GetMode returns the current operating mode.
func (lf *LogFetcher) GetMode() fetcher.FetchMode {
	return lf.mode
}

// FetchNext verifies the checkpoint and fetches the chunk following it.
func (lf *LogFetcher) FetchNext(
	ctx context.Context,
	checkpoint fetcher.Checkpoint,
	startBlock uint64,
) (*fetcher.FetchResult, error) {
	if err := lf.verifier.VerifyCheckpoint(ctx, checkpoint.Block, checkpoint.Hash, startBlock); err != nil {
		return nil, err
	}

	for {
		head, err := lf.getHeadBlock(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get head block: %w", err)
		}
		metrics.FinalizedBlockSet(head)

		fromBlock := checkpoint.Block + 1
		if fromBlock <= head {
			toBlock := min(fromBlock+lf.cfg.ChunkSize-1, head)
			if lf.mode == fetcher.ModeBackfill && toBlock == head {
				lf.SetMode(fetcher.ModeLive)
			}
			return lf.fetchRange(ctx, fromBlock, toBlock, checkpoint, startBlock)
		}

		if lf.mode == fetcher.ModeBackfill {
			lf.log.Info("backfill complete, switching to live mode")
			lf.SetMode(fetcher.ModeLive)
		}

		lf.log.Debugf("waiting for new blocks, last indexed: %d, head: %d", checkpoint.Block, head)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lf.cfg.PollInterval):
		}
	}
}

// FetchRange fetches logs and headers for a specific block range. The returned
// range may end before toBlock when the provider caps the number of results.
func (lf *LogFetcher) FetchRange(
	ctx context.Context,
	fromBlock, toBlock uint64,
	checkpoint fetcher.Checkpoint,
) (*fetcher.FetchResult, error) {
	return lf.fetchRange(ctx, fromBlock, toBlock, checkpoint, lf.cfg.StartBlock)
}

func (lf *LogFetcher) fetchRange(
	ctx context.Context,
	fromBlock, toBlock uint64,
	checkpoint fetcher.Checkpoint,
	floor uint64,
) (*fetcher.FetchResult, error) {
	addresses, topics := lf.activeFilter(fromBlock)

	var (
		logs  []types.Log
		endAt = toBlock
		err   error
	)

	if len(addresses) > 0 {
		logs, endAt, err = lf.fetchLogsWithRetry(ctx, fromBlock, toBlock, addresses, topics)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch logs: %w", err)
		}
	} else {
		lf.log.Debugf("no active addresses for blocks %d-%d", fromBlock, toBlock)
	}

	slices.SortStableFunc(logs, func(a, b types.Log) int {
		return cmp.Or(cmp.Compare(a.BlockNumber, b.BlockNumber), cmp.Compare(a.Index, b.Index))
	})

	headers, err := lf.verifier.VerifyRange(ctx, logs, endAt, checkpoint.Block, floor)
	if err != nil {
		return nil, err
	}

	timestamps := make(map[uint64]uint64, len(headers))
	for num, h := range headers {
		timestamps[num] = h.Time
	}

	lf.log.Infof("fetched range from %d to %d with %d logs", fromBlock, endAt, len(logs))

	return &fetcher.FetchResult{
		Logs:            logs,
		BlockTimestamps: timestamps,
		LastHeader:      headers[endAt],
		FromBlock:       fromBlock,
		ToBlock:         endAt,
	}, nil
}

// activeFilter returns the addresses whose start block has been reached, with their topics.
func (lf *LogFetcher) activeFilter(fromBlock uint64) ([]ethcommon.Address, [][]ethcommon.Hash) {
	addresses := make([]ethcommon.Address, 0, len(lf.cfg.Addresses))
	topics := make([][]ethcommon.Hash, 0, len(lf.cfg.Topics))

	for i, addr := range lf.cfg.Addresses {
		if start, ok := lf.cfg.AddressStartBlocks[addr]; ok && fromBlock < start {
			continue
		}
		addresses = append(addresses, addr)
		topics = append(topics, lf.cfg.Topics[i])
	}

	return addresses, topics
}

// getHeadBlock returns the highest block considered final under the configured finality.
func (lf *LogFetcher) getHeadBlock(ctx context.Context) (uint64, error) {
	var (
		header *types.Header
		err    error
	)

	switch lf.cfg.Finality {
	case itypes.FinalityFinalized:
		header, err = lf.rpc.GetFinalizedBlockHeader(ctx)
	case itypes.FinalitySafe:
		header, err = lf.rpc.GetSafeBlockHeader(ctx)
	case itypes.FinalityLatest:
		header, err = lf.rpc.GetLatestBlockHeader(ctx)
		if err != nil {
			return 0, err
		}
		latest := header.Number.Uint64()
		if latest < lf.cfg.FinalizedLag {
			return 0, nil
		}
		return latest - lf.cfg.FinalizedLag, nil
	default:
		return 0, fmt.Errorf("invalid finality mode: %s", lf.cfg.Finality)
	}

	if err != nil {
		return 0, err
	}

	return header.Number.Uint64(), nil
}

// fetchLogsWithRetry fetches logs and narrows the range when the provider reports too many results.
// It returns the logs and the last block actually covered.
func (lf *LogFetcher) fetchLogsWithRetry(
	ctx context.Context,
	fromBlock, toBlock uint64,
	addresses []ethcommon.Address,
	topics [][]ethcommon.Hash,
) ([]types.Log, uint64, error) {
	// one topic0 set for all addresses: a log matches when its address is in
	// the filter and its topic0 is any of the configured events
	topic0 := make([]ethcommon.Hash, 0)
	for _, set := range topics {
		for _, t := range set {
			if !slices.Contains(topic0, t) {
				topic0 = append(topic0, t)
			}
		}
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
		Topics:    [][]ethcommon.Hash{topic0},
	}

	logs, err := lf.rpc.GetLogs(ctx, query)
	if err == nil {
		return logs, toBlock, nil
	}

	ok, errData := irpc.IsTooManyResultsError(err)
	if !ok {
		return nil, 0, err
	}

	newTo := fromBlock + (toBlock-fromBlock)/2 //nolint:mnd
	if _, suggestedTo, ok := irpc.ParseSuggestedBlockRange(errData); ok && suggestedTo >= fromBlock && suggestedTo < toBlock {
		newTo = suggestedTo
	}

	if newTo == toBlock {
		return nil, 0, fmt.Errorf("cannot split range further, block %d has too many logs", fromBlock)
	}

	lf.log.Infof("too many logs in %d-%d, retrying with %d-%d", fromBlock, toBlock, fromBlock, newTo)

	return lf.fetchLogsWithRetry(ctx, fromBlock, newTo, addresses, topics)
}
