package fetcher

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogFetcher defines the interface for fetching logs and block headers from the blockchain.
type LogFetcher interface {
	// SetMode changes the fetcher's operating mode.
	SetMode(mode FetchMode)

	// GetMode returns the current operating mode.
	GetMode() FetchMode

	// FetchRange fetches logs, timestamps and the closing header for a specific block range.
	FetchRange(ctx context.Context, fromBlock, toBlock uint64, checkpoint Checkpoint) (*FetchResult, error)

	// FetchNext verifies the checkpoint and fetches the next chunk after it.
	// Backfill fetches up to chunk_size blocks; live waits for the head to advance.
	FetchNext(ctx context.Context, checkpoint Checkpoint, startBlock uint64) (*FetchResult, error)
}

// FetchMode represents the operating mode of the log fetcher.
type FetchMode string

const (
	// ModeBackfill fetches historical blocks in chunks
	ModeBackfill FetchMode = "backfill"
	// ModeLive tails new blocks as they arrive
	ModeLive FetchMode = "live"
)

// String returns the string representation of the mode.
func (m FetchMode) String() string {
	return string(m)
}

// Checkpoint is the last block handed to every indexer and its hash at that time.
type Checkpoint struct {
	Block uint64
	Hash  common.Hash
}

// FetchResult contains the results of a log fetch operation.
type FetchResult struct {
	// Logs are ordered by (block number, log index)
	Logs []types.Log
	// BlockTimestamps holds the timestamp of every block in Logs and of ToBlock
	BlockTimestamps map[uint64]uint64
	// LastHeader is the header of ToBlock
	LastHeader *types.Header
	FromBlock  uint64
	ToBlock    uint64
}
