package indexer

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNotFound is returned by query methods when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Batch is one fetched block range as handed to an indexer.
type Batch struct {
	// Logs matching the indexer's filter, ordered by (block number, log index)
	Logs []types.Log
	// BlockTimestamps maps block number to block time for every block in Logs
	BlockTimestamps map[uint64]uint64
	FromBlock       uint64
	ToBlock         uint64
}

// Timestamp returns the timestamp of block, or 0 when it is unknown.
func (b Batch) Timestamp(block uint64) uint64 {
	return b.BlockTimestamps[block]
}

// Indexer defines the interface that all indexers must implement.
// Indexers receive logs from the downloader and handle blockchain reorganizations.
type Indexer interface {
	// GetName returns the configured, unique name of the indexer.
	GetName() string

	// GetType returns the registry type of the indexer.
	GetType() string

	// EventsToIndex returns a map of contract addresses to their event topic hashes.
	// The coordinator uses it to decide which logs are routed to this indexer.
	EventsToIndex() map[common.Address]map[common.Hash]struct{}

	// HandleLogs processes a batch of logs received from the downloader.
	HandleLogs(ctx context.Context, batch Batch) error

	// HandleReorg rolls back everything persisted at or after blockNum.
	HandleReorg(ctx context.Context, blockNum uint64) error

	// StartBlock returns the first block this indexer wants logs from.
	// Each indexer only receives logs from blocks >= its StartBlock.
	StartBlock() uint64
}

// Queryable is implemented by indexers whose events can be read through the API.
type Queryable interface {
	// GetEventTypes returns the event names the indexer stores.
	GetEventTypes() []string

	// QueryEvents returns a page of events and the total number of matches.
	QueryEvents(ctx context.Context, params QueryParams) (any, int, error)

	// GetStats returns event counts and the indexed block span.
	GetStats(ctx context.Context) (*StatsResponse, error)

	// QueryEventsTimeseries returns event counts grouped by time period.
	QueryEventsTimeseries(ctx context.Context, params TimeseriesParams) ([]TimeseriesDataPoint, error)

	// GetMetrics returns processing rates derived from the stored events.
	GetMetrics(ctx context.Context) (*MetricsResponse, error)
}

// AggregateQueryable is implemented by indexers that keep per-contract and per-user aggregates.
type AggregateQueryable interface {
	// GetContract returns the aggregate of a contract, or ErrNotFound.
	GetContract(ctx context.Context, address common.Address) (any, error)

	// GetUser returns the aggregate of a user key, or ErrNotFound.
	GetUser(ctx context.Context, address common.Address) (any, error)

	// ListUsers returns user aggregates ranked by a counter.
	ListUsers(ctx context.Context, params UserQueryParams) (any, error)

	// ListStakers returns the distinct users that staked at least once and their total count.
	ListStakers(ctx context.Context, limit, offset int) ([]common.Address, int, error)
}
