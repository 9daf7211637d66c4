package downloader

import (
	"context"

	"github.com/goran-ethernal/StakingIndexor/pkg/indexer"
)

// Downloader defines the interface for downloading and streaming blockchain logs.
type Downloader interface {
	// RegisterIndexer registers an indexer to receive logs.
	// The downloader uses the indexer's EventsToIndex method to build its log filter.
	RegisterIndexer(indexer indexer.Indexer) error

	// Download streams logs to registered indexers until the context is cancelled or an error occurs.
	Download(ctx context.Context) error

	// Close releases the downloader's resources.
	Close() error
}
