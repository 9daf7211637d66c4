package downloader

import (
	"database/sql"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakingIndexor/pkg/fetcher"
)

// SyncManager persists the downloader checkpoint.
type SyncManager interface {
	// GetState returns the current synchronization state.
	GetState() (*SyncState, error)

	// SaveCheckpoint records that every block up to blockNum has been handed to all indexers.
	SaveCheckpoint(blockNum uint64, blockHash common.Hash, mode fetcher.FetchMode) error

	// Reset moves the checkpoint back to block, clearing its hash.
	Reset(block uint64) error

	// Close closes the sync manager and releases any resources.
	Close() error

	// DB returns the database connection for use by other components.
	DB() *sql.DB
}

// SyncState represents the current synchronization state.
type SyncState struct {
	ID                   int         `meddler:"id,pk" json:"-"`
	LastIndexedBlock     uint64      `meddler:"last_indexed_block" json:"last_indexed_block"`
	LastIndexedBlockHash common.Hash `meddler:"last_indexed_block_hash,hash" json:"last_indexed_block_hash"`
	LastIndexedTimestamp int64       `meddler:"last_indexed_timestamp" json:"last_indexed_timestamp"`
	Mode                 string      `meddler:"mode" json:"mode"`
}

// GetMode returns the Mode as a fetcher.FetchMode type.
func (s *SyncState) GetMode() fetcher.FetchMode {
	return fetcher.FetchMode(s.Mode)
}

// IsFresh reports whether nothing has been indexed yet.
func (s *SyncState) IsFresh() bool {
	return s.LastIndexedBlock == 0 && s.LastIndexedBlockHash == (common.Hash{})
}

// Checkpoint returns the state as a fetcher checkpoint.
func (s *SyncState) Checkpoint() fetcher.Checkpoint {
	return fetcher.Checkpoint{Block: s.LastIndexedBlock, Hash: s.LastIndexedBlockHash}
}
