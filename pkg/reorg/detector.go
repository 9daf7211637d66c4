package reorg

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Verifier checks fetched data against the canonical chain.
// Both methods return *reorg.ErrReorgDetected (internal/reorg) when the chain diverged.
type Verifier interface {
	// VerifyCheckpoint checks that the stored checkpoint block hash is still canonical.
	// floor is the lowest block that may be rolled back to.
	VerifyCheckpoint(ctx context.Context, checkpoint uint64, hash common.Hash, floor uint64) error

	// VerifyRange returns the headers of the log blocks and of toBlock, keyed by number,
	// after checking that every log belongs to the canonical block at its height.
	VerifyRange(ctx context.Context, logs []types.Log, toBlock, checkpoint, floor uint64) (map[uint64]*types.Header, error)
}
