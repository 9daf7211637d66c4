package reorg

import (
	"context"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/internal/metrics"
	pkgreorg "github.com/goran-ethernal/StakingIndexor/pkg/reorg"
	"github.com/goran-ethernal/StakingIndexor/pkg/rpc"
)

var _ pkgreorg.Verifier = (*CheckpointVerifier)(nil)

// CheckpointVerifier detects reorganizations by comparing the hash stored with the
// sync checkpoint, and the block hashes carried by fetched logs, against the chain.
// It keeps no block history of its own; a mismatch rolls back a fixed window.
type CheckpointVerifier struct {
	rpc           rpc.EthClient
	rollbackDepth uint64
	log           *logger.Logger
}

// NewCheckpointVerifier creates a verifier that rolls back rollbackDepth blocks on a mismatch.
func NewCheckpointVerifier(rpcClient rpc.EthClient, rollbackDepth uint64, log *logger.Logger) *CheckpointVerifier {
	metrics.ComponentHealthSet(internalcommon.ComponentReorgDetector, true)

	return &CheckpointVerifier{
		rpc:           rpcClient,
		rollbackDepth: max(rollbackDepth, 1),
		log:           log.WithComponent(internalcommon.ComponentReorgDetector),
	}
}

// VerifyCheckpoint checks that the block at checkpoint still has hash.
// A zero hash means the checkpoint was reset and is not verified.
func (v *CheckpointVerifier) VerifyCheckpoint(ctx context.Context, checkpoint uint64, hash common.Hash, floor uint64) error {
	if hash == (common.Hash{}) {
		return nil
	}

	header, err := v.rpc.GetBlockHeader(ctx, checkpoint)
	if err != nil {
		return fmt.Errorf("failed to fetch checkpoint header %d: %w", checkpoint, err)
	}

	if current := header.Hash(); current != hash {
		return v.reorgAt(checkpoint, floor, fmt.Sprintf("checkpoint block %d hash changed: stored=%s current=%s",
			checkpoint, hash.Hex(), current.Hex()))
	}

	return nil
}

// VerifyRange fetches the headers of every block that produced a log plus toBlock,
// and checks each log's block hash against its header. The headers are returned by number.
func (v *CheckpointVerifier) VerifyRange(
	ctx context.Context,
	logs []types.Log,
	toBlock, checkpoint, floor uint64,
) (map[uint64]*types.Header, error) {
	blockNums := make([]uint64, 0, len(logs)+1)
	for _, l := range logs {
		blockNums = append(blockNums, l.BlockNumber)
	}
	blockNums = append(blockNums, toBlock)
	slices.Sort(blockNums)
	blockNums = slices.Compact(blockNums)

	headers, err := v.rpc.BatchGetBlockHeaders(ctx, blockNums)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch headers: %w", err)
	}
	if len(headers) != len(blockNums) {
		return nil, fmt.Errorf("expected %d headers, got %d", len(blockNums), len(headers))
	}

	byNumber := make(map[uint64]*types.Header, len(headers))
	for i, h := range headers {
		byNumber[blockNums[i]] = h
	}

	for _, l := range logs {
		headerHash := byNumber[l.BlockNumber].Hash()
		if l.BlockHash != headerHash {
			return nil, v.reorgAt(checkpoint, floor, fmt.Sprintf("log block %d hash %s does not match header %s",
				l.BlockNumber, l.BlockHash.Hex(), headerHash.Hex()))
		}
	}

	return byNumber, nil
}

// reorgAt builds the rollback error for a mismatch observed past checkpoint.
// The first rolled back block is max(floor, checkpoint-rollbackDepth+1).
func (v *CheckpointVerifier) reorgAt(checkpoint, floor uint64, details string) error {
	first := floor
	if checkpoint+1 > v.rollbackDepth {
		first = max(floor, checkpoint+1-v.rollbackDepth)
	}

	depth := uint64(0)
	if checkpoint >= first {
		depth = checkpoint - first + 1
	}
	metrics.ReorgDetectedLog(depth)

	v.log.Warnw("reorg detected", "first_reorg_block", first, "checkpoint", checkpoint, "details", details)

	return NewReorgError(first, details)
}
