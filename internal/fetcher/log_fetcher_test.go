package fetcher

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	ireorg "github.com/goran-ethernal/StakingIndexor/internal/reorg"
	reorgmocks "github.com/goran-ethernal/StakingIndexor/internal/reorg/mocks"
	rpcmocks "github.com/goran-ethernal/StakingIndexor/internal/rpc/mocks"
	itypes "github.com/goran-ethernal/StakingIndexor/internal/types"
	"github.com/goran-ethernal/StakingIndexor/pkg/fetcher"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	stakingAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenAddr   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	stakedTopic = common.HexToHash("0xaaaa")
	mintTopic   = common.HexToHash("0xbbbb")
)

type limitError struct{ msg string }

func (e *limitError) Error() string  { return e.msg }
func (e *limitError) ErrorData() any { return e.msg }

func createTestHeader(blockNum uint64) *types.Header {
	return &types.Header{
		Number:     new(big.Int).SetUint64(blockNum),
		Difficulty: big.NewInt(1),
		GasLimit:   8000000,
		Time:       1000000 + blockNum,
	}
}

func headerMap(nums ...uint64) map[uint64]*types.Header {
	m := make(map[uint64]*types.Header, len(nums))
	for _, n := range nums {
		m[n] = createTestHeader(n)
	}
	return m
}

func setupTestLogFetcher(t *testing.T) (*LogFetcher, *rpcmocks.EthClient, *reorgmocks.Verifier) {
	t.Helper()

	mockRPC := rpcmocks.NewEthClient(t)
	mockVerifier := reorgmocks.NewVerifier(t)

	cfg := LogFetcherConfig{
		ChunkSize:    100,
		Finality:     itypes.FinalityFinalized,
		PollInterval: time.Millisecond,
		Addresses:    []common.Address{stakingAddr, tokenAddr},
		Topics:       [][]common.Hash{{stakedTopic}, {mintTopic, stakedTopic}},
		AddressStartBlocks: map[common.Address]uint64{
			stakingAddr: 0,
			tokenAddr:   500,
		},
	}

	return NewLogFetcher(cfg, logger.NewNopLogger(), mockRPC, mockVerifier), mockRPC, mockVerifier
}

func TestLogFetcher_SetMode(t *testing.T) {
	lf, _, _ := setupTestLogFetcher(t)

	require.Equal(t, fetcher.ModeBackfill, lf.GetMode())

	lf.SetMode(fetcher.ModeLive)
	require.Equal(t, fetcher.ModeLive, lf.GetMode())

	lf.SetMode(fetcher.ModeBackfill)
	require.Equal(t, fetcher.ModeBackfill, lf.GetMode())
}

func TestLogFetcher_FetchRange(t *testing.T) {
	ctx := context.Background()
	cp := fetcher.Checkpoint{Block: 99}

	t.Run("orders logs and collects timestamps", func(t *testing.T) {
		lf, mockRPC, mockVerifier := setupTestLogFetcher(t)

		unordered := []types.Log{
			{BlockNumber: 101, Index: 0, Address: stakingAddr},
			{BlockNumber: 100, Index: 3, Address: stakingAddr},
			{BlockNumber: 100, Index: 1, Address: stakingAddr},
		}
		ordered := []types.Log{unordered[2], unordered[1], unordered[0]}

		mockRPC.On("GetLogs", mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
			// token contract starts at 500 and is not active yet
			return len(q.Addresses) == 1 && q.Addresses[0] == stakingAddr &&
				q.FromBlock.Uint64() == 100 && q.ToBlock.Uint64() == 102 &&
				len(q.Topics) == 1 && len(q.Topics[0]) == 1
		})).Return(unordered, nil).Once()
		mockVerifier.On("VerifyRange", mock.Anything, ordered, uint64(102), uint64(99), uint64(0)).
			Return(headerMap(100, 101, 102), nil).Once()

		result, err := lf.FetchRange(ctx, 100, 102, cp)
		require.NoError(t, err)
		require.Equal(t, uint64(100), result.FromBlock)
		require.Equal(t, uint64(102), result.ToBlock)
		require.Equal(t, ordered, result.Logs)
		require.Equal(t, uint64(1000101), result.BlockTimestamps[101])
		require.Equal(t, uint64(102), result.LastHeader.Number.Uint64())
	})

	t.Run("merges topics of active contracts", func(t *testing.T) {
		lf, mockRPC, mockVerifier := setupTestLogFetcher(t)

		mockRPC.On("GetLogs", mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
			return len(q.Addresses) == 2 && len(q.Topics[0]) == 2
		})).Return(nil, nil).Once()
		mockVerifier.On("VerifyRange", mock.Anything, []types.Log(nil), uint64(600), uint64(499), uint64(0)).
			Return(headerMap(600), nil).Once()

		result, err := lf.FetchRange(ctx, 500, 600, fetcher.Checkpoint{Block: 499})
		require.NoError(t, err)
		require.Empty(t, result.Logs)
	})

	t.Run("no active addresses skips getLogs", func(t *testing.T) {
		lf, _, mockVerifier := setupTestLogFetcher(t)
		lf.cfg.AddressStartBlocks[stakingAddr] = 1000

		mockVerifier.On("VerifyRange", mock.Anything, []types.Log(nil), uint64(101), uint64(99), uint64(0)).
			Return(headerMap(101), nil).Once()

		result, err := lf.FetchRange(ctx, 100, 101, cp)
		require.NoError(t, err)
		require.Empty(t, result.Logs)
		require.Len(t, result.BlockTimestamps, 1)
	})

	t.Run("log fetch error", func(t *testing.T) {
		lf, mockRPC, _ := setupTestLogFetcher(t)
		mockRPC.On("GetLogs", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

		result, err := lf.FetchRange(ctx, 100, 102, cp)
		require.ErrorContains(t, err, "failed to fetch logs")
		require.Nil(t, result)
	})

	t.Run("reorg error is returned untouched", func(t *testing.T) {
		lf, mockRPC, mockVerifier := setupTestLogFetcher(t)
		mockRPC.On("GetLogs", mock.Anything, mock.Anything).Return(nil, nil).Once()
		reorgErr := ireorg.NewReorgError(40, "hash mismatch")
		mockVerifier.On("VerifyRange", mock.Anything, mock.Anything, uint64(102), uint64(99), uint64(0)).
			Return(nil, reorgErr).Once()

		_, err := lf.FetchRange(ctx, 100, 102, cp)
		var target *ireorg.ErrReorgDetected
		require.ErrorAs(t, err, &target)
		require.Equal(t, uint64(40), target.FirstReorgBlock)
	})

	t.Run("too many results narrows to suggested range", func(t *testing.T) {
		lf, mockRPC, mockVerifier := setupTestLogFetcher(t)

		tooMany := &limitError{msg: "Query returned more than 10000 results. Try with this block range [0x64, 0x6e]."}
		mockRPC.On("GetLogs", mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
			return q.ToBlock.Uint64() == 199
		})).Return(nil, tooMany).Once()
		mockRPC.On("GetLogs", mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
			return q.FromBlock.Uint64() == 100 && q.ToBlock.Uint64() == 110
		})).Return([]types.Log{{BlockNumber: 105}}, nil).Once()
		mockVerifier.On("VerifyRange", mock.Anything, mock.Anything, uint64(110), uint64(99), uint64(0)).
			Return(headerMap(105, 110), nil).Once()

		result, err := lf.FetchRange(ctx, 100, 199, cp)
		require.NoError(t, err)
		require.Equal(t, uint64(110), result.ToBlock)
		require.Len(t, result.Logs, 1)
	})
}

func TestLogFetcher_FetchNext(t *testing.T) {
	ctx := context.Background()

	t.Run("backfill chunk", func(t *testing.T) {
		lf, mockRPC, mockVerifier := setupTestLogFetcher(t)
		cp := fetcher.Checkpoint{Block: 50, Hash: common.HexToHash("0x50")}

		mockVerifier.On("VerifyCheckpoint", mock.Anything, uint64(50), cp.Hash, uint64(10)).Return(nil).Once()
		mockRPC.On("GetFinalizedBlockHeader", mock.Anything).Return(createTestHeader(1000), nil).Once()
		mockRPC.On("GetLogs", mock.Anything, mock.Anything).Return(nil, nil).Once()
		mockVerifier.On("VerifyRange", mock.Anything, mock.Anything, uint64(150), uint64(50), uint64(10)).
			Return(headerMap(150), nil).Once()

		result, err := lf.FetchNext(ctx, cp, 10)
		require.NoError(t, err)
		require.Equal(t, uint64(51), result.FromBlock)
		require.Equal(t, uint64(150), result.ToBlock)
		require.Equal(t, fetcher.ModeBackfill, lf.GetMode())
	})

	t.Run("reaching head switches to live", func(t *testing.T) {
		lf, mockRPC, mockVerifier := setupTestLogFetcher(t)
		cp := fetcher.Checkpoint{Block: 50}

		mockVerifier.On("VerifyCheckpoint", mock.Anything, uint64(50), common.Hash{}, uint64(0)).Return(nil).Once()
		mockRPC.On("GetFinalizedBlockHeader", mock.Anything).Return(createTestHeader(60), nil).Once()
		mockRPC.On("GetLogs", mock.Anything, mock.Anything).Return(nil, nil).Once()
		mockVerifier.On("VerifyRange", mock.Anything, mock.Anything, uint64(60), uint64(50), uint64(0)).
			Return(headerMap(60), nil).Once()

		result, err := lf.FetchNext(ctx, cp, 0)
		require.NoError(t, err)
		require.Equal(t, uint64(60), result.ToBlock)
		require.Equal(t, fetcher.ModeLive, lf.GetMode())
	})

	t.Run("live waits for head to advance", func(t *testing.T) {
		lf, mockRPC, mockVerifier := setupTestLogFetcher(t)
		lf.SetMode(fetcher.ModeLive)
		cp := fetcher.Checkpoint{Block: 60}

		mockVerifier.On("VerifyCheckpoint", mock.Anything, uint64(60), common.Hash{}, uint64(0)).Return(nil).Once()
		mockRPC.On("GetFinalizedBlockHeader", mock.Anything).Return(createTestHeader(60), nil).Twice()
		mockRPC.On("GetFinalizedBlockHeader", mock.Anything).Return(createTestHeader(62), nil).Once()
		mockRPC.On("GetLogs", mock.Anything, mock.Anything).Return(nil, nil).Once()
		mockVerifier.On("VerifyRange", mock.Anything, mock.Anything, uint64(62), uint64(60), uint64(0)).
			Return(headerMap(62), nil).Once()

		result, err := lf.FetchNext(ctx, cp, 0)
		require.NoError(t, err)
		require.Equal(t, uint64(61), result.FromBlock)
		require.Equal(t, uint64(62), result.ToBlock)
	})

	t.Run("context cancelled while waiting", func(t *testing.T) {
		lf, mockRPC, mockVerifier := setupTestLogFetcher(t)
		lf.cfg.PollInterval = time.Hour
		cctx, cancel := context.WithCancel(ctx)

		mockVerifier.On("VerifyCheckpoint", mock.Anything, uint64(60), common.Hash{}, uint64(0)).Return(nil).Once()
		mockRPC.On("GetFinalizedBlockHeader", mock.Anything).Return(createTestHeader(60), nil).
			Run(func(mock.Arguments) { cancel() }).Once()

		_, err := lf.FetchNext(cctx, fetcher.Checkpoint{Block: 60}, 0)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("checkpoint reorg stops before fetching", func(t *testing.T) {
		lf, _, mockVerifier := setupTestLogFetcher(t)
		mockVerifier.On("VerifyCheckpoint", mock.Anything, uint64(80), mock.Anything, uint64(0)).
			Return(ireorg.NewReorgError(17, "checkpoint hash changed")).Once()

		_, err := lf.FetchNext(ctx, fetcher.Checkpoint{Block: 80, Hash: common.HexToHash("0x80")}, 0)
		var target *ireorg.ErrReorgDetected
		require.ErrorAs(t, err, &target)
	})
}

func TestLogFetcher_GetHeadBlock(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		finality itypes.BlockFinality
		lag      uint64
		method   string
		head     uint64
		want     uint64
	}{
		{name: "finalized", finality: itypes.FinalityFinalized, method: "GetFinalizedBlockHeader", head: 90, want: 90},
		{name: "safe", finality: itypes.FinalitySafe, method: "GetSafeBlockHeader", head: 95, want: 95},
		{name: "latest without lag", finality: itypes.FinalityLatest, method: "GetLatestBlockHeader", head: 100, want: 100},
		{name: "latest with lag", finality: itypes.FinalityLatest, lag: 12, method: "GetLatestBlockHeader", head: 100, want: 88},
		{name: "lag above head", finality: itypes.FinalityLatest, lag: 200, method: "GetLatestBlockHeader", head: 100, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lf, mockRPC, _ := setupTestLogFetcher(t)
			lf.cfg.Finality = tt.finality
			lf.cfg.FinalizedLag = tt.lag
			mockRPC.On(tt.method, mock.Anything).Return(createTestHeader(tt.head), nil).Once()

			got, err := lf.getHeadBlock(ctx)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("latest error does not panic", func(t *testing.T) {
		lf, mockRPC, _ := setupTestLogFetcher(t)
		lf.cfg.Finality = itypes.FinalityLatest
		mockRPC.On("GetLatestBlockHeader", mock.Anything).Return(nil, errors.New("down")).Once()

		_, err := lf.getHeadBlock(ctx)
		require.ErrorContains(t, err, "down")
	})
}
