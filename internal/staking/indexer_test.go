package staking

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	"github.com/goran-ethernal/StakingIndexor/pkg/indexer"
	"github.com/russross/meddler"
	"github.com/stretchr/testify/require"
)

func testIndexerConfig(t *testing.T, accounting string) config.IndexerConfig {
	t.Helper()

	cfg := config.IndexerConfig{
		Name:       "staking-test",
		Type:       IndexerType,
		StartBlock: 1,
		DB:         config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "staking.db")},
		Accounting: accounting,
		Contracts: []config.ContractConfig{
			{
				Address: stakingContract.Hex(),
				Events: []string{
					"Staked(address indexed user, uint256 amount, uint256 newTotalStaked)",
					sigWithdrawn, sigEmergencyWithdrawn, sigRewardsClaimed, sigToken,
				},
			},
			{
				Address: tokenContract.Hex(),
				Events:  []string{sigTransfer, sigApproval},
			},
		},
	}
	cfg.ApplyDefaults()

	return cfg
}

func newTestIndexer(t *testing.T, reader ContractReader) *Indexer {
	t.Helper()

	idx, err := New(testIndexerConfig(t, config.AccountingCompat), reader, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	return idx
}

func batchOf(logs ...types.Log) indexer.Batch {
	b := indexer.Batch{BlockTimestamps: make(map[uint64]uint64)}
	for n, l := range logs {
		if n == 0 || l.BlockNumber < b.FromBlock {
			b.FromBlock = l.BlockNumber
		}
		b.ToBlock = max(b.ToBlock, l.BlockNumber)
		b.BlockTimestamps[l.BlockNumber] = 1_700_000_000 + l.BlockNumber*12
	}
	b.Logs = logs
	return b
}

func TestNew(t *testing.T) {
	t.Parallel()

	idx := newTestIndexer(t, constantReader(t, 0, 0))

	require.Equal(t, "staking-test", idx.GetName())
	require.Equal(t, IndexerType, idx.GetType())
	require.Equal(t, uint64(1), idx.StartBlock())
	require.FileExists(t, idx.DBPath())

	events := idx.EventsToIndex()
	require.Len(t, events, 2)
	require.Len(t, events[stakingContract], 5)
	require.Contains(t, events[stakingContract], topicOf(sigStaked))
	require.Len(t, events[tokenContract], 2)
	require.Contains(t, events[tokenContract], topicOf(sigApproval))
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown signature", func(t *testing.T) {
		t.Parallel()

		cfg := testIndexerConfig(t, config.AccountingCompat)
		cfg.Contracts[0].Events = append(cfg.Contracts[0].Events, "Paused(address)")

		_, err := New(cfg, constantReader(t, 0, 0), logger.NewNopLogger())
		require.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("invalid address", func(t *testing.T) {
		t.Parallel()

		cfg := testIndexerConfig(t, config.AccountingCompat)
		cfg.Contracts[1].Address = "0x1234"

		_, err := New(cfg, constantReader(t, 0, 0), logger.NewNopLogger())
		require.Error(t, err)
	})

	t.Run("unknown accounting", func(t *testing.T) {
		t.Parallel()

		cfg := testIndexerConfig(t, "strict")

		_, err := New(cfg, constantReader(t, 0, 0), logger.NewNopLogger())
		require.ErrorContains(t, err, "unknown accounting mode")
	})

	t.Run("missing reader", func(t *testing.T) {
		t.Parallel()

		_, err := New(testIndexerConfig(t, config.AccountingCompat), nil, logger.NewNopLogger())
		require.Error(t, err)
	})
}

func TestFactoryIsRegistered(t *testing.T) {
	t.Parallel()

	factory := indexer.GetFactory(IndexerType)
	require.NotNil(t, factory)

	_, err := factory(testIndexerConfig(t, config.AccountingCompat), nil, logger.NewNopLogger())
	require.ErrorContains(t, err, "requires an RPC client")
}

func TestIndexer_HandleLogs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newTestIndexer(t, constantReader(t, 150, 5))

	batch := batchOf(
		stakedLog(userAA, 100, 100, 1, 1),
		stakedLog(userAA, 50, 150, 2, 2),
		transferLog(userAA, userBB, 10, 2, 3),
		withdrawnLog(userAA, 30, 3, 4),
	)
	require.NoError(t, idx.HandleLogs(ctx, batch))

	cd := loadContract(t, idx.DB(), stakingContract)
	require.Equal(t, int64(150), cd.TotalStakes.Int64())
	require.Equal(t, int64(30), cd.TotalWithdrawn.Int64())
	require.Equal(t, int64(5), cd.TotalRewardsGiven.Int64())
	require.Equal(t, uint64(3), cd.UpdatedBlock)

	ut := loadUser(t, idx.DB(), userAA)
	require.Equal(t, int64(150), ut.TotalUserStake.Int64())
	require.Equal(t, uint64(3), ut.TotalUserTransactions)
	require.Equal(t, batch.Timestamp(3), ut.BlockTimestamp)

	token := loadUser(t, idx.DB(), tokenContract)
	require.Equal(t, uint64(1), token.TotalTransactions)

	require.Equal(t, 4, countRows(t, idx.DB(), eventsTable))

	// redelivery of the same logs changes nothing
	require.NoError(t, idx.HandleLogs(ctx, batch))

	again := loadUser(t, idx.DB(), userAA)
	require.Equal(t, uint64(3), again.TotalUserTransactions)
	require.Equal(t, int64(150), again.TotalUserStake.Int64())
	require.Equal(t, 4, countRows(t, idx.DB(), eventsTable))
}

func TestIndexer_HandleLogsSkipsUndecodableLogs(t *testing.T) {
	t.Parallel()

	idx := newTestIndexer(t, constantReader(t, 0, 0))

	bad := withdrawnLog(userAA, 1, 1, 1)
	bad.Data = []byte{0x01}

	require.NoError(t, idx.HandleLogs(context.Background(), batchOf(
		bad,
		withdrawnLog(userBB, 7, 2, 2),
	)))

	require.Equal(t, 1, countRows(t, idx.DB(), eventsTable))
	require.Equal(t, int64(7), loadUser(t, idx.DB(), userBB).TotalUserWithdrawn.Int64())
}

func TestIndexer_HandleLogsIsolatesHandlerFailures(t *testing.T) {
	t.Parallel()

	idx := newTestIndexer(t, constantReader(t, 0, 0))

	_, err := idx.DB().Exec(`
		CREATE TRIGGER reject_user BEFORE INSERT ON user_transactions
		WHEN NEW.address = '` + userCC.Hex() + `'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END;`)
	require.NoError(t, err)

	require.NoError(t, idx.HandleLogs(context.Background(), batchOf(
		withdrawnLog(userAA, 10, 1, 1),
		withdrawnLog(userCC, 20, 2, 2),
		withdrawnLog(userBB, 30, 3, 3),
	)))

	// the failed event left no trace, the others were committed
	require.Equal(t, 2, countRows(t, idx.DB(), eventsTable))
	require.Equal(t, 2, countRows(t, idx.DB(), userTransactionsTable))
	require.Equal(t, int64(40), loadContract(t, idx.DB(), stakingContract).TotalWithdrawn.Int64())
}

func TestIndexer_HandleLogsCancelled(t *testing.T) {
	t.Parallel()

	idx := newTestIndexer(t, constantReader(t, 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, idx.HandleLogs(ctx, batchOf(withdrawnLog(userAA, 10, 1, 1))))
	require.Equal(t, 0, countRows(t, idx.DB(), eventsTable))
}

func chainLogs() []types.Log {
	return []types.Log{
		stakedLog(userAA, 100, 100, 1, 1),
		stakedLog(userBB, 40, 140, 2, 2),
		transferLog(userAA, userCC, 5, 2, 3),
		withdrawnLog(userAA, 30, 3, 4),
		newLog(stakingContract, sigRewardsClaimed, []common.Address{userBB}, word(9), 4, 5, 0),
		newLog(stakingContract, sigEmergencyWithdrawn, []common.Address{userBB}, word(110), 5, 6, 0),
	}
}

// snapshot returns every aggregate with its surrogate id cleared.
func snapshot(t *testing.T, idx *Indexer) ([]*ContractDetails, []*UserTransactions) {
	t.Helper()

	var contracts []*ContractDetails
	require.NoError(t, meddler.QueryAll(idx.DB(), &contracts, "SELECT * FROM contract_details ORDER BY address"))
	for _, c := range contracts {
		c.ID = 0
	}

	var users []*UserTransactions
	require.NoError(t, meddler.QueryAll(idx.DB(), &users, "SELECT * FROM user_transactions ORDER BY address"))
	for _, u := range users {
		u.ID = 0
	}

	return contracts, users
}

func TestIndexer_HandleReorgMatchesFreshIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logs := chainLogs()

	reorged := newTestIndexer(t, constantReader(t, 140, 9))
	require.NoError(t, reorged.HandleLogs(ctx, batchOf(logs...)))
	require.NoError(t, reorged.HandleReorg(ctx, 3))

	fresh := newTestIndexer(t, constantReader(t, 140, 9))
	require.NoError(t, fresh.HandleLogs(ctx, batchOf(logs[:3]...)))

	require.Equal(t, 3, countRows(t, reorged.DB(), eventsTable))

	wantContracts, wantUsers := snapshot(t, fresh)
	gotContracts, gotUsers := snapshot(t, reorged)
	require.Equal(t, wantContracts, gotContracts)
	require.Equal(t, wantUsers, gotUsers)

	// the dropped range can be indexed again
	require.NoError(t, reorged.HandleLogs(ctx, batchOf(logs[3:]...)))
	require.Equal(t, len(logs), countRows(t, reorged.DB(), eventsTable))
}

func TestIndexer_RebuildIsStable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newTestIndexer(t, constantReader(t, 140, 9))
	require.NoError(t, idx.HandleLogs(ctx, batchOf(chainLogs()...)))

	wantContracts, wantUsers := snapshot(t, idx)

	require.NoError(t, idx.Rebuild(ctx))

	gotContracts, gotUsers := snapshot(t, idx)
	require.Equal(t, wantContracts, gotContracts)
	require.Equal(t, wantUsers, gotUsers)
	require.Equal(t, len(chainLogs()), countRows(t, idx.DB(), eventsTable))
}
