package staking

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/goran-ethernal/StakingIndexor/internal/db"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/internal/staking/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSQLStore_LoadOrCreateUserTransactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, database := newTestStore(t, constantReader(t, 0, 0))

	ut, err := store.LoadOrCreateUserTransactions(ctx, userAA)
	require.NoError(t, err)
	require.NotZero(t, ut.ID)
	require.Equal(t, userAA, ut.Address)
	require.Zero(t, ut.TotalUserStake.Sign())
	require.Equal(t, 1, countRows(t, database, userTransactionsTable))

	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	require.True(t, ok)

	ut.TotalUserStake = huge
	ut.TotalUserTransactions = 4
	require.NoError(t, store.SaveUserTransactions(ctx, ut))

	again, err := store.LoadOrCreateUserTransactions(ctx, userAA)
	require.NoError(t, err)
	require.Equal(t, ut.ID, again.ID)
	require.Equal(t, 0, huge.Cmp(again.TotalUserStake))
	require.Equal(t, uint64(4), again.TotalUserTransactions)
	require.Equal(t, 1, countRows(t, database, userTransactionsTable))
}

func TestSQLStore_LoadOrCreateContractDetailsEnriches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, database := newTestStore(t, constantReader(t, 150, 40))

	cd, err := store.LoadOrCreateContractDetails(ctx, stakingContract, 10)
	require.NoError(t, err)
	require.Equal(t, int64(150), cd.TotalStakes.Int64())
	require.Equal(t, int64(40), cd.TotalRewardsGiven.Int64())
	require.Zero(t, cd.TotalMinted.Sign())

	// persisted by the load itself
	stored := loadContract(t, database, stakingContract)
	require.Equal(t, int64(150), stored.TotalStakes.Int64())
	require.Equal(t, int64(40), stored.TotalRewardsGiven.Int64())
}

func TestSQLStore_ReadFailureDegradesToZero(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	reader := mocks.NewContractReader(t)
	reader.On("TotalStaked", mock.Anything, stakingContract, mock.Anything).Return(big.NewInt(80), nil)
	reader.On("TotalRewards", mock.Anything, stakingContract, mock.Anything).Return(big.NewInt(500), nil).Once()
	reader.On("TotalRewards", mock.Anything, stakingContract, mock.Anything).Return(nil, errors.New("execution reverted"))

	store, database := newTestStore(t, reader)

	cd, err := store.LoadOrCreateContractDetails(ctx, stakingContract, 1)
	require.NoError(t, err)
	require.Equal(t, int64(500), cd.TotalRewardsGiven.Int64())

	cd, err = store.LoadOrCreateContractDetails(ctx, stakingContract, 2)
	require.NoError(t, err)
	require.Zero(t, cd.TotalRewardsGiven.Sign())
	require.Equal(t, int64(80), cd.TotalStakes.Int64())
	require.Zero(t, loadContract(t, database, stakingContract).TotalRewardsGiven.Sign())
}

func TestSQLStore_ReadsAtEventBlock(t *testing.T) {
	t.Parallel()

	reader := mocks.NewContractReader(t)
	reader.On("TotalStaked", mock.Anything, stakingContract, big.NewInt(77)).Return(big.NewInt(1), nil).Once()
	reader.On("TotalRewards", mock.Anything, stakingContract, big.NewInt(77)).Return(big.NewInt(2), nil).Once()

	database := newTestDB(t)
	store := NewSQLStore(database, reader, true, logger.NewNopLogger())

	_, err := store.LoadOrCreateContractDetails(context.Background(), stakingContract, 77)
	require.NoError(t, err)
}

func TestSQLStore_InsertEventRejectsDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, database := newTestStore(t, constantReader(t, 0, 0))

	rec := recordOf(WithdrawnEvent{EventMeta: stakingMeta(5, 1, 2), User: userAA, Amount: amount(3)})
	require.NoError(t, store.InsertEvent(ctx, rec))

	exists, err := store.HasEvent(ctx, rec.TxHash, rec.LogIndex)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.HasEvent(ctx, rec.TxHash, rec.LogIndex+1)
	require.NoError(t, err)
	require.False(t, exists)

	dup := recordOf(WithdrawnEvent{EventMeta: stakingMeta(5, 1, 2), User: userBB, Amount: amount(99)})
	require.ErrorIs(t, store.InsertEvent(ctx, dup), ErrDuplicateEvent)
	require.Equal(t, 1, countRows(t, database, eventsTable))
}

func TestSQLStore_WithTxRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, database := newTestStore(t, constantReader(t, 0, 0))

	tx, err := database.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = store.WithTx(tx).LoadOrCreateUserTransactions(ctx, userCC)
	require.NoError(t, err)
	require.NoError(t, db.Rollback(tx))

	require.Equal(t, 0, countRows(t, database, userTransactionsTable))
}

func TestSQLStore_ReplayHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, database := newTestStore(t, constantReader(t, 0, 0))

	for i, block := range []uint64{30, 10, 20} {
		rec := recordOf(StakedEvent{EventMeta: stakingMeta(block, byte(i), 0), User: userAA, Amount: amount(1)})
		require.NoError(t, store.InsertEvent(ctx, rec))
	}
	_, err := store.LoadOrCreateUserTransactions(ctx, userAA)
	require.NoError(t, err)

	records, err := store.allEvents()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []uint64{10, 20, 30},
		[]uint64{records[0].BlockNumber, records[1].BlockNumber, records[2].BlockNumber})

	deleted, err := store.deleteEventsFrom(ctx, 20)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	require.NoError(t, store.clearAggregates(ctx))
	require.Equal(t, 0, countRows(t, database, userTransactionsTable))
	require.Equal(t, 1, countRows(t, database, eventsTable))
}
