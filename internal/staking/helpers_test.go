package staking

import (
	"database/sql"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goran-ethernal/StakingIndexor/internal/db"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/internal/staking/migrations"
	"github.com/goran-ethernal/StakingIndexor/internal/staking/mocks"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	"github.com/russross/meddler"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	stakingContract = common.HexToAddress("0x00000000000000000000000000000000000005c0")
	tokenContract   = common.HexToAddress("0x0000000000000000000000000000000000000700")
	userAA          = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	userBB          = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	userCC          = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

const (
	sigStaked             = "Staked(address,uint256,uint256)"
	sigWithdrawn          = "Withdrawn(address,uint256)"
	sigEmergencyWithdrawn = "EmergencyWithdrawn(address,uint256)"
	sigRewardsClaimed     = "RewardsClaimed(address,uint256)"
	sigToken              = "token(address,uint256)"
	sigTransfer           = "Transfer(address,address,uint256)"
	sigApproval           = "Approval(address,address,uint256)"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "staking.db")}
	cfg.ApplyDefaults()

	database, err := db.NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.RunMigrations(logger.NewNopLogger(), database))

	return database
}

func newTestStore(t *testing.T, reader ContractReader) (*SQLStore, *sql.DB) {
	t.Helper()

	database := newTestDB(t)
	return NewSQLStore(database, reader, false, logger.NewNopLogger()), database
}

// constantReader reports fixed totals for every contract and block.
func constantReader(t *testing.T, staked, rewards int64) *mocks.ContractReader {
	t.Helper()

	r := mocks.NewContractReader(t)
	r.On("TotalStaked", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(staked), nil).Maybe()
	r.On("TotalRewards", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(rewards), nil).Maybe()

	return r
}

func newTestEngine(t *testing.T, accounting string) *Engine {
	t.Helper()

	e, err := NewEngine(accounting, logger.NewNopLogger())
	require.NoError(t, err)

	return e
}

func txHash(n byte) common.Hash {
	return common.BytesToHash([]byte{0xee, n})
}

func stakingMeta(block uint64, tx byte, logIndex uint) EventMeta {
	return EventMeta{
		Contract:       stakingContract,
		BlockNumber:    block,
		BlockHash:      common.BytesToHash([]byte{0xbb, byte(block)}),
		BlockTimestamp: 1_700_000_000 + block*12,
		TxHash:         txHash(tx),
		LogIndex:       logIndex,
	}
}

func tokenMeta(block uint64, tx byte, logIndex uint) EventMeta {
	m := stakingMeta(block, tx, logIndex)
	m.Contract = tokenContract
	return m
}

func amount(v int64) *big.Int {
	return big.NewInt(v)
}

func loadContract(t *testing.T, database *sql.DB, addr common.Address) *ContractDetails {
	t.Helper()

	cd := &ContractDetails{}
	require.NoError(t, meddler.QueryRow(database, cd, "SELECT * FROM contract_details WHERE address = ?", addr.Hex()))

	return cd
}

func loadUser(t *testing.T, database *sql.DB, addr common.Address) *UserTransactions {
	t.Helper()

	ut := &UserTransactions{}
	require.NoError(t, meddler.QueryRow(database, ut, "SELECT * FROM user_transactions WHERE address = ?", addr.Hex()))

	return ut
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))

	return n
}

func topicOf(sig string) common.Hash {
	return crypto.Keccak256Hash([]byte(sig))
}

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func word(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func newLog(contract common.Address, sig string, indexed []common.Address, data []byte, block uint64, tx byte, idx uint) types.Log {
	topics := []common.Hash{topicOf(sig)}
	for _, a := range indexed {
		topics = append(topics, addrTopic(a))
	}

	return types.Log{
		Address:     contract,
		Topics:      topics,
		Data:        data,
		BlockNumber: block,
		BlockHash:   common.BytesToHash([]byte{0xbb, byte(block)}),
		TxHash:      txHash(tx),
		Index:       idx,
	}
}

func stakedLog(user common.Address, amt, newTotal int64, block uint64, tx byte) types.Log {
	return newLog(stakingContract, sigStaked, []common.Address{user}, append(word(amt), word(newTotal)...), block, tx, 0)
}

func withdrawnLog(user common.Address, amt int64, block uint64, tx byte) types.Log {
	return newLog(stakingContract, sigWithdrawn, []common.Address{user}, word(amt), block, tx, 0)
}

func transferLog(from, to common.Address, value int64, block uint64, tx byte) types.Log {
	return newLog(tokenContract, sigTransfer, []common.Address{from, to}, word(value), block, tx, 1)
}
