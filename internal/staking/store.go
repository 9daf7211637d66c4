package staking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakingIndexor/internal/db"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/mattn/go-sqlite3"
	"github.com/russross/meddler"
)

// ErrDuplicateEvent is returned when an event record with the same (tx hash, log index) exists.
var ErrDuplicateEvent = errors.New("duplicate event")

const (
	contractDetailsTable  = "contract_details"
	userTransactionsTable = "user_transactions"
	eventsTable           = "staking_events"
)

// Store persists aggregates and event records. Every save replaces the whole record.
type Store interface {
	// LoadOrCreateContractDetails returns the aggregate of contract, creating a zero
	// record when missing. Each load refreshes totalStakes and totalRewardsGiven
	// from the contract; a failed read sets the field to zero. The refreshed
	// record is persisted before it is returned.
	LoadOrCreateContractDetails(ctx context.Context, contract common.Address, blockNumber uint64) (*ContractDetails, error)
	SaveContractDetails(ctx context.Context, cd *ContractDetails) error

	// LoadOrCreateUserTransactions returns the aggregate of key, creating and
	// persisting a zero record when missing.
	LoadOrCreateUserTransactions(ctx context.Context, key common.Address) (*UserTransactions, error)
	SaveUserTransactions(ctx context.Context, ut *UserTransactions) error

	HasEvent(ctx context.Context, txHash common.Hash, logIndex uint) (bool, error)
	// InsertEvent stores an immutable event record or fails with ErrDuplicateEvent.
	InsertEvent(ctx context.Context, rec *EventRecord) error
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	meddler.DB
	db.Querier
}

var _ Store = (*SQLStore)(nil)

// SQLStore is the SQLite Store.
type SQLStore struct {
	q           querier
	reader      ContractReader
	readAtBlock bool
	log         *logger.Logger
}

// NewSQLStore creates a store over database. When readAtBlock is set the
// contract reads target the block of the event being applied.
func NewSQLStore(database *sql.DB, reader ContractReader, readAtBlock bool, log *logger.Logger) *SQLStore {
	return &SQLStore{
		q:           database,
		reader:      reader,
		readAtBlock: readAtBlock,
		log:         log,
	}
}

// WithTx returns a copy of the store bound to tx.
func (s *SQLStore) WithTx(tx *sql.Tx) *SQLStore {
	c := *s
	c.q = tx
	return &c
}

func (s *SQLStore) LoadOrCreateContractDetails(
	ctx context.Context,
	contract common.Address,
	blockNumber uint64,
) (*ContractDetails, error) {
	cd := &ContractDetails{}
	err := meddler.QueryRow(s.q, cd, "SELECT * FROM "+contractDetailsTable+" WHERE address = ?", contract.Hex())
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cd = newContractDetails(contract)
	case err != nil:
		return nil, fmt.Errorf("failed to load contract details %s: %w", contract.Hex(), err)
	}

	var at *big.Int
	if s.readAtBlock {
		at = new(big.Int).SetUint64(blockNumber)
	}

	cd.TotalStakes = s.read(ctx, "totalStaked", contract, at, s.reader.TotalStaked)
	cd.TotalRewardsGiven = s.read(ctx, "getTotalRewards", contract, at, s.reader.TotalRewards)

	if err := s.SaveContractDetails(ctx, cd); err != nil {
		return nil, err
	}

	return cd, nil
}

// read runs one authoritative read, degrading to zero on failure.
func (s *SQLStore) read(
	ctx context.Context,
	method string,
	contract common.Address,
	at *big.Int,
	fn func(context.Context, common.Address, *big.Int) (*big.Int, error),
) *big.Int {
	v, err := fn(ctx, contract, at)
	if err != nil || v == nil {
		s.log.Warnw("contract read failed, using zero",
			"method", method,
			"contract", contract.Hex(),
			"error", err,
		)
		ReadFailureInc(method)
		return new(big.Int)
	}

	return v
}

func (s *SQLStore) SaveContractDetails(_ context.Context, cd *ContractDetails) error {
	if err := save(s.q, contractDetailsTable, cd, cd.ID); err != nil {
		return fmt.Errorf("failed to save contract details %s: %w", cd.Address.Hex(), err)
	}
	return nil
}

func (s *SQLStore) LoadOrCreateUserTransactions(_ context.Context, key common.Address) (*UserTransactions, error) {
	ut := &UserTransactions{}
	err := meddler.QueryRow(s.q, ut, "SELECT * FROM "+userTransactionsTable+" WHERE address = ?", key.Hex())
	if err == nil {
		return ut, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load user transactions %s: %w", key.Hex(), err)
	}

	ut = newUserTransactions(key)
	if err := meddler.Insert(s.q, userTransactionsTable, ut); err != nil {
		return nil, fmt.Errorf("failed to create user transactions %s: %w", key.Hex(), err)
	}

	return ut, nil
}

func (s *SQLStore) SaveUserTransactions(_ context.Context, ut *UserTransactions) error {
	if err := save(s.q, userTransactionsTable, ut, ut.ID); err != nil {
		return fmt.Errorf("failed to save user transactions %s: %w", ut.Address.Hex(), err)
	}
	return nil
}

// save inserts a record that has no row yet and replaces it otherwise.
func save(q meddler.DB, table string, rec any, id int64) error {
	if id == 0 {
		return meddler.Insert(q, table, rec)
	}
	return meddler.Update(q, table, rec)
}

func (s *SQLStore) HasEvent(ctx context.Context, txHash common.Hash, logIndex uint) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+eventsTable+" WHERE tx_hash = ? AND log_index = ?)",
		txHash.Hex(), logIndex,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event %s/%d: %w", txHash.Hex(), logIndex, err)
	}

	return exists, nil
}

func (s *SQLStore) InsertEvent(ctx context.Context, rec *EventRecord) error {
	exists, err := s.HasEvent(ctx, rec.TxHash, rec.LogIndex)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s/%d", ErrDuplicateEvent, rec.TxHash.Hex(), rec.LogIndex)
	}

	if err := meddler.Insert(s.q, eventsTable, rec); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%d", ErrDuplicateEvent, rec.TxHash.Hex(), rec.LogIndex)
		}
		return fmt.Errorf("failed to insert %s event: %w", rec.EventType, err)
	}

	return nil
}

// isUniqueViolation reports a UNIQUE constraint failure. meddler does not
// always keep the driver error in the chain, so the message is checked too.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// deleteEventsFrom removes every event record at or above block.
func (s *SQLStore) deleteEventsFrom(ctx context.Context, block uint64) (int64, error) {
	res, err := s.q.ExecContext(ctx, "DELETE FROM "+eventsTable+" WHERE block_number >= ?", block)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events from block %d: %w", block, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}

	return n, nil
}

// clearAggregates removes every contract and user aggregate.
func (s *SQLStore) clearAggregates(ctx context.Context) error {
	for _, table := range []string{contractDetailsTable, userTransactionsTable} {
		if _, err := s.q.ExecContext(ctx, "DELETE FROM "+table); err != nil { //nolint:gosec
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// allEvents returns every stored event in chain order.
func (s *SQLStore) allEvents() ([]*EventRecord, error) {
	var records []*EventRecord
	if err := meddler.QueryAll(s.q, &records,
		"SELECT * FROM "+eventsTable+" ORDER BY block_number ASC, log_index ASC"); err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return records, nil
}
