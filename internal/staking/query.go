package staking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	icommon "github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/pkg/indexer"
	"github.com/russross/meddler"
)

const (
	// recentBlocksWindow is the block span GetMetrics treats as recent
	recentBlocksWindow = 1000
	secondsPerDay      = 86400
)

// GetEventTypes returns the names of every event the indexer can store.
func (i *Indexer) GetEventTypes() []string {
	types := make([]string, len(AllEventTypes))
	for n, t := range AllEventTypes {
		types[n] = string(t)
	}
	return types
}

func parseEventType(s string) (EventType, error) {
	for _, t := range AllEventTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type: %s", s)
}

// QueryEvents returns a page of event records. The address filter matches the
// participant, the counterparty or the emitting contract.
func (i *Indexer) QueryEvents(ctx context.Context, qp indexer.QueryParams) (any, int, error) {
	var (
		conditions []string
		args       []any
	)

	if qp.EventType != "" {
		t, err := parseEventType(qp.EventType)
		if err != nil {
			return nil, 0, err
		}
		conditions = append(conditions, "event_type = ?")
		args = append(args, string(t))
	}
	if qp.FromBlock != nil {
		conditions = append(conditions, "block_number >= ?")
		args = append(args, *qp.FromBlock)
	}
	if qp.ToBlock != nil {
		conditions = append(conditions, "block_number <= ?")
		args = append(args, *qp.ToBlock)
	}
	if qp.Address != "" {
		addr, err := icommon.ParseAddress(qp.Address)
		if err != nil {
			return nil, 0, err
		}
		conditions = append(conditions, "(participant = ? OR counterparty = ? OR contract_address = ?)")
		args = append(args, addr.Hex(), addr.Hex(), addr.Hex())
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+eventsTable+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	sortBy := "block_number"
	if qp.SortBy == "timestamp" {
		sortBy = "block_timestamp"
	}

	sortOrder := "DESC"
	if strings.EqualFold(qp.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	limit := qp.Limit
	if limit <= 0 {
		limit = indexer.DefaultPageLimit
	}

	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s %s, log_index %s LIMIT ? OFFSET ?",
		eventsTable, where, sortBy, sortOrder, sortOrder)
	args = append(args, limit, qp.Offset)

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	records := make([]*EventRecord, 0)
	if err := meddler.ScanAll(rows, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to scan events: %w", err)
	}

	return records, total, nil
}

// GetStats returns event counts per type, the indexed block span and the number of aggregates.
func (i *Indexer) GetStats(ctx context.Context) (*indexer.StatsResponse, error) {
	stats := &indexer.StatsResponse{EventCounts: make(map[string]int64, len(AllEventTypes))}
	for _, t := range AllEventTypes {
		stats.EventCounts[string(t)] = 0
	}

	rows, err := i.db.QueryContext(ctx, "SELECT event_type, COUNT(*) FROM "+eventsTable+" GROUP BY event_type")
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventType string
			count     int64
		)
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		stats.EventCounts[eventType] = count
		stats.TotalEvents += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := i.db.QueryRowContext(ctx,
		"SELECT COALESCE(MIN(block_number), 0), COALESCE(MAX(block_number), 0) FROM "+eventsTable).
		Scan(&stats.EarliestBlock, &stats.LatestBlock); err != nil {
		return nil, fmt.Errorf("failed to get block range: %w", err)
	}

	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+contractDetailsTable).Scan(&stats.Contracts); err != nil {
		return nil, fmt.Errorf("failed to count contracts: %w", err)
	}
	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+userTransactionsTable).Scan(&stats.Users); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	return stats, nil
}

// periodFormats maps a timeseries interval to its strftime pattern.
var periodFormats = map[string]string{
	"hour": "%Y-%m-%dT%H:00:00Z",
	"day":  "%Y-%m-%d",
	"week": "%Y-W%W",
}

// QueryEventsTimeseries groups event counts by the period of their block timestamp.
func (i *Indexer) QueryEventsTimeseries(
	ctx context.Context,
	tp indexer.TimeseriesParams,
) ([]indexer.TimeseriesDataPoint, error) {
	interval := tp.Interval
	if interval == "" {
		interval = "day"
	}
	format, ok := periodFormats[interval]
	if !ok {
		return nil, fmt.Errorf("invalid interval %q: must be one of hour, day, week", tp.Interval)
	}

	conditions := []string{"1=1"}
	args := []any{format}

	if tp.EventType != "" {
		t, err := parseEventType(tp.EventType)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "event_type = ?")
		args = append(args, string(t))
	}
	if tp.FromBlock != nil {
		conditions = append(conditions, "block_number >= ?")
		args = append(args, *tp.FromBlock)
	}
	if tp.ToBlock != nil {
		conditions = append(conditions, "block_number <= ?")
		args = append(args, *tp.ToBlock)
	}

	//nolint:gosec // only fixed condition fragments are joined
	query := `
		SELECT
			strftime(?, block_timestamp, 'unixepoch') AS period,
			event_type,
			COUNT(*),
			MIN(block_number),
			MAX(block_number)
		FROM ` + eventsTable + `
		WHERE ` + strings.Join(conditions, " AND ") + `
		GROUP BY period, event_type
		ORDER BY period ASC, event_type ASC`

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeseries: %w", err)
	}
	defer rows.Close()

	points := make([]indexer.TimeseriesDataPoint, 0)
	for rows.Next() {
		var p indexer.TimeseriesDataPoint
		if err := rows.Scan(&p.Period, &p.EventType, &p.Count, &p.MinBlock, &p.MaxBlock); err != nil {
			return nil, fmt.Errorf("failed to scan timeseries row: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// GetMetrics derives event rates from the stored records.
func (i *Indexer) GetMetrics(ctx context.Context) (*indexer.MetricsResponse, error) {
	m := &indexer.MetricsResponse{}

	var (
		total              int64
		minBlock, maxBlock uint64
		minTime, maxTime   uint64
	)
	if err := i.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(MIN(block_number), 0), COALESCE(MAX(block_number), 0),
			COALESCE(MIN(block_timestamp), 0), COALESCE(MAX(block_timestamp), 0)
		FROM `+eventsTable).Scan(&total, &minBlock, &maxBlock, &minTime, &maxTime); err != nil {
		return nil, fmt.Errorf("failed to get event span: %w", err)
	}

	if total == 0 {
		return m, nil
	}

	recentFrom := uint64(0)
	if maxBlock > recentBlocksWindow {
		recentFrom = maxBlock - recentBlocksWindow
	}

	if err := i.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+eventsTable+" WHERE block_number >= ?", recentFrom).
		Scan(&m.RecentEventsCount); err != nil {
		return nil, fmt.Errorf("failed to count recent events: %w", err)
	}

	m.RecentBlocksAnalyzed = maxBlock - max(recentFrom, minBlock) + 1
	m.EventsPerBlock = float64(m.RecentEventsCount) / float64(m.RecentBlocksAnalyzed)

	if maxTime > minTime {
		days := float64(maxTime-minTime) / secondsPerDay
		m.AvgEventsPerDay = float64(total) / max(days, 1)
	} else {
		m.AvgEventsPerDay = float64(total)
	}

	return m, nil
}

// GetContract returns the aggregate of a contract.
func (i *Indexer) GetContract(ctx context.Context, address common.Address) (any, error) {
	cd := &ContractDetails{}
	err := meddler.QueryRow(i.db, cd, "SELECT * FROM "+contractDetailsTable+" WHERE address = ?", address.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, indexer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract details: %w", err)
	}
	return cd, nil
}

// GetUser returns the aggregate of a user key.
func (i *Indexer) GetUser(ctx context.Context, address common.Address) (any, error) {
	ut := &UserTransactions{}
	err := meddler.QueryRow(i.db, ut, "SELECT * FROM "+userTransactionsTable+" WHERE address = ?", address.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, indexer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user transactions: %w", err)
	}
	return ut, nil
}

// userOrderColumns whitelists the ranking columns of ListUsers.
var userOrderColumns = map[string]string{
	"total_transactions":      "total_transactions",
	"total_user_transactions": "total_user_transactions",
	"total_user_stake":        "CAST(total_user_stake AS REAL)",
	"block_number":            "block_number",
}

// ListUsers ranks user aggregates by a counter. total_user_stake is ordered by
// its numeric value, which loses precision only between amounts that differ
// beyond the 15th significant digit.
func (i *Indexer) ListUsers(ctx context.Context, params indexer.UserQueryParams) (any, error) {
	orderBy := params.OrderBy
	if orderBy == "" {
		orderBy = "total_transactions"
	}
	column, ok := userOrderColumns[orderBy]
	if !ok {
		return nil, fmt.Errorf("invalid order_by %q", params.OrderBy)
	}

	sortOrder := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	limit := params.Limit
	if limit <= 0 {
		limit = indexer.DefaultPageLimit
	}

	users := make([]*UserTransactions, 0)
	if err := meddler.QueryAll(i.db, &users,
		fmt.Sprintf("SELECT * FROM %s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?", userTransactionsTable, column, sortOrder),
		limit, params.Offset); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// ListStakers returns the distinct users with at least one Staked event,
// ordered by their first stake.
func (i *Indexer) ListStakers(ctx context.Context, limit, offset int) ([]common.Address, int, error) {
	var total int
	if err := i.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT participant) FROM "+eventsTable+" WHERE event_type = ?", string(EventStaked)).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stakers: %w", err)
	}

	if limit <= 0 {
		limit = indexer.DefaultPageLimit
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT participant FROM `+eventsTable+`
		WHERE event_type = ?
		GROUP BY participant
		ORDER BY MIN(block_number) ASC, MIN(log_index) ASC
		LIMIT ? OFFSET ?`, string(EventStaked), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stakers: %w", err)
	}
	defer rows.Close()

	stakers := make([]common.Address, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, 0, fmt.Errorf("failed to scan staker: %w", err)
		}
		stakers = append(stakers, common.HexToAddress(s))
	}

	return stakers, total, rows.Err()
}
