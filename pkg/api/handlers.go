package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/pkg/indexer"
)

// IndexerRegistry defines the interface for accessing registered indexers.
type IndexerRegistry interface {
	GetByName(name string) indexer.Indexer
	ListAll() []indexer.Indexer
}

// userOrderFields are the accepted order_by values of the users listing.
var userOrderFields = []string{"total_transactions", "total_user_transactions", "total_user_stake", "block_number"}

// Handler handles HTTP requests for the API.
type Handler struct {
	registry IndexerRegistry
	log      *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(registry IndexerRegistry, log *logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		log:      log,
	}
}

// ListIndexers returns a list of all registered indexers.
// @Summary List all indexers
// @Description Get a list of all registered indexers with their event types and available endpoints
// @Tags Indexers
// @Produce json
// @Success 200 {array} IndexerInfo "List of indexers"
// @Router /indexers [get]
func (h *Handler) ListIndexers(w http.ResponseWriter, r *http.Request) {
	indexers := h.registry.ListAll()

	infos := make([]IndexerInfo, 0, len(indexers))
	for _, idx := range indexers {
		queryable, ok := idx.(indexer.Queryable)
		if !ok {
			continue
		}

		base := fmt.Sprintf("/api/v1/indexers/%s", idx.GetName())
		info := IndexerInfo{
			Type:       idx.GetType(),
			Name:       idx.GetName(),
			EventTypes: queryable.GetEventTypes(),
			Endpoints:  []string{base + "/events", base + "/stats"},
		}
		if _, ok := idx.(indexer.AggregateQueryable); ok {
			info.Endpoints = append(info.Endpoints,
				base+"/contracts/{address}",
				base+"/users",
				base+"/users/{address}",
				base+"/stakers",
			)
		}
		infos = append(infos, info)
	}

	respondJSON(w, http.StatusOK, infos)
}

// lookup resolves the indexer named in the path. It writes the error response
// and returns nil when the indexer is missing.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) indexer.Indexer {
	indexerName := r.PathValue("name")
	if indexerName == "" {
		respondError(w, http.StatusBadRequest, "indexer name is required")
		return nil
	}

	idx := h.registry.GetByName(indexerName)
	if idx == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("indexer '%s' not found", indexerName))
		return nil
	}

	return idx
}

func (h *Handler) queryable(w http.ResponseWriter, r *http.Request) (indexer.Queryable, string) {
	idx := h.lookup(w, r)
	if idx == nil {
		return nil, ""
	}

	queryable, ok := idx.(indexer.Queryable)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("indexer '%s' does not support querying", r.PathValue("name")))
		return nil, ""
	}

	return queryable, r.PathValue("name")
}

func (h *Handler) aggregates(w http.ResponseWriter, r *http.Request) indexer.AggregateQueryable {
	idx := h.lookup(w, r)
	if idx == nil {
		return nil
	}

	aggregates, ok := idx.(indexer.AggregateQueryable)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("indexer '%s' does not keep aggregates", r.PathValue("name")))
		return nil
	}

	return aggregates
}

// GetEvents retrieves events from a specific indexer.
// @Summary Get events from an indexer
// @Description Retrieve event records with optional filtering, pagination, and sorting
// @Tags Events
// @Produce json
// @Param name path string true "Indexer name"
// @Param event_type query string false "Event type to filter by"
// @Param limit query int false "Maximum number of events to return" default(100)
// @Param offset query int false "Number of events to skip" default(0)
// @Param from_block query integer false "Filter events from this block number"
// @Param to_block query integer false "Filter events up to this block number"
// @Param address query string false "Filter by address (participant, counterparty or contract)"
// @Param sort_by query string false "Field to sort by" Enums(block, timestamp)
// @Param sort_order query string false "Sort order: asc or desc" Enums(asc, desc)
// @Success 200 {object} EventResponse "List of events with pagination info"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Indexer not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexers/{name}/events [get]
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	queryable, indexerName := h.queryable(w, r)
	if queryable == nil {
		return
	}

	params, err := parseQueryParams(r)
	if err == nil {
		err = validateEventType(queryable, params.EventType)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	events, total, err := queryable.QueryEvents(r.Context(), *params)
	if err != nil {
		h.log.Errorf("Failed to query events: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to query events")
		return
	}

	// Use reflection to get length since events could be any slice type
	eventsVal := reflect.ValueOf(events)
	if eventsVal.Kind() != reflect.Slice {
		h.log.Errorf("Invalid events type returned from indexer '%s': expected slice, got %T", indexerName, events)
		respondError(w, http.StatusInternalServerError, "invalid events type returned from indexer")
		return
	}

	response := EventResponse{
		Events:     events,
		Pagination: newPagination(total, params.Limit, params.Offset, eventsVal.Len()),
	}

	respondJSON(w, http.StatusOK, response)
}

// GetStats retrieves statistics for a specific indexer.
// @Summary Get indexer statistics
// @Description Retrieve event counts and the indexed block span of an indexer
// @Tags Stats
// @Produce json
// @Param name path string true "Indexer name"
// @Success 200 {object} indexer.StatsResponse "Indexer statistics"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Indexer not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexers/{name}/stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	queryable, _ := h.queryable(w, r)
	if queryable == nil {
		return
	}

	stats, err := queryable.GetStats(r.Context())
	if err != nil {
		h.log.Errorf("Failed to get stats: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetEventsTimeseries retrieves time-series aggregated event data.
// @Summary Get timeseries event data
// @Description Retrieve events aggregated by time periods (hour, day, or week) with event counts
// @Tags Analytics
// @Produce json
// @Param name path string true "Indexer name"
// @Param interval query string false "Time period interval" Enums(hour, day, week) default(day)
// @Param event_type query string false "Filter by specific event type"
// @Param from_block query integer false "Filter events from this block number"
// @Param to_block query integer false "Filter events up to this block number"
// @Success 200 {array} indexer.TimeseriesDataPoint "Timeseries data points with event counts"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Indexer not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexers/{name}/events/timeseries [get]
func (h *Handler) GetEventsTimeseries(w http.ResponseWriter, r *http.Request) {
	queryable, _ := h.queryable(w, r)
	if queryable == nil {
		return
	}

	params, err := parseTimeseriesParams(r)
	if err == nil {
		err = validateEventType(queryable, params.EventType)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	data, err := queryable.QueryEventsTimeseries(r.Context(), *params)
	if err != nil {
		h.log.Errorf("Failed to query events timeseries: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to query events timeseries")
		return
	}

	respondJSON(w, http.StatusOK, data)
}

// GetMetrics retrieves performance and processing metrics.
// @Summary Get indexer metrics
// @Description Retrieve processing rates derived from the stored events
// @Tags Metrics
// @Produce json
// @Param name path string true "Indexer name"
// @Success 200 {object} indexer.MetricsResponse "Indexer metrics"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Indexer not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexers/{name}/metrics [get]
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	queryable, _ := h.queryable(w, r)
	if queryable == nil {
		return
	}

	metrics, err := queryable.GetMetrics(r.Context())
	if err != nil {
		h.log.Errorf("Failed to get metrics: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get metrics")
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// GetContract retrieves the aggregate of a staking contract.
// @Summary Get contract details
// @Description Retrieve the aggregate of a staking contract
// @Tags Aggregates
// @Produce json
// @Param name path string true "Indexer name"
// @Param address path string true "Contract address"
// @Success 200 {object} object "Contract aggregate"
// @Failure 400 {object} ErrorResponse "Invalid address"
// @Failure 404 {object} ErrorResponse "Indexer or contract not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexers/{name}/contracts/{address} [get]
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	aggregates := h.aggregates(w, r)
	if aggregates == nil {
		return
	}

	address, ok := pathAddress(w, r)
	if !ok {
		return
	}

	cd, err := aggregates.GetContract(r.Context(), address)
	h.respondRecord(w, "contract", address, cd, err)
}

// GetUser retrieves the aggregate of a user key.
// @Summary Get user transactions
// @Description Retrieve the aggregate of a user key
// @Tags Aggregates
// @Produce json
// @Param name path string true "Indexer name"
// @Param address path string true "User address"
// @Success 200 {object} object "User aggregate"
// @Failure 400 {object} ErrorResponse "Invalid address"
// @Failure 404 {object} ErrorResponse "Indexer or user not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexers/{name}/users/{address} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	aggregates := h.aggregates(w, r)
	if aggregates == nil {
		return
	}

	address, ok := pathAddress(w, r)
	if !ok {
		return
	}

	ut, err := aggregates.GetUser(r.Context(), address)
	h.respondRecord(w, "user", address, ut, err)
}

func (h *Handler) respondRecord(w http.ResponseWriter, kind string, address common.Address, rec any, err error) {
	switch {
	case errors.Is(err, indexer.ErrNotFound):
		respondError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, address.Hex()))
	case err != nil:
		h.log.Errorf("Failed to get %s %s: %v", kind, address.Hex(), err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get %s", kind))
	default:
		respondJSON(w, http.StatusOK, rec)
	}
}

// ListUsers ranks user aggregates by a counter.
// @Summary List users
// @Description Rank user aggregates by a counter
// @Tags Aggregates
// @Produce json
// @Param name path string true "Indexer name"
// @Param order_by query string false "Ranking column" Enums(total_transactions, total_user_transactions, total_user_stake, block_number) default(total_transactions)
// @Param sort_order query string false "Sort order" Enums(asc, desc) default(desc)
// @Param limit query int false "Maximum number of users to return" default(100)
// @Param offset query int false "Number of users to skip" default(0)
// @Success 200 {array} object "User aggregates"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Indexer not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexers/{name}/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	aggregates := h.aggregates(w, r)
	if aggregates == nil {
		return
	}

	params, err := parseUserQueryParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	users, err := aggregates.ListUsers(r.Context(), *params)
	if err != nil {
		h.log.Errorf("Failed to list users: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}

// ListStakers lists the distinct users with at least one Staked event.
// @Summary List active stakers
// @Description List the distinct users with at least one Staked event
// @Tags Aggregates
// @Produce json
// @Param name path string true "Indexer name"
// @Param limit query int false "Maximum number of stakers to return" default(100)
// @Param offset query int false "Number of stakers to skip" default(0)
// @Success 200 {object} StakersResponse "Stakers with pagination info"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Indexer not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexers/{name}/stakers [get]
func (h *Handler) ListStakers(w http.ResponseWriter, r *http.Request) {
	aggregates := h.aggregates(w, r)
	if aggregates == nil {
		return
	}

	limit, offset, err := parsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	stakers, total, err := aggregates.ListStakers(r.Context(), limit, offset)
	if err != nil {
		h.log.Errorf("Failed to list stakers: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list stakers")
		return
	}

	respondJSON(w, http.StatusOK, StakersResponse{
		Stakers:    stakers,
		Pagination: newPagination(total, limit, offset, len(stakers)),
	})
}

// Health returns the health status of the API and all indexers.
// @Summary Health check
// @Description Check the health status of the API and all registered indexers
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "API and indexer health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	indexers := h.registry.ListAll()

	statuses := make([]IndexerStatus, 0, len(indexers))
	for _, idx := range indexers {
		queryable, ok := idx.(indexer.Queryable)
		if !ok {
			continue
		}

		stats, err := queryable.GetStats(r.Context())
		status := IndexerStatus{
			Name:    idx.GetName(),
			Type:    idx.GetType(),
			Healthy: err == nil,
		}
		if err == nil {
			status.LatestBlock = stats.LatestBlock
			status.EventCount = stats.TotalEvents
		}

		statuses = append(statuses, status)
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Indexers:  statuses,
	}

	respondJSON(w, http.StatusOK, response)
}

func newPagination(total, limit, offset, returned int) PaginationResult {
	return PaginationResult{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+returned < total,
	}
}

// pathAddress parses the {address} path value, answering 400 when it is not a hex address.
func pathAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := r.PathValue("address")
	if !common.IsHexAddress(raw) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid address %q", raw))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func validateEventType(queryable indexer.Queryable, eventType string) error {
	if eventType == "" {
		return nil
	}
	for _, t := range queryable.GetEventTypes() {
		if strings.EqualFold(t, eventType) {
			return nil
		}
	}
	return fmt.Errorf("unknown event_type %q", eventType)
}

// parsePage parses limit and offset, defaulting to the first page.
func parsePage(r *http.Request) (limit, offset int, err error) {
	limit = indexer.DefaultPageLimit

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > indexer.MaxPageLimit {
			return 0, 0, fmt.Errorf("invalid limit: must be between 1 and %d", indexer.MaxPageLimit)
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset: must be non-negative")
		}
	}

	return limit, offset, nil
}

func parseBlockRange(r *http.Request) (from, to *uint64, err error) {
	if fromBlockStr := r.URL.Query().Get("from_block"); fromBlockStr != "" {
		fromBlock, err := strconv.ParseUint(fromBlockStr, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid from_block")
		}
		from = &fromBlock
	}

	if toBlockStr := r.URL.Query().Get("to_block"); toBlockStr != "" {
		toBlock, err := strconv.ParseUint(toBlockStr, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid to_block")
		}
		to = &toBlock
	}

	if from != nil && to != nil && *from > *to {
		return nil, nil, fmt.Errorf("from_block cannot be greater than to_block")
	}

	return from, to, nil
}

func parseSortOrder(r *http.Request, def string) (string, error) {
	sortOrder := r.URL.Query().Get("sort_order")
	if sortOrder == "" {
		return def, nil
	}

	sortOrder = strings.ToLower(sortOrder)
	if sortOrder != "asc" && sortOrder != "desc" {
		return "", fmt.Errorf("invalid sort_order: must be 'asc' or 'desc'")
	}

	return sortOrder, nil
}

// parseQueryParams parses HTTP query parameters into QueryParams.
func parseQueryParams(r *http.Request) (*indexer.QueryParams, error) {
	params := indexer.NewDefaultQueryParams()

	var err error
	if params.Limit, params.Offset, err = parsePage(r); err != nil {
		return params, err
	}

	if params.FromBlock, params.ToBlock, err = parseBlockRange(r); err != nil {
		return params, err
	}

	if address := r.URL.Query().Get("address"); address != "" {
		if !common.IsHexAddress(address) {
			return params, fmt.Errorf("invalid address %q", address)
		}
		params.Address = address
	}

	params.EventType = r.URL.Query().Get("event_type")

	if sortBy := r.URL.Query().Get("sort_by"); sortBy != "" {
		sortBy = strings.ToLower(sortBy)
		if sortBy != "block" && sortBy != "timestamp" {
			return params, fmt.Errorf("invalid sort_by: must be 'block' or 'timestamp'")
		}
		params.SortBy = sortBy
	}

	if params.SortOrder, err = parseSortOrder(r, params.SortOrder); err != nil {
		return params, err
	}

	return params, nil
}

// parseTimeseriesParams parses HTTP query parameters for timeseries queries.
func parseTimeseriesParams(r *http.Request) (*indexer.TimeseriesParams, error) {
	params := &indexer.TimeseriesParams{
		Interval: "day", // default
	}

	if interval := r.URL.Query().Get("interval"); interval != "" {
		interval = strings.ToLower(interval)
		if interval != "hour" && interval != "day" && interval != "week" {
			return params, fmt.Errorf("invalid interval: must be 'hour', 'day', or 'week'")
		}
		params.Interval = interval
	}

	var err error
	if params.FromBlock, params.ToBlock, err = parseBlockRange(r); err != nil {
		return params, err
	}

	params.EventType = r.URL.Query().Get("event_type")

	return params, nil
}

// parseUserQueryParams parses HTTP query parameters of the users listing.
func parseUserQueryParams(r *http.Request) (*indexer.UserQueryParams, error) {
	params := indexer.NewDefaultUserQueryParams()

	var err error
	if params.Limit, params.Offset, err = parsePage(r); err != nil {
		return params, err
	}

	if orderBy := r.URL.Query().Get("order_by"); orderBy != "" {
		orderBy = strings.ToLower(orderBy)
		if !slices.Contains(userOrderFields, orderBy) {
			return params, fmt.Errorf("invalid order_by: must be one of %s", strings.Join(userOrderFields, ", "))
		}
		params.OrderBy = orderBy
	}

	if params.SortOrder, err = parseSortOrder(r, params.SortOrder); err != nil {
		return params, err
	}

	return params, nil
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode JSON first to catch any errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)

	// Headers already sent, a failed write can only be dropped
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}
