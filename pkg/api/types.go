package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventResponse represents a generic event response.
type EventResponse struct {
	Events     any              `json:"events"`
	Pagination PaginationResult `json:"pagination"`
}

// StakersResponse lists distinct stakers in the order of their first stake.
type StakersResponse struct {
	Stakers    []common.Address `json:"stakers"`
	Pagination PaginationResult `json:"pagination"`
}

// PaginationResult contains pagination metadata.
type PaginationResult struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Indexers  []IndexerStatus `json:"indexers"`
}

// IndexerStatus represents the status of a single indexer.
type IndexerStatus struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	LatestBlock uint64 `json:"latest_block"`
	EventCount  int64  `json:"event_count"`
	Healthy     bool   `json:"healthy"`
}

// IndexerInfo represents information about an available indexer.
type IndexerInfo struct {
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	EventTypes []string `json:"event_types"`
	Endpoints  []string `json:"endpoints"`
}
