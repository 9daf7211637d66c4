package staking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakingindexor_staking_events_applied_total",
			Help: "Total number of events folded into the aggregates by type",
		},
		[]string{"indexer", "event_type"},
	)

	duplicateEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakingindexor_staking_duplicate_events_total",
			Help: "Total number of events skipped because their (tx hash, log index) was already stored",
		},
		[]string{"indexer"},
	)

	decodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakingindexor_staking_decode_failures_total",
			Help: "Total number of logs that could not be decoded",
		},
		[]string{"indexer"},
	)

	handlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakingindexor_staking_handler_failures_total",
			Help: "Total number of events rolled back because their handler failed",
		},
		[]string{"indexer", "event_type"},
	)

	readFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakingindexor_staking_read_failures_total",
			Help: "Total number of authoritative contract reads that failed and degraded to zero",
		},
		[]string{"method"},
	)
)

func EventAppliedInc(indexer string, eventType EventType) {
	eventsApplied.WithLabelValues(indexer, string(eventType)).Inc()
}

func DuplicateEventInc(indexer string) {
	duplicateEvents.WithLabelValues(indexer).Inc()
}

func DecodeFailureInc(indexer string) {
	decodeFailures.WithLabelValues(indexer).Inc()
}

func HandlerFailureInc(indexer string, eventType EventType) {
	handlerFailures.WithLabelValues(indexer, string(eventType)).Inc()
}

func ReadFailureInc(method string) {
	readFailures.WithLabelValues(method).Inc()
}
