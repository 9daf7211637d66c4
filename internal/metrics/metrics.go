package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Indexing metrics
	lastIndexedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakingindexor_last_indexed_block",
			Help: "The last block number successfully indexed",
		},
		[]string{"indexer"},
	)

	logsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakingindexor_logs_indexed_total",
			Help: "Total number of logs handed to an indexer",
		},
		[]string{"indexer"},
	)

	batchProcessingTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stakingindexor_batch_processing_duration_seconds",
			Help:    "Time taken by an indexer to process a batch of logs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"indexer"},
	)

	finalizedBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stakingindexor_finalized_block",
			Help: "The current head block number according to the configured finality",
		},
	)

	reorgsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stakingindexor_reorgs_detected_total",
			Help: "Total number of chain reorganizations detected",
		},
	)

	reorgDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stakingindexor_reorg_depth_blocks",
			Help:    "Number of blocks rolled back per reorganization",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500},
		},
	)

	// System metrics
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stakingindexor_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	componentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakingindexor_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stakingindexor_goroutines",
			Help: "Number of active goroutines",
		},
	)

	memoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakingindexor_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func LastIndexedBlockSet(indexer string, blockNum uint64) {
	lastIndexedBlock.WithLabelValues(indexer).Set(float64(blockNum))
}

func LogsIndexedInc(indexer string, count int) {
	logsIndexed.WithLabelValues(indexer).Add(float64(count))
}

func BatchProcessingTimeLog(indexer string, duration time.Duration) {
	batchProcessingTime.WithLabelValues(indexer).Observe(duration.Seconds())
}

func FinalizedBlockSet(blockNum uint64) {
	finalizedBlock.Set(float64(blockNum))
}

func ReorgDetectedLog(depth uint64) {
	reorgsDetected.Inc()
	reorgDepth.Observe(float64(depth))
}

func ComponentHealthSet(component string, healthy bool) {
	v := float64(1)
	if !healthy {
		v = 0
	}

	componentHealth.WithLabelValues(component).Set(v)
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges.
func UpdateSystemMetrics() {
	uptime.Set(time.Since(startTime).Seconds())
	goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	memoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	memoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
