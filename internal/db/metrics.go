package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	maintenanceOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakingindexor_maintenance_runs_total",
			Help: "Total number of maintenance runs by database and outcome",
		},
		[]string{"database", "status"},
	)

	maintenanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stakingindexor_maintenance_duration_seconds",
			Help:    "Duration of maintenance runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"database"},
	)

	maintenanceLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakingindexor_maintenance_last_run_timestamp",
			Help: "Unix timestamp of the last maintenance run",
		},
		[]string{"database"},
	)

	maintenanceSpaceReclaimed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakingindexor_maintenance_space_reclaimed_bytes",
			Help: "Bytes reclaimed by the last maintenance run",
		},
		[]string{"database"},
	)

	walCheckpoints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakingindexor_wal_checkpoint_total",
			Help: "Total number of WAL checkpoint operations",
		},
		[]string{"mode"},
	)

	vacuumRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stakingindexor_vacuum_total",
			Help: "Total number of VACUUM operations",
		},
	)

	dbSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakingindexor_db_size_bytes",
			Help: "Database size in bytes including WAL files",
		},
		[]string{"database"},
	)
)

func maintenanceRunLog(database string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	maintenanceOutcomes.WithLabelValues(database, status).Inc()
	maintenanceDuration.WithLabelValues(database).Observe(duration.Seconds())
	maintenanceLastRun.WithLabelValues(database).Set(float64(time.Now().UTC().Unix()))
}

func MaintenanceSpaceReclaimedLog(database string, bytesReclaimed uint64) {
	maintenanceSpaceReclaimed.WithLabelValues(database).Set(float64(bytesReclaimed))
}

func WALCheckpointInc(mode string) {
	walCheckpoints.WithLabelValues(mode).Inc()
}

func VacuumRunsInc() {
	vacuumRuns.Inc()
}

func DBSizeLog(database string, sizeBytes int64) {
	dbSize.WithLabelValues(database).Set(float64(sizeBytes))
}
