package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "calendar_"

	resultSuccess = "success"
	resultError   = "error"
	resultSkipped = "skipped"

	sourceCache  = "cache"
	sourceRemote = "remote"
)

var (
	registerOnce sync.Once

	loadTotal   *prometheus.CounterVec
	loadLatency *prometheus.HistogramVec

	rescheduleTotal *prometheus.CounterVec

	cacheWritesTotal *prometheus.CounterVec
	cacheReadsTotal  *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	streamClients prometheus.Gauge
)

// Init registers calendar metrics and, when db is set, KV table gauges.
func Init(db *sql.DB, table string, logger *log.Logger) {
	registerOnce.Do(func() {
		loadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "load_total",
				Help: "Total station loads by source and result",
			},
			[]string{"source", "result"},
		)
		loadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "load_latency_seconds",
				Help:    "Station load latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)

		rescheduleTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reschedule_total",
				Help: "Total booking reschedules by edge and result",
			},
			[]string{"edge", "result"},
		)

		cacheWritesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_writes_total",
				Help: "Total durable cache writes by key and result",
			},
			[]string{"key", "result"},
		)
		cacheReadsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_reads_total",
				Help: "Total durable cache reads by key and result",
			},
			[]string{"key", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total week exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Week export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)

		streamClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "stream_clients",
				Help: "Connected change stream clients",
			},
		)

		prometheus.MustRegister(
			loadTotal,
			loadLatency,
			rescheduleTotal,
			cacheWritesTotal,
			cacheReadsTotal,
			exportTotal,
			exportLatency,
			streamClients,
		)

		if db != nil {
			registerDBMetrics(db, table, logger)
		}
	})
}

// ObserveLoad records a station load by source.
func ObserveLoad(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if loadTotal != nil {
		loadTotal.WithLabelValues(source, result).Inc()
	}
	if loadLatency != nil {
		loadLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// IncReschedule increments reschedule counters.
func IncReschedule(edge, result string) {
	if edge == "" {
		edge = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if rescheduleTotal != nil {
		rescheduleTotal.WithLabelValues(edge, result).Inc()
	}
}

// IncCacheWrite increments cache write counters.
func IncCacheWrite(key, result string) {
	if result == "" {
		result = resultSuccess
	}
	if cacheWritesTotal != nil {
		cacheWritesTotal.WithLabelValues(key, result).Inc()
	}
}

// IncCacheRead increments cache read counters. result is hit, miss or corrupt.
func IncCacheRead(key, result string) {
	if cacheReadsTotal != nil {
		cacheReadsTotal.WithLabelValues(key, result).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// AddStreamClients adjusts the connected stream client gauge.
func AddStreamClients(delta int) {
	if streamClients != nil {
		streamClients.Add(float64(delta))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultSkipped = resultSkipped

	SourceCache  = sourceCache
	SourceRemote = sourceRemote

	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheCorrupt = "corrupt"
)
