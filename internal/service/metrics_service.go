package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for the records API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	mergeBatches    *prometheus.CounterVec
	mergeRecords    *prometheus.CounterVec
	mergeDuration   *prometheus.HistogramVec
	reportsBuilt    *prometheus.CounterVec
	gateRejections  prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	mergeBatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "records_merge_batches_total",
		Help: "Mark batches processed by class level and outcome",
	}, []string{"class_level", "result"})

	mergeRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "records_merged_total",
		Help: "Mark records written by class level",
	}, []string{"class_level"})

	mergeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "records_merge_duration_seconds",
		Help:    "Duration of mark batch transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"class_level"})

	reportsBuilt := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "records_reports_built_total",
		Help: "Report cards assembled by variant",
	}, []string{"variant"})

	gateRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "records_deadline_rejections_total",
		Help: "Writes refused because the marks entry deadline passed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		mergeBatches, mergeRecords, mergeDuration, reportsBuilt, gateRejections, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		mergeBatches:    mergeBatches,
		mergeRecords:    mergeRecords,
		mergeDuration:   mergeDuration,
		reportsBuilt:    reportsBuilt,
		gateRejections:  gateRejections,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveMerge records the outcome of one mark batch.
func (m *MetricsService) ObserveMerge(level string, applied int, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "committed"
	if err != nil {
		result = "rolled_back"
	}
	m.mergeBatches.WithLabelValues(level, result).Inc()
	m.mergeDuration.WithLabelValues(level).Observe(duration.Seconds())
	if applied > 0 {
		m.mergeRecords.WithLabelValues(level).Add(float64(applied))
	}
}

// IncReportsBuilt counts an assembled report card.
func (m *MetricsService) IncReportsBuilt(variant string) {
	if m == nil {
		return
	}
	m.reportsBuilt.WithLabelValues(variant).Inc()
}

// IncDeadlineRejection counts a write refused by the deadline gate.
func (m *MetricsService) IncDeadlineRejection() {
	if m == nil {
		return
	}
	m.gateRejections.Inc()
}
