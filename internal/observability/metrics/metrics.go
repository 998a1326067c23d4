package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "renewable_monitor_"

	resultSuccess = "success"
	resultError   = "error"
	resultPartial = "partial"
)

var (
	registerOnce sync.Once

	fetchRequests *prometheus.CounterVec
	fetchRetries  *prometheus.CounterVec
	fetchSkipped  *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec

	readingsLoaded *prometheus.CounterVec

	alertsTotal *prometheus.CounterVec

	storageLevel   prometheus.Gauge
	storagePercent prometheus.Gauge

	operationTotal   *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
)

// Init registers the application metrics on reg, or on the default
// registerer when reg is nil. Only the first call has an effect.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		fetchRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_requests_total",
				Help: "Total provider fetches by source and result",
			},
			[]string{"source", "result"},
		)
		fetchRetries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_retries_total",
				Help: "Total provider page retries by source",
			},
			[]string{"source"},
		)
		fetchSkipped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_skipped_items_total",
				Help: "Total provider items rejected by validation",
			},
			[]string{"source"},
		)
		fetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fetch_latency_seconds",
				Help:    "Provider fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)

		readingsLoaded = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_loaded_total",
				Help: "Total readings added to the session by origin",
			},
			[]string{"origin"},
		)

		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Total alerts raised by kind",
			},
			[]string{"kind"},
		)

		storageLevel = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "storage_level_mwh",
			Help: "Current storage level in MWh",
		})
		storagePercent = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "storage_level_percent",
			Help: "Current storage level as a share of capacity",
		})

		operationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operations_total",
				Help: "Total session operations by name and result",
			},
			[]string{"operation", "result"},
		)
		operationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "operation_latency_seconds",
				Help:    "Session operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		)

		reg.MustRegister(
			fetchRequests,
			fetchRetries,
			fetchSkipped,
			fetchLatency,
			readingsLoaded,
			alertsTotal,
			storageLevel,
			storagePercent,
			operationTotal,
			operationLatency,
		)
	})
}

// ObserveFetch records one provider fetch.
func ObserveFetch(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if fetchRequests != nil {
		fetchRequests.WithLabelValues(source, result).Inc()
	}
	if fetchLatency != nil {
		fetchLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// IncFetchRetry increments the retry counter of a source.
func IncFetchRetry(source string) {
	if source == "" {
		source = "unknown"
	}
	if fetchRetries != nil {
		fetchRetries.WithLabelValues(source).Inc()
	}
}

// AddFetchSkipped counts provider items rejected by validation.
func AddFetchSkipped(source string, count int) {
	if count <= 0 {
		return
	}
	if source == "" {
		source = "unknown"
	}
	if fetchSkipped != nil {
		fetchSkipped.WithLabelValues(source).Add(float64(count))
	}
}

// AddReadingsLoaded counts readings entering the session.
func AddReadingsLoaded(origin string, count int) {
	if count <= 0 {
		return
	}
	if origin == "" {
		origin = "unknown"
	}
	if readingsLoaded != nil {
		readingsLoaded.WithLabelValues(origin).Add(float64(count))
	}
}

// IncAlert increments the alert counter for a kind.
func IncAlert(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if alertsTotal != nil {
		alertsTotal.WithLabelValues(kind).Inc()
	}
}

// SetStorageLevel publishes the current level.
func SetStorageLevel(level, percent float64) {
	if storageLevel != nil {
		storageLevel.Set(level)
	}
	if storagePercent != nil {
		storagePercent.Set(percent)
	}
}

// ObserveOperation records a session operation.
func ObserveOperation(operation, result string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if operationTotal != nil {
		operationTotal.WithLabelValues(operation, result).Inc()
	}
	if operationLatency != nil {
		operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// ResultOf maps an error to a result label.
func ResultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Result labels accepted by ObserveFetch and ObserveOperation.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultPartial = resultPartial
)
