package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SchedulerMetrics is the metrics surface of the release scheduler.
type SchedulerMetrics struct {
	latestHeight         prometheus.Gauge
	pollerStartingHeight prometheus.Gauge
	scheduledTotal       *prometheus.CounterVec
	releasedTotal        *prometheus.CounterVec
	failedSubmissions    prometheus.Counter
	lastReleasedTime     prometheus.Gauge
}

var (
	schedulerMetricsRegisterOnce sync.Once
	schedulerMetricsInstance     *SchedulerMetrics
)

// NewSchedulerMetrics returns the process-wide scheduler metrics, registering
// the collectors on first use.
func NewSchedulerMetrics() *SchedulerMetrics {
	schedulerMetricsRegisterOnce.Do(func() {
		schedulerMetricsInstance = &SchedulerMetrics{
			latestHeight: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "schedd_latest_block_height",
				Help: "The latest block height seen by the poller",
			}),
			pollerStartingHeight: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "schedd_poller_starting_height",
				Help: "The height from which the poller started",
			}),
			scheduledTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "schedd_scheduled_payloads_total",
				Help: "Total number of payloads accepted into the schedule",
			}, []string{"trigger"}),
			releasedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "schedd_released_payloads_total",
				Help: "Total number of payloads released to the sinks",
			}, []string{"trigger"}),
			failedSubmissions: promauto.NewCounter(prometheus.CounterOpts{
				Name: "schedd_failed_submissions_total",
				Help: "Total number of sink submissions that exhausted their retries",
			}),
			lastReleasedTime: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "schedd_last_release_timestamp_seconds",
				Help: "The timestamp of the last payload release",
			}),
		}
	})

	return schedulerMetricsInstance
}

func (m *SchedulerMetrics) RecordLatestHeight(height uint64) {
	m.latestHeight.Set(float64(height))
}

func (m *SchedulerMetrics) RecordPollerStartingHeight(height uint64) {
	m.pollerStartingHeight.Set(float64(height))
}

func (m *SchedulerMetrics) IncScheduled(trigger string) {
	m.scheduledTotal.WithLabelValues(trigger).Inc()
}

func (m *SchedulerMetrics) AddReleased(trigger string, n int) {
	m.releasedTotal.WithLabelValues(trigger).Add(float64(n))
}

func (m *SchedulerMetrics) IncFailedSubmissions() {
	m.failedSubmissions.Inc()
}

func (m *SchedulerMetrics) RecordLastReleasedTime(t time.Time) {
	m.lastReleasedTime.Set(float64(t.Unix()))
}

// Start launches the metrics server on the given address and returns it for
// shutdown by the caller.
func Start(logger *zap.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting the metrics server", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("the metrics server failed", zap.Error(err))
		}
	}()

	return server
}
