package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

// Metrics счётчики сканирований в отдельном реестре Prometheus
type Metrics struct {
	registry *prometheus.Registry

	scans      *prometheus.CounterVec
	frames     *prometheus.CounterVec
	detections *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New регистрирует коллекторы
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonewatch_scans_total",
			Help: "Video scans by mode and final state",
		}, []string{"mode", "state"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonewatch_frames_analyzed_total",
			Help: "Frames passed to the person detector",
		}, []string{"mode"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonewatch_detections_total",
			Help: "Accepted person detections",
		}, []string{"mode"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zonewatch_scan_duration_seconds",
			Help:    "Wall-clock time of a video scan",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"mode"}),
	}

	m.registry.MustRegister(m.scans, m.frames, m.detections, m.duration)
	return m
}

// ObserveScan учитывает завершённое сканирование
func (m *Metrics) ObserveScan(mode entity.ScanMode, result *entity.ScanResult) {
	if result == nil {
		return
	}
	label := string(mode)

	m.scans.WithLabelValues(label, string(result.State)).Inc()
	m.frames.WithLabelValues(label).Add(float64(result.FramesAnalyzed))
	m.detections.WithLabelValues(label).Add(float64(len(result.Detections)))
	m.duration.WithLabelValues(label).Observe(result.ProcessingTime.Seconds())
}

// Handler возвращает HTTP обработчик Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer поднимает /metrics на addr; блокирует до ошибки сервера
func (m *Metrics) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var _ port.ScanMetrics = (*Metrics)(nil)
