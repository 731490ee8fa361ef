package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/core"
)

const namespace = "invoice_printer"

// Options configures where collected metrics go after a scan
type Options struct {
	// PushURL is a Pushgateway base URL; empty disables pushing
	PushURL string
	Job     string
	// TextfilePath is written in the node_exporter textfile format; empty disables it
	TextfilePath string
}

// Metrics collects scan metrics in its own registry. It implements core.ScanObserver.
type Metrics struct {
	registry *prometheus.Registry
	opts     Options
	logger   *zap.Logger

	AttachmentOutcomes *prometheus.CounterVec
	Scans              *prometheus.CounterVec
	ScanDuration       prometheus.Histogram
	LedgerSize         prometheus.Gauge
	LastScanSuccess    prometheus.Gauge
}

// New creates the collectors and registers them
func New(opts Options, logger *zap.Logger) *Metrics {
	if opts.Job == "" {
		opts.Job = "invoice_printer"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		opts:     opts,
		logger:   logger,

		AttachmentOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attachments_total",
				Help:      "Messages processed, by terminal pipeline outcome",
			},
			[]string{"outcome"},
		),
		Scans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Completed scans",
			},
			[]string{"status"}, // status: success, failed
		),
		ScanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Scan duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5m
			},
		),
		LedgerSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ledger_records",
				Help:      "Records in the processed-attachment ledger after the last scan",
			},
		),
		LastScanSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_scan_success_timestamp_seconds",
				Help:      "Unix time of the last successful scan",
			},
		),
	}
}

// Registry exposes the registry the collectors live in
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOutcome counts one pipeline outcome
func (m *Metrics) ObserveOutcome(outcome core.Outcome) {
	m.AttachmentOutcomes.WithLabelValues(string(outcome)).Inc()
}

// ObserveScan records the scan summary. report may be nil when the scan
// failed before it started.
func (m *Metrics) ObserveScan(report *core.ScanReport, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.Scans.WithLabelValues(status).Inc()

	if report == nil {
		return
	}
	m.ScanDuration.Observe(report.Duration.Seconds())
	if err == nil {
		m.LedgerSize.Set(float64(report.LedgerSize))
		m.LastScanSuccess.Set(float64(report.StartedAt.Add(report.Duration).Unix()))
	}
}

// Flush pushes to the Pushgateway and writes the textfile, when configured
func (m *Metrics) Flush(ctx context.Context) error {
	if m.opts.PushURL != "" {
		err := push.New(m.opts.PushURL, m.opts.Job).
			Gatherer(m.registry).
			PushContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to push metrics: %w", err)
		}
		m.logger.Debug("Metrics pushed", zap.String("url", m.opts.PushURL))
	}

	if m.opts.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(m.opts.TextfilePath, m.registry); err != nil {
			return fmt.Errorf("failed to write metrics textfile: %w", err)
		}
		m.logger.Debug("Metrics written", zap.String("path", m.opts.TextfilePath))
	}
	return nil
}
