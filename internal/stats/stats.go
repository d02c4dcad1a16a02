// Package stats counts what a run read and wrote and exports the counters
// in the node_exporter textfile format.
package stats

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/statlog/internal/iostat"
	"github.com/ppiankov/statlog/internal/statlog"
)

// Metrics holds the counters of one run.
type Metrics struct {
	reg          *prometheus.Registry
	Lines        *prometheus.CounterVec
	Cells        prometheus.Counter
	FilesWritten prometheus.Counter
	PlotErrors   prometheus.Counter
	Duration     prometheus.Gauge
	LastRun      prometheus.Gauge
}

// New creates metrics in a private registry labelled with the command
// that produced them.
func New(command string) *Metrics {
	labels := prometheus.Labels{"command": command}
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "statlog_lines_total",
			Help:        "Input lines by classification",
			ConstLabels: labels,
		}, []string{"kind"}),
		Cells: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "statlog_cells_total",
			Help:        "Device cells added to the pivot table",
			ConstLabels: labels,
		}),
		FilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "statlog_files_written_total",
			Help:        "Series and script files written",
			ConstLabels: labels,
		}),
		PlotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "statlog_plot_errors_total",
			Help:        "Plot scripts the renderer failed on",
			ConstLabels: labels,
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "statlog_run_duration_seconds",
			Help:        "Wall time of the last run",
			ConstLabels: labels,
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "statlog_last_run_timestamp_seconds",
			Help:        "Unix time the last run finished",
			ConstLabels: labels,
		}),
	}
	m.reg.MustRegister(m.Lines, m.Cells, m.FilesWritten, m.PlotErrors, m.Duration, m.LastRun)
	return m
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveScan records the counters of a tagged log scan.
func (m *Metrics) ObserveScan(s statlog.ScanStats) {
	m.Lines.WithLabelValues("matched").Add(float64(s.Matched))
	m.Lines.WithLabelValues("skipped").Add(float64(s.Skipped))
}

// ObserveParse records the counters of an iostat parse.
func (m *Metrics) ObserveParse(s iostat.ParseStats) {
	m.Lines.WithLabelValues("timestamp").Add(float64(s.Timestamps))
	m.Lines.WithLabelValues("header").Add(float64(s.Headers))
	m.Lines.WithLabelValues("row").Add(float64(s.Rows - s.Dropped))
	m.Lines.WithLabelValues("dropped").Add(float64(s.Dropped))
	m.Lines.WithLabelValues("ignored").Add(float64(s.Ignored))
	m.Cells.Add(float64(s.Cells))
}

// Finish stamps the run duration and completion time.
func (m *Metrics) Finish(start, end time.Time) {
	m.Duration.Set(end.Sub(start).Seconds())
	m.LastRun.Set(float64(end.Unix()))
}

// WriteTextfile writes the metrics atomically to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
