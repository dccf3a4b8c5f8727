package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Event kinds
const (
	KindScreen     = "screen"
	KindSameScreen = "same_screen"
)

// Cycle stages that can fail
const (
	StageCapture = "capture"
	StageEncode  = "encode"
	StageOutput  = "output"
)

// Metrics holds the pipeline collectors
type Metrics struct {
	ticks         prometheus.Counter
	blankFrames   prometheus.Counter
	events        *prometheus.CounterVec
	cycleErrors   *prometheus.CounterVec
	commands      *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	interval      prometheus.Gauge
	diffRatio     prometheus.Gauge
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenagent_ticks_total",
			Help: "Timer ticks serviced by the scheduler.",
		}),
		blankFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenagent_blank_frames_total",
			Help: "Captured frames dropped as blank.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenagent_events_total",
			Help: "Events written to the output stream, by kind.",
		}, []string{"kind"}),
		cycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenagent_cycle_errors_total",
			Help: "Capture cycles aborted, by failing stage.",
		}, []string{"stage"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenagent_commands_total",
			Help: "Control commands received, by command.",
		}, []string{"command"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screenagent_cycle_duration_seconds",
			Help:    "Wall time of one capture, detect and encode cycle.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		interval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenagent_interval_seconds",
			Help: "Currently armed capture period.",
		}),
		diffRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenagent_diff_ratio",
			Help: "Difference ratio of the last compared frame.",
		}),
	}

	reg.MustRegister(
		m.ticks,
		m.blankFrames,
		m.events,
		m.cycleErrors,
		m.commands,
		m.cycleDuration,
		m.interval,
		m.diffRatio,
	)
	return m
}

func (m *Metrics) Tick()                   { m.ticks.Inc() }
func (m *Metrics) BlankFrame()             { m.blankFrames.Inc() }
func (m *Metrics) Event(kind string)       { m.events.WithLabelValues(kind).Inc() }
func (m *Metrics) CycleError(stage string) { m.cycleErrors.WithLabelValues(stage).Inc() }
func (m *Metrics) DiffRatio(r float64)     { m.diffRatio.Set(r) }

// Command counts a control command; unrecognized names share one label
func (m *Metrics) Command(name string, known bool) {
	if !known {
		name = "unknown"
	}
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SetInterval(d time.Duration) {
	m.interval.Set(d.Seconds())
}
