package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bryanchriswhite/screenagent/internal/capture"
	"github.com/bryanchriswhite/screenagent/internal/config"
	"github.com/bryanchriswhite/screenagent/internal/control"
	"github.com/bryanchriswhite/screenagent/internal/detect"
	"github.com/bryanchriswhite/screenagent/internal/event"
	"github.com/bryanchriswhite/screenagent/internal/logger"
	"github.com/bryanchriswhite/screenagent/internal/metrics"
	"github.com/bryanchriswhite/screenagent/internal/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Name identifies the agent in logs
const Name = "screenagent"

// FrameSource yields captures of the primary display
type FrameSource interface {
	Name() string
	CapturePrimary() (*capture.Frame, error)
}

// Ticker is the subset of time.Ticker the scheduler needs
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewTickerFunc arms a ticker with the given period
type NewTickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Options configures an Agent
type Options struct {
	Config    config.AgentConfig
	Source    FrameSource
	Output    output.Output
	Input     <-chan string
	Metrics   *metrics.Metrics
	NewTicker NewTickerFunc
	RunID     string
}

// Agent owns the scheduler loop and all state touched by it. Only the
// goroutine executing Run reads or writes cfg, state and the counters.
type Agent struct {
	source    FrameSource
	out       output.Output
	input     <-chan string
	metrics   *metrics.Metrics
	newTicker NewTickerFunc
	log       *zerolog.Logger

	cfg   config.AgentConfig
	state detect.State

	runID     string
	startedAt time.Time
	counters  Counters
	lastTick  time.Time
	status    atomic.Pointer[Status]
}

// New creates an agent. Input may be nil when there is no control channel.
func New(opts Options) *Agent {
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(prometheus.NewRegistry())
	}

	a := &Agent{
		source:    opts.Source,
		out:       opts.Output,
		input:     opts.Input,
		metrics:   opts.Metrics,
		newTicker: opts.NewTicker,
		log:       logger.WithComponent("agent"),
		cfg:       opts.Config,
		runID:     opts.RunID,
		startedAt: time.Now(),
	}
	a.publish()
	return a
}

// Run services timer ticks, control lines and ctx cancellation one at a time
// until ctx is done or a quit command arrives. The first tick fires
// immediately. Run returns nil on cancellation and control.ErrQuit on quit.
func (a *Agent) Run(ctx context.Context) error {
	period := a.cfg.Period()
	ticker := a.newTicker(period)
	defer func() { ticker.Stop() }()
	a.metrics.SetInterval(period)

	kick := make(chan time.Time, 1)
	kick <- time.Now()
	input := a.input

	a.log.Info().
		Str("source", a.source.Name()).
		Dur("interval", period).
		Msgf("Starting %s", Name)

	for {
		var tick bool
		select {
		case <-ctx.Done():
			a.log.Info().Msgf("Shutting down %s", Name)
			return a.flush()

		case <-kick:
			kick = nil
			tick = true

		case <-ticker.C():
			tick = true

		case line, ok := <-input:
			if !ok {
				a.log.Info().Msg("Control input closed")
				input = nil
				continue
			}
			if a.handleLine(line) {
				a.log.Info().Msgf("Quit %s", Name)
				if err := a.flush(); err != nil {
					return err
				}
				return control.ErrQuit
			}
		}

		if tick {
			a.tick()

			// A changed interval re-arms a full period starting now
			if next := a.cfg.Period(); next != period {
				ticker.Stop()
				ticker = a.newTicker(next)
				a.metrics.SetInterval(next)
				a.log.Info().
					Dur("from", period).
					Dur("to", next).
					Msg("Capture interval changed")
				period = next
			}
		}
		a.publish()
	}
}

// Status returns the last published snapshot. Safe for concurrent use.
func (a *Agent) Status() Status {
	return *a.status.Load()
}

func (a *Agent) tick() {
	start := time.Now()
	a.lastTick = start
	a.counters.Ticks++
	a.metrics.Tick()

	if err := a.cycle(a.cfg); err != nil {
		var se *stageError
		stage := metrics.StageCapture
		if errors.As(err, &se) {
			stage = se.stage
		}
		a.counters.Errors++
		a.metrics.CycleError(stage)
		a.log.Error().Err(err).Str("stage", stage).Msg("Capture cycle failed")
	}

	elapsed := time.Since(start)
	a.metrics.ObserveCycle(elapsed)
	a.log.Debug().Dur("elapsed", elapsed).Msg("Capture cycle finished")
}

// cycle runs capture, blank filter, change detection and encoding for one
// tick. State is committed only after the event has been written.
func (a *Agent) cycle(cfg config.AgentConfig) error {
	frame, err := a.source.CapturePrimary()
	if errors.Is(err, capture.ErrNoPrimaryDisplay) {
		a.log.Debug().Msg("No primary display")
		return nil
	}
	if err != nil {
		return &stageError{stage: metrics.StageCapture, err: err}
	}

	if detect.IsBlank(frame.Image, cfg) {
		a.counters.BlankFrames++
		a.metrics.BlankFrame()
		a.log.Debug().Int64("monitor", frame.MonitorID).Msg("Blank screen")
		return nil
	}

	start := time.Now()
	verdict := detect.Judge(&a.state, detect.NewFingerprint(frame.Image), cfg)
	a.metrics.DiffRatio(verdict.Ratio)
	a.log.Debug().
		Float64("diff_ratio", verdict.Ratio).
		Bool("same", verdict.Same).
		Dur("elapsed", time.Since(start)).
		Msg("Compared with last screen")

	if verdict.Same {
		ev := event.NewSameScreenEvent(frame.Timestamp, a.state.LastEventID)
		if err := a.out.WriteEvent(event.Category, ev); err != nil {
			return &stageError{stage: metrics.StageOutput, err: err}
		}
		a.state.Commit(verdict, ev.ImageID)
		a.counters.SameScreenEvents++
		a.metrics.Event(metrics.KindSameScreen)
		return nil
	}

	ev, err := event.NewScreenEvent(frame)
	if err != nil {
		return &stageError{stage: metrics.StageEncode, err: err}
	}
	if err := a.out.WriteEvent(event.Category, ev); err != nil {
		return &stageError{stage: metrics.StageOutput, err: err}
	}
	a.state.Commit(verdict, ev.ImageID)
	a.counters.ScreenEvents++
	a.metrics.Event(metrics.KindScreen)
	a.log.Debug().Str("image_id", ev.ImageID).Msg("Screen event emitted")
	return nil
}

// handleLine processes one control line and reports whether to quit
func (a *Agent) handleLine(line string) bool {
	cmd, ok := control.ParseLine(line)
	if !ok {
		return false
	}
	a.log.Debug().Str("command", cmd.Name).Msg("Control command")
	a.counters.Commands++

	next, err := control.Apply(a.cfg, cmd)
	switch {
	case errors.Is(err, control.ErrQuit):
		a.metrics.Command(cmd.Name, true)
		return true
	case errors.Is(err, control.ErrUnknownCommand):
		a.metrics.Command(cmd.Name, false)
		a.log.Error().Str("command", cmd.Name).Msg("Unknown command")
	case err != nil:
		a.metrics.Command(cmd.Name, true)
		a.log.Error().Err(err).Msg("Configuration update rejected")
	default:
		a.metrics.Command(cmd.Name, true)
		a.cfg = next
		a.log.Info().
			Uint64("interval", next.Interval).
			Uint64("almost_black_threshold", next.AlmostBlackThreshold).
			Uint64("non_blank_threshold", next.NonBlankThreshold).
			Float64("same_screen_ratio", next.SameScreenRatio).
			Msg("Update config")
	}
	return false
}

func (a *Agent) flush() error {
	if err := a.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }
