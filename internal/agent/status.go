package agent

import (
	"time"

	"github.com/bryanchriswhite/screenagent/internal/config"
)

// Counters summarizes what the scheduler has done so far
type Counters struct {
	Ticks            uint64 `json:"ticks"`
	ScreenEvents     uint64 `json:"screen_events"`
	SameScreenEvents uint64 `json:"same_screen_events"`
	BlankFrames      uint64 `json:"blank_frames"`
	Errors           uint64 `json:"errors"`
	Commands         uint64 `json:"commands"`
}

// Status is an immutable snapshot of the agent, published after every
// serviced tick or command.
type Status struct {
	RunID       string             `json:"run_id"`
	Source      string             `json:"source"`
	StartedAt   time.Time          `json:"started_at"`
	LastTick    *time.Time         `json:"last_tick,omitempty"`
	LastImageID string             `json:"last_image_id,omitempty"`
	Config      config.AgentConfig `json:"config"`
	Counters    Counters           `json:"counters"`
}

func (a *Agent) publish() {
	s := &Status{
		RunID:       a.runID,
		Source:      a.source.Name(),
		StartedAt:   a.startedAt,
		LastImageID: a.state.LastEventID,
		Config:      a.cfg,
		Counters:    a.counters,
	}
	if !a.lastTick.IsZero() {
		t := a.lastTick
		s.LastTick = &t
	}
	a.status.Store(s)
}
