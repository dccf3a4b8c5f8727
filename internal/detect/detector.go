package detect

import (
	"github.com/bryanchriswhite/screenagent/internal/config"
)

// State is the comparison baseline carried between cycles. It is owned by
// the scheduler and passed into each cycle by reference.
type State struct {
	// LastFingerprint is replaced only when a frame is judged different
	LastFingerprint *Fingerprint

	// LastEventID is the image_id of the most recent full screen event
	LastEventID string
}

// Verdict is the outcome of comparing a frame with the baseline
type Verdict struct {
	Same bool

	// Ratio is the measured difference ratio, 1 when there was no baseline
	Ratio float64

	// Fingerprint of the judged frame, to be committed when Same is false
	Fingerprint *Fingerprint
}

// Judge compares fp with the baseline held in state without modifying it.
//
// The first frame is always different. A frame is the same screen when its
// difference ratio is strictly below cfg.SameScreenRatio and a previous event
// id exists to refer back to.
func Judge(state *State, fp *Fingerprint, cfg config.AgentConfig) Verdict {
	v := Verdict{Ratio: 1.0, Fingerprint: fp}
	if state.LastFingerprint == nil {
		return v
	}

	v.Ratio = DifferenceRatio(fp, state.LastFingerprint)
	v.Same = v.Ratio < cfg.SameScreenRatio && state.LastEventID != ""
	return v
}

// Commit records the outcome of a successfully emitted event. Same-screen
// verdicts leave the baseline untouched, so slow drift is measured against the
// last different frame.
func (s *State) Commit(v Verdict, eventID string) {
	if v.Same {
		return
	}
	s.LastFingerprint = v.Fingerprint
	s.LastEventID = eventID
}
