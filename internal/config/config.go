package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidField is returned when a recognized configuration key carries a
// value of the wrong type or outside its allowed range.
var ErrInvalidField = errors.New("invalid configuration field")

const (
	DefaultInterval             = 60
	DefaultAlmostBlackThreshold = 20
	DefaultNonBlankThreshold    = 400
	DefaultSameScreenRatio      = 0.01

	// MaxInterval is the longest interval whose period fits in a time.Duration
	MaxInterval = uint64(math.MaxInt64 / int64(time.Second))
)

// AgentConfig is the snapshot of tunables used for one capture cycle.
// Values are never mutated in place; updates produce a new AgentConfig.
type AgentConfig struct {
	// Interval between capture attempts, in seconds
	Interval uint64 `json:"interval" yaml:"interval"`

	// A channel value below this is considered black
	AlmostBlackThreshold uint64 `json:"almost_black_threshold" yaml:"almost_black_threshold"`

	// Number of sampled non-black pixels needed for a frame to count as non-blank
	NonBlankThreshold uint64 `json:"non_blank_threshold" yaml:"non_blank_threshold"`

	// Frames whose changed-pixel ratio is below this are reported as the same screen
	SameScreenRatio float64 `json:"same_screen_ratio" yaml:"same_screen_ratio"`
}

// Default returns the configuration used when nothing is specified
func Default() AgentConfig {
	return AgentConfig{
		Interval:             DefaultInterval,
		AlmostBlackThreshold: DefaultAlmostBlackThreshold,
		NonBlankThreshold:    DefaultNonBlankThreshold,
		SameScreenRatio:      DefaultSameScreenRatio,
	}
}

// Period returns the interval as a duration
func (c AgentConfig) Period() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Parse overlays the keys present in the JSON object payload on top of base.
//
// A payload that is empty or not a JSON object leaves base unchanged. Unknown
// keys are ignored. A recognized key holding a malformed value fails the whole
// parse with ErrInvalidField, and base is returned untouched alongside the error.
func Parse(base AgentConfig, payload string) (AgentConfig, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return base, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil || fields == nil {
		return base, nil
	}

	cfg := base
	if raw, ok := fields["interval"]; ok {
		if err := decodeField("interval", raw, &cfg.Interval); err != nil {
			return base, err
		}
	}
	if raw, ok := fields["almost_black_threshold"]; ok {
		if err := decodeField("almost_black_threshold", raw, &cfg.AlmostBlackThreshold); err != nil {
			return base, err
		}
	}
	if raw, ok := fields["non_blank_threshold"]; ok {
		if err := decodeField("non_blank_threshold", raw, &cfg.NonBlankThreshold); err != nil {
			return base, err
		}
	}
	// same_screen_threshold is the historical name of the ratio key
	for _, key := range []string{"same_screen_threshold", "same_screen_ratio"} {
		if raw, ok := fields[key]; ok {
			if err := decodeField(key, raw, &cfg.SameScreenRatio); err != nil {
				return base, err
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Validate checks range constraints that the JSON types alone cannot express
func (c AgentConfig) Validate() error {
	if c.Interval == 0 {
		return fmt.Errorf("%w: interval must be at least 1 second", ErrInvalidField)
	}
	if c.Interval > MaxInterval {
		return fmt.Errorf("%w: interval %d exceeds %d seconds", ErrInvalidField, c.Interval, MaxInterval)
	}
	if c.AlmostBlackThreshold > 255 {
		return fmt.Errorf("%w: almost_black_threshold %d exceeds 255", ErrInvalidField, c.AlmostBlackThreshold)
	}
	if c.SameScreenRatio < 0 || c.SameScreenRatio > 1 {
		return fmt.Errorf("%w: same_screen_ratio %v outside [0, 1]", ErrInvalidField, c.SameScreenRatio)
	}
	return nil
}

func decodeField(key string, raw json.RawMessage, dst any) error {
	if string(raw) == "null" {
		return fmt.Errorf("%w: %s is null", ErrInvalidField, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidField, key, err)
	}
	return nil
}
