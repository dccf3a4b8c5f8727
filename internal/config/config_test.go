package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Interval != 60 || cfg.AlmostBlackThreshold != 20 || cfg.NonBlankThreshold != 400 || cfg.SameScreenRatio != 0.01 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Period() != time.Minute {
		t.Fatalf("expected 1m period, got %s", cfg.Period())
	}
}

func TestParseOverlaysPresentKeys(t *testing.T) {
	base := Default()
	base.NonBlankThreshold = 10

	cfg, err := Parse(base, `{"interval": 5}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Interval != 5 {
		t.Fatalf("expected interval 5, got %d", cfg.Interval)
	}
	if cfg.NonBlankThreshold != 10 {
		t.Fatalf("expected unspecified field to keep prior value 10, got %d", cfg.NonBlankThreshold)
	}
	if cfg.AlmostBlackThreshold != DefaultAlmostBlackThreshold || cfg.SameScreenRatio != DefaultSameScreenRatio {
		t.Fatalf("unexpected overlay result: %+v", cfg)
	}
}

func TestParseAllKeys(t *testing.T) {
	cfg, err := Parse(Default(), `{"interval":1,"almost_black_threshold":30,"non_blank_threshold":50,"same_screen_ratio":0.25,"extra":"ignored"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := AgentConfig{Interval: 1, AlmostBlackThreshold: 30, NonBlankThreshold: 50, SameScreenRatio: 0.25}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestParseLegacyRatioKey(t *testing.T) {
	cfg, err := Parse(Default(), `{"same_screen_threshold": 0.5}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.SameScreenRatio != 0.5 {
		t.Fatalf("expected ratio 0.5 from legacy key, got %v", cfg.SameScreenRatio)
	}
}

func TestParseToleratesNonObjectPayloads(t *testing.T) {
	base := Default()
	base.Interval = 7
	for _, payload := range []string{"", "   ", "not json", "[1,2,3]", "42", "null", `{"interval":`} {
		cfg, err := Parse(base, payload)
		if err != nil {
			t.Fatalf("payload %q: unexpected error %v", payload, err)
		}
		if cfg != base {
			t.Fatalf("payload %q: expected base unchanged, got %+v", payload, cfg)
		}
	}
}

func TestParseRejectsMalformedFields(t *testing.T) {
	base := Default()
	cases := []string{
		`{"interval": "5"}`,
		`{"interval": -1}`,
		`{"interval": 1.5}`,
		`{"interval": 0}`,
		`{"interval": null}`,
		`{"interval": 10000000000}`,
		`{"interval": 18446744074}`,
		`{"almost_black_threshold": 256}`,
		`{"non_blank_threshold": true}`,
		`{"same_screen_ratio": "low"}`,
		`{"same_screen_ratio": 1.5}`,
		`{"interval": 5, "same_screen_ratio": -0.1}`,
	}
	for _, payload := range cases {
		cfg, err := Parse(base, payload)
		if !errors.Is(err, ErrInvalidField) {
			t.Fatalf("payload %s: expected ErrInvalidField, got %v", payload, err)
		}
		if cfg != base {
			t.Fatalf("payload %s: expected base returned on error, got %+v", payload, cfg)
		}
	}
}

func TestIntervalUpperBound(t *testing.T) {
	cfg, err := Parse(Default(), `{"interval": 9223372036}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Interval != MaxInterval || cfg.Period() <= 0 {
		t.Fatalf("expected largest interval to keep a positive period, got %d (%s)", cfg.Interval, cfg.Period())
	}

	cfg.Interval = MaxInterval + 1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField past the bound, got %v", err)
	}
}
