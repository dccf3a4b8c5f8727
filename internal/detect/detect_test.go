package detect

import (
	"image"
	"image/color"
	"testing"

	"github.com/bryanchriswhite/screenagent/internal/config"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func TestIsBlankAllBlack(t *testing.T) {
	if !IsBlank(solid(50, 50, black), config.Default()) {
		t.Fatalf("expected all-black frame to be blank")
	}
}

func TestIsBlankAllWhite(t *testing.T) {
	cfg := config.Default()
	cfg.NonBlankThreshold = 10
	if IsBlank(solid(100, 100, white), cfg) {
		t.Fatalf("expected white frame to be non-blank")
	}
}

func TestIsBlankThresholdNeverReached(t *testing.T) {
	// 100x100 yields 84 samples, fewer than the default 400 threshold
	if !IsBlank(solid(100, 100, white), config.Default()) {
		t.Fatalf("expected frame with too few samples to be blank")
	}
}

func TestIsBlankOnlyLooksAtSampledPixels(t *testing.T) {
	cfg := config.Default()
	cfg.NonBlankThreshold = 3

	img := solid(120, 10, black)
	// Light every pixel except the sampled column x == 0.
	for y := 0; y < 10; y++ {
		for x := 1; x < 120; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	if !IsBlank(img, cfg) {
		t.Fatalf("expected unsampled bright pixels to be ignored")
	}

	// Light exactly three sampled pixels.
	for _, y := range []int{0, 4, 9} {
		img.SetRGBA(0, y, color.RGBA{0, 0, 20, 255})
	}
	if IsBlank(img, cfg) {
		t.Fatalf("expected three sampled non-black pixels to cross the threshold")
	}
}

func TestIsBlankChannelThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.NonBlankThreshold = 1

	if !IsBlank(solid(10, 10, color.RGBA{19, 19, 19, 255}), cfg) {
		t.Fatalf("expected channels below threshold to be black")
	}
	if IsBlank(solid(10, 10, color.RGBA{0, 20, 0, 255}), cfg) {
		t.Fatalf("expected a single channel at threshold to be non-black")
	}
}

func TestIsBlankZeroThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.NonBlankThreshold = 0
	if IsBlank(solid(4, 4, black), cfg) {
		t.Fatalf("expected zero threshold to never report blank")
	}
	if !IsBlank(image.NewRGBA(image.Rect(0, 0, 0, 0)), cfg) {
		t.Fatalf("expected empty frame to be blank")
	}
}

func TestNewFingerprintBlockAverage(t *testing.T) {
	img := solid(10, 9, black)
	// Top-left block: half white, half black.
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	fp := NewFingerprint(img)

	if fp.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("expected remainder pixels to be dropped, got %v", fp.Bounds())
	}
	// white has luma 255; mean of 8 white and 8 black pixels truncates to 127
	if got := fp.img.GrayAt(0, 0).Y; got != 127 {
		t.Fatalf("expected block mean 127, got %d", got)
	}
	if got := fp.img.GrayAt(1, 1).Y; got != 0 {
		t.Fatalf("expected black block, got %d", got)
	}
}

func TestLumaWeights(t *testing.T) {
	if got := luma(255, 0, 0); got != 76 {
		t.Fatalf("red luma = %d", got)
	}
	if got := luma(0, 255, 0); got != 149 {
		t.Fatalf("green luma = %d", got)
	}
	if got := luma(0, 0, 255); got != 29 {
		t.Fatalf("blue luma = %d", got)
	}
}

func TestDifferenceRatio(t *testing.T) {
	a := NewFingerprint(solid(40, 40, color.RGBA{100, 100, 100, 255}))
	b := NewFingerprint(solid(40, 40, color.RGBA{105, 105, 105, 255}))
	c := NewFingerprint(solid(40, 40, color.RGBA{120, 120, 120, 255}))

	if r := DifferenceRatio(a, a); r != 0 {
		t.Fatalf("identical ratio = %v", r)
	}
	if r := DifferenceRatio(a, b); r != 0 {
		t.Fatalf("expected difference within sensitivity to be ignored, got %v", r)
	}
	if r := DifferenceRatio(a, c); r != 1 {
		t.Fatalf("expected every pixel to differ, got %v", r)
	}

	other := NewFingerprint(solid(80, 40, color.RGBA{100, 100, 100, 255}))
	if r := DifferenceRatio(a, other); r != 1 {
		t.Fatalf("expected dimension mismatch to be maximal, got %v", r)
	}

	tiny := NewFingerprint(solid(3, 3, black))
	if r := DifferenceRatio(tiny, tiny); r != 1 {
		t.Fatalf("expected empty fingerprints to compare as different, got %v", r)
	}
}

func TestJudgeFirstFrameIsDifferent(t *testing.T) {
	var state State
	v := Judge(&state, NewFingerprint(solid(16, 16, white)), config.Default())
	if v.Same {
		t.Fatalf("expected first frame to be different")
	}
	if state.LastFingerprint != nil {
		t.Fatalf("Judge must not modify state")
	}
}

func TestJudgeIdenticalFramesAreSame(t *testing.T) {
	cfg := config.Default()
	var state State
	first := Judge(&state, NewFingerprint(solid(100, 100, white)), cfg)
	state.Commit(first, "20240101-000000-1")

	for _, ratio := range []float64{0.0001, 0.01, 0.5, 1} {
		cfg.SameScreenRatio = ratio
		v := Judge(&state, NewFingerprint(solid(100, 100, white)), cfg)
		if !v.Same {
			t.Fatalf("ratio %v: expected identical frames to be same", ratio)
		}
	}

	cfg.SameScreenRatio = 0
	if v := Judge(&state, NewFingerprint(solid(100, 100, white)), cfg); v.Same {
		t.Fatalf("expected zero ratio to never report same")
	}
}

func TestJudgeFullyChangedFramesAreDifferent(t *testing.T) {
	cfg := config.Default()
	var state State
	state.Commit(Judge(&state, NewFingerprint(solid(64, 64, black)), cfg), "a")

	for _, ratio := range []float64{0, 0.01, 0.99, 0.999} {
		cfg.SameScreenRatio = ratio
		if v := Judge(&state, NewFingerprint(solid(64, 64, white)), cfg); v.Same {
			t.Fatalf("ratio %v: expected fully changed frame to be different", ratio)
		}
	}
}

func TestJudgeDimensionMismatchIsDifferent(t *testing.T) {
	cfg := config.Default()
	cfg.SameScreenRatio = 1
	var state State
	state.Commit(Judge(&state, NewFingerprint(solid(64, 64, white)), cfg), "a")

	if v := Judge(&state, NewFingerprint(solid(64, 32, white)), cfg); v.Same {
		t.Fatalf("expected dimension mismatch to be different")
	}
}

func TestCommitKeepsBaselineOnSame(t *testing.T) {
	cfg := config.Default()
	cfg.SameScreenRatio = 0.5
	var state State

	base := NewFingerprint(solid(8, 8, black))
	state.Commit(Judge(&state, base, cfg), "first")

	// A quarter of the frame drifts; below the ratio so the baseline is kept.
	drift := solid(8, 8, black)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			drift.SetRGBA(x, y, white)
		}
	}
	v := Judge(&state, NewFingerprint(drift), cfg)
	if !v.Same {
		t.Fatalf("expected quarter change to be same at ratio 0.5 (ratio %v)", v.Ratio)
	}
	state.Commit(v, "ignored")
	if state.LastFingerprint != base || state.LastEventID != "first" {
		t.Fatalf("expected same verdict to leave state untouched")
	}

	changed := NewFingerprint(solid(8, 8, white))
	v = Judge(&state, changed, cfg)
	state.Commit(v, "second")
	if v.Same || state.LastFingerprint != changed || state.LastEventID != "second" {
		t.Fatalf("expected different verdict to replace the baseline")
	}
}
