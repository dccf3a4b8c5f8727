package capture

import (
	"fmt"
	"time"

	"github.com/bryanchriswhite/screenagent/internal/logger"
	"github.com/kbinani/screenshot"
)

// ScreenshotCapturer is the portable backend built on kbinani/screenshot.
// The library has no notion of a primary display, so the display anchored at
// the origin is used.
type ScreenshotCapturer struct{}

// NewScreenshotCapturer creates a new portable capturer
func NewScreenshotCapturer() *ScreenshotCapturer {
	return &ScreenshotCapturer{}
}

func (c *ScreenshotCapturer) Start() error {
	logger.WithComponent("screenshot-capturer").Info().
		Int("displays", screenshot.NumActiveDisplays()).
		Msg("Portable capturer initialized")
	return nil
}

func (c *ScreenshotCapturer) Stop() error { return nil }

func (c *ScreenshotCapturer) Name() string { return "screenshot" }

func (c *ScreenshotCapturer) Displays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		displays = append(displays, Display{
			ID:     int64(i),
			Name:   fmt.Sprintf("display-%d", i),
			Bounds: b,
		})
	}
	return displays, nil
}

func (c *ScreenshotCapturer) CapturePrimary() (*Frame, error) {
	displays, err := c.Displays()
	if err != nil {
		return nil, err
	}
	d, ok := Primary(displays)
	if !ok {
		return nil, ErrNoPrimaryDisplay
	}

	timestamp := time.Now()
	img, err := screenshot.CaptureRect(d.Bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", d.ID, err)
	}

	return &Frame{
		Timestamp: timestamp,
		MonitorID: d.ID,
		Image:     ToRGBA(img),
	}, nil
}
