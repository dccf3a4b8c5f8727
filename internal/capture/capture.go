package capture

import (
	"errors"
	"image"
	"time"

	"golang.org/x/image/draw"
)

var (
	// ErrNoPrimaryDisplay means enumeration succeeded but no display is primary.
	// Callers treat it as "nothing to report" rather than a failure.
	ErrNoPrimaryDisplay = errors.New("no primary display found")

	// ErrNoBackend is returned when no capture backend could be started
	ErrNoBackend = errors.New("no capture backends available")
)

// Display describes one monitor known to a capture backend
type Display struct {
	ID      int64           `json:"id" yaml:"id"`
	Name    string          `json:"name" yaml:"name"`
	Primary bool            `json:"primary" yaml:"primary"`
	Bounds  image.Rectangle `json:"bounds" yaml:"bounds"`
}

// Frame is one capture of the primary display. It is owned by the cycle that
// produced it and is not retained afterwards.
type Frame struct {
	Timestamp time.Time
	MonitorID int64
	Image     *image.RGBA
}

// Capturer defines the interface for screen capture backends
type Capturer interface {
	// Start initializes the capturer and any required resources
	Start() error

	// Stop releases resources
	Stop() error

	// Name returns a human-readable name for this capturer
	Name() string

	// Displays enumerates the monitors the backend can see
	Displays() ([]Display, error)

	// CapturePrimary captures the primary display.
	// Returns ErrNoPrimaryDisplay when there is none.
	CapturePrimary() (*Frame, error)
}

// Primary picks the display flagged primary, falling back to the display
// anchored at the origin.
func Primary(displays []Display) (Display, bool) {
	for _, d := range displays {
		if d.Primary {
			return d, true
		}
	}
	for _, d := range displays {
		if d.Bounds.Min == (image.Point{}) && !d.Bounds.Empty() {
			return d, true
		}
	}
	return Display{}, false
}

// ToRGBA returns img as a tightly packed RGBA image whose bounds start at the origin
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok &&
		rgba.Rect.Min == (image.Point{}) &&
		rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
