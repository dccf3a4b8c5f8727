package event

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/bryanchriswhite/screenagent/internal/capture"
)

// Category is the event kind every screen event is published under
const Category = "screen"

const imageIDLayout = "20060102-150405"

// ScreenEvent reports a new or changed screen, carrying the full frame
type ScreenEvent struct {
	T       int64  `json:"t"`
	Image   string `json:"image"`
	ImageID string `json:"image_id"`
}

// SameScreenEvent reports that the screen still matches an earlier ScreenEvent
type SameScreenEvent struct {
	T       int64  `json:"t"`
	ImageID string `json:"image_id"`
}

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// ImageID builds "<YYYYMMDD>-<HHMMSS>-<monitor>" from the UTC capture instant.
// Two captures of the same monitor within one second share an id.
func ImageID(ts time.Time, monitor int64) string {
	return fmt.Sprintf("%s-%d", ts.UTC().Format(imageIDLayout), monitor)
}

// NewScreenEvent encodes the full-resolution frame as base64 PNG
func NewScreenEvent(f *capture.Frame) (ScreenEvent, error) {
	img, err := EncodeImage(f.Image)
	if err != nil {
		return ScreenEvent{}, err
	}
	return ScreenEvent{
		T:       f.Timestamp.UnixMilli(),
		Image:   img,
		ImageID: ImageID(f.Timestamp, f.MonitorID),
	}, nil
}

// NewSameScreenEvent refers back to the id of the last emitted ScreenEvent
func NewSameScreenEvent(ts time.Time, lastImageID string) SameScreenEvent {
	return SameScreenEvent{
		T:       ts.UnixMilli(),
		ImageID: lastImageID,
	}
}

// EncodeImage returns img as standard base64 of its PNG encoding
func EncodeImage(img image.Image) (string, error) {
	var sb strings.Builder
	b64 := base64.NewEncoder(base64.StdEncoding, &sb)
	if err := encoder.Encode(b64, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	if err := b64.Close(); err != nil {
		return "", fmt.Errorf("failed to encode base64: %w", err)
	}
	return sb.String(), nil
}
