package detect

import (
	"image"

	"github.com/bryanchriswhite/screenagent/internal/config"
)

// BlankSampleStride is the fixed distance, in pixels, between samples taken
// by IsBlank. It does not scale with resolution.
const BlankSampleStride = 120

// IsBlank reports whether img is overwhelmingly dark.
//
// Every BlankSampleStride-th pixel in row-major order is inspected; a pixel is
// non-blank when any of R, G or B reaches AlmostBlackThreshold. The scan stops
// as soon as NonBlankThreshold non-blank samples have been seen.
func IsBlank(img *image.RGBA, cfg config.AgentConfig) bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	total := w * h
	threshold := uint8(min(cfg.AlmostBlackThreshold, 255))

	var count uint64
	for i := 0; i < total; i += BlankSampleStride {
		off := img.PixOffset(b.Min.X+i%w, b.Min.Y+i/w)
		p := img.Pix[off : off+3 : off+3]
		if p[0] >= threshold || p[1] >= threshold || p[2] >= threshold {
			count++
		}
		if count >= cfg.NonBlankThreshold {
			return false
		}
	}
	return true
}
