package detect

import (
	"image"
)

const (
	// FingerprintScale is the linear downsampling factor of a fingerprint
	FingerprintScale = 4

	// Sensitivity is the largest per-pixel luma difference still counted as unchanged
	Sensitivity = 5
)

// Fingerprint is a block-averaged grayscale reduction of a frame. It is never
// mutated after construction.
type Fingerprint struct {
	img *image.Gray
}

// Bounds returns the fingerprint dimensions
func (f *Fingerprint) Bounds() image.Rectangle {
	return f.img.Bounds()
}

// NewFingerprint downsamples img by FingerprintScale.
//
// Each output pixel is the truncated mean luma of one scale x scale block.
// Blocks that would extend past the right or bottom edge are dropped.
func NewFingerprint(img *image.RGBA) *Fingerprint {
	return newFingerprint(img, FingerprintScale)
}

func newFingerprint(img *image.RGBA, scale int) *Fingerprint {
	b := img.Bounds()
	w, h := b.Dx()/scale, b.Dy()/scale
	out := image.NewGray(image.Rect(0, 0, w, h))
	area := uint32(scale * scale)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum uint32
			for dy := 0; dy < scale; dy++ {
				off := img.PixOffset(b.Min.X+x*scale, b.Min.Y+y*scale+dy)
				row := img.Pix[off : off+4*scale : off+4*scale]
				for dx := 0; dx < scale; dx++ {
					sum += luma(row[4*dx], row[4*dx+1], row[4*dx+2])
				}
			}
			out.Pix[y*out.Stride+x] = uint8(sum / area)
		}
	}

	return &Fingerprint{img: out}
}

func luma(r, g, b uint8) uint32 {
	return (uint32(r)*299 + uint32(g)*587 + uint32(b)*114) / 1000
}

// DifferenceRatio returns the fraction of pixels whose luma differs by more
// than Sensitivity. Fingerprints of different dimensions, or with no pixels,
// are maximally different.
func DifferenceRatio(a, b *Fingerprint) float64 {
	if a.Bounds().Size() != b.Bounds().Size() {
		return 1.0
	}
	total := len(a.img.Pix)
	if total == 0 {
		return 1.0
	}

	var different int
	for i, pa := range a.img.Pix {
		pb := b.img.Pix[i]
		diff := int(pa) - int(pb)
		if diff < 0 {
			diff = -diff
		}
		if diff > Sensitivity {
			different++
		}
	}
	return float64(different) / float64(total)
}
