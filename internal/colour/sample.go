package colour

import (
	"image"
	"image/color"
)

const (
	// defaultSampleStep is the k-means stride for ordinary images.
	defaultSampleStep = 4

	// Images with fewer visible pixels than this are sampled in full.
	minStridedPixels = 4096

	// maxSamples bounds k-means work on very large images.
	maxSamples = 50000
)

// PixelsFromImage returns the pixels of img in row-major order as
// non-premultiplied 8-bit RGBA.
func PixelsFromImage(img image.Image) []color.NRGBA {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]color.NRGBA, 0, width*height)

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := nrgba.Pix[nrgba.PixOffset(bounds.Min.X, y):]
			for x := 0; x < width; x++ {
				i := x * 4
				pixels = append(pixels, color.NRGBA{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]})
			}
		}
		return pixels
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = append(pixels, color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
		}
	}
	return pixels
}

// visiblePixels filters out pixels below the alpha threshold unless
// transparent pixels are included. It returns the kept pixels and the
// number dropped.
func visiblePixels(pixels []color.NRGBA, cfg Config) ([]color.NRGBA, int) {
	if cfg.IncludeTransparent {
		return pixels, 0
	}

	visible := make([]color.NRGBA, 0, len(pixels))
	for _, p := range pixels {
		if p.A >= cfg.AlphaThreshold {
			visible = append(visible, p)
		}
	}
	return visible, len(pixels) - len(visible)
}

// autoSampleStep picks a k-means stride for n visible pixels: every pixel
// for small images, every 4th normally, and wider strides once that would
// exceed maxSamples.
func autoSampleStep(n int) int {
	if n < minStridedPixels {
		return 1
	}
	step := defaultSampleStep
	if n/step > maxSamples {
		step = (n + maxSamples - 1) / maxSamples
	}
	return step
}

// samplePixels returns every step-th pixel, always starting at the first.
func samplePixels(pixels []color.NRGBA, step int) []color.NRGBA {
	if step <= 1 {
		return pixels
	}
	sampled := make([]color.NRGBA, 0, len(pixels)/step+1)
	for i := 0; i < len(pixels); i += step {
		sampled = append(sampled, pixels[i])
	}
	return sampled
}
