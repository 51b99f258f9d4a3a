package colour

import (
	"image/color"
	"math/bits"
)

// HistogramExtractor implements colour extraction by counting pixels in
// quantized colour buckets. It is deterministic.
type HistogramExtractor struct{}

// NewHistogramExtractor creates a new HistogramExtractor.
func NewHistogramExtractor() *HistogramExtractor {
	return &HistogramExtractor{}
}

// bucket accumulates the pixels that quantize to the same key.
type bucket struct {
	count   int
	r, g, b int
}

// Extract counts every pixel into a bucket and returns the most populated
// buckets. Each bucket is reported as the mean of its pixels rather than
// its quantized corner, so solid colours keep their exact value.
func (e *HistogramExtractor) Extract(pixels []color.NRGBA, cfg Config) (*Palette, error) {
	cfg = cfg.withDefaults()
	shift := 8 - bits.TrailingZeros(uint(cfg.QuantizeLevels))

	buckets := make(map[uint32]*bucket)
	for _, p := range pixels {
		key := uint32(p.R>>shift)<<16 | uint32(p.G>>shift)<<8 | uint32(p.B>>shift)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++
		b.r += int(p.R)
		b.g += int(p.G)
		b.b += int(p.B)
	}

	clusters := make([]cluster, 0, len(buckets))
	for _, b := range buckets {
		n := float64(b.count)
		clusters = append(clusters, cluster{
			colour: RGB{
				R: roundChannel(float64(b.r) / n),
				G: roundChannel(float64(b.g) / n),
				B: roundChannel(float64(b.b) / n),
			},
			count: b.count,
		})
	}

	cfg.Logger.Trace("histogram built", "levels", cfg.QuantizeLevels, "buckets", len(buckets))
	return newPalette(MethodHistogram, clusters, len(pixels), cfg.Count), nil
}
