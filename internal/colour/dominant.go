package colour

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/cenkalti/dominantcolor"
)

// DominantExtractor finds the most dominant colours with the dominantcolor
// library. Weights are normalised so prevalences sum to at most one.
type DominantExtractor struct{}

// NewDominantExtractor creates a new DominantExtractor.
func NewDominantExtractor() *DominantExtractor {
	return &DominantExtractor{}
}

// Extract implements Extractor.
func (e *DominantExtractor) Extract(pixels []color.NRGBA, cfg Config) (*Palette, error) {
	cfg = cfg.withDefaults()

	candidates := dominantcolor.FindWeight(packPixels(pixels), cfg.Count)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("dominant colour search returned no colours")
	}

	total := 0.0
	for _, c := range candidates {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("dominant colour search returned no weighted colours")
	}

	n := len(pixels)
	assigned := 0
	clusters := make([]cluster, 0, len(candidates))
	for _, c := range candidates {
		if c.Weight <= 0 {
			continue
		}
		// Floor keeps the summed counts within n; the epsilon absorbs
		// rounding in the library's weights.
		count := min(int(math.Floor(c.Weight/total*float64(n)+1e-9)), n-assigned)
		assigned += count
		clusters = append(clusters, cluster{
			colour: RGB{R: c.RGBA.R, G: c.RGBA.G, B: c.RGBA.B},
			count:  count,
		})
	}

	cfg.Logger.Trace("dominant colours found", "candidates", len(candidates))
	return newPalette(MethodDominant, clusters, n, cfg.Count), nil
}

// packPixels lays the visible pixels out as a square image with every pixel
// opaque. The remainder of the last row stays fully transparent, which
// dominantcolor skips.
func packPixels(pixels []color.NRGBA) image.Image {
	side := int(math.Ceil(math.Sqrt(float64(len(pixels)))))
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i, p := range pixels {
		p.A = 255
		img.SetNRGBA(i%side, i/side, p)
	}
	return img
}
