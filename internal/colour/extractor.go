// Package colour provides colour extraction and palette generation functionality.
package colour

import (
	"fmt"
	"image"
	"image/color"
	"math/bits"
	"slices"

	"github.com/hashicorp/go-hclog"
)

// Extractor defines the interface for colour extraction algorithms.
type Extractor interface {
	// Extract reduces pixels to at most cfg.Count palette entries.
	// The pixels have already passed the alpha filter and must not be empty.
	Extract(pixels []color.NRGBA, cfg Config) (*Palette, error)
}

// Method represents the colour extraction algorithm type.
type Method string

const (
	// MethodHistogram counts pixels in quantized colour buckets.
	MethodHistogram Method = "histogram"

	// MethodKMeans clusters a sample of pixels with k-means.
	MethodKMeans Method = "kmeans"

	// MethodDominant delegates to the dominantcolor library.
	MethodDominant Method = "dominant"
)

const (
	// MaxCount is the largest palette that can be requested.
	MaxCount = 256

	// DefaultAlphaThreshold excludes pixels below 50% opacity.
	DefaultAlphaThreshold = 128

	defaultCount          = 8
	defaultQuantizeLevels = 32
	defaultMaxIterations  = 20
)

// ValidMethods returns a list of valid method names.
func ValidMethods() []Method {
	return []Method{MethodHistogram, MethodKMeans, MethodDominant}
}

// IsValidMethod checks if the given method name is valid.
func IsValidMethod(m Method) bool {
	return slices.Contains(ValidMethods(), m)
}

// ParseMethod converts a string to a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !IsValidMethod(m) {
		return "", &ConfigurationError{
			Field:  "method",
			Value:  s,
			Reason: fmt.Sprintf("valid methods are %v", ValidMethods()),
		}
	}
	return m, nil
}

// NewExtractor creates a new Extractor based on the specified method.
func NewExtractor(m Method) (Extractor, error) {
	switch m {
	case MethodHistogram:
		return NewHistogramExtractor(), nil
	case MethodKMeans:
		return NewKMeansExtractor(), nil
	case MethodDominant:
		return NewDominantExtractor(), nil
	default:
		return nil, &ConfigurationError{
			Field:  "method",
			Value:  m,
			Reason: fmt.Sprintf("valid methods are %v", ValidMethods()),
		}
	}
}

// Config holds configuration for colour extraction.
type Config struct {
	// Method selects the extraction algorithm.
	Method Method

	// Count is the target palette size.
	Count int

	// IncludeTransparent keeps pixels below AlphaThreshold in the sample.
	IncludeTransparent bool

	// AlphaThreshold is the minimum alpha a pixel needs to be sampled
	// when IncludeTransparent is false.
	AlphaThreshold uint8

	// QuantizeLevels is the number of levels per channel used by the
	// histogram method. Must be a power of two; zero selects 32.
	QuantizeLevels int

	// SampleStep makes k-means sample every Nth visible pixel.
	// Zero picks a step from the image size.
	SampleStep int

	// MaxIterations caps k-means refinement. Zero selects 20.
	MaxIterations int

	// Seed seeds k-means centroid initialisation.
	Seed int64

	// Logger receives trace output. Nil discards it.
	Logger hclog.Logger
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		Method:         MethodKMeans,
		Count:          defaultCount,
		AlphaThreshold: DefaultAlphaThreshold,
		QuantizeLevels: defaultQuantizeLevels,
		MaxIterations:  defaultMaxIterations,
	}
}

// Validate validates the extractor configuration.
func (c Config) Validate() error {
	if !IsValidMethod(c.Method) {
		return &ConfigurationError{
			Field:  "method",
			Value:  c.Method,
			Reason: fmt.Sprintf("valid methods are %v", ValidMethods()),
		}
	}
	if c.Count < 1 {
		return &ConfigurationError{Field: "colour count", Value: c.Count, Reason: "must be at least 1"}
	}
	if c.Count > MaxCount {
		return &ConfigurationError{Field: "colour count", Value: c.Count, Reason: fmt.Sprintf("maximum is %d", MaxCount)}
	}
	if c.QuantizeLevels != 0 {
		if c.QuantizeLevels < 2 || c.QuantizeLevels > 256 || bits.OnesCount(uint(c.QuantizeLevels)) != 1 {
			return &ConfigurationError{Field: "quantize levels", Value: c.QuantizeLevels, Reason: "must be a power of two between 2 and 256"}
		}
	}
	if c.SampleStep < 0 {
		return &ConfigurationError{Field: "sample step", Value: c.SampleStep, Reason: "must not be negative"}
	}
	if c.MaxIterations < 0 {
		return &ConfigurationError{Field: "max iterations", Value: c.MaxIterations, Reason: "must not be negative"}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.QuantizeLevels == 0 {
		c.QuantizeLevels = defaultQuantizeLevels
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = defaultMaxIterations
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	return c
}

// Extract reads the pixels of a decoded image and extracts its palette.
func Extract(img image.Image, cfg Config) (*Palette, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, &DecodeError{Err: fmt.Errorf("image is nil")}
	}
	return ExtractPixels(PixelsFromImage(img), cfg)
}

// ExtractPixels extracts a palette from a decoded RGBA pixel buffer.
//
// When every pixel is excluded by the alpha threshold the result is an
// empty palette carrying an EmptyResultWarning, not an error.
func ExtractPixels(pixels []color.NRGBA, cfg Config) (*Palette, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	extractor, err := NewExtractor(cfg.Method)
	if err != nil {
		return nil, err
	}

	visible, excluded := visiblePixels(pixels, cfg)
	if len(visible) == 0 {
		cfg.Logger.Debug("no visible pixels", "total", len(pixels), "excluded", excluded)
		return &Palette{
			Entries:  []Entry{},
			Method:   cfg.Method,
			Excluded: excluded,
			Warning:  &EmptyResultWarning{Excluded: excluded},
		}, nil
	}

	cfg.Logger.Trace("extracting palette",
		"method", cfg.Method, "count", cfg.Count, "visible", len(visible), "excluded", excluded)

	palette, err := extractor.Extract(visible, cfg)
	if err != nil {
		return nil, err
	}
	palette.Excluded = excluded
	return palette, nil
}
