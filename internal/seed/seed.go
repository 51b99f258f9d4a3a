// Package seed decides the random seed used for k-means centroid selection,
// so that repeated runs over the same input can produce the same palette.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Mode determines how the seed is derived.
type Mode string

const (
	// ModeContent hashes the image pixels. Same content, same palette.
	ModeContent Mode = "content"
	// ModeFilepath hashes the absolute path or URL of the source.
	ModeFilepath Mode = "filepath"
	// ModeManual uses Config.Value.
	ModeManual Mode = "manual"
	// ModeRandom varies on every run.
	ModeRandom Mode = "random"
)

// Config holds configuration for seed generation.
type Config struct {
	Mode  Mode
	Value *int64 // only used by ModeManual
}

// ValidModes returns a list of valid seed modes.
func ValidModes() []Mode {
	return []Mode{ModeContent, ModeFilepath, ModeManual, ModeRandom}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: %v)", s, ValidModes())
}

// Calculate returns the seed for an image loaded from source.
func Calculate(img image.Image, source string, cfg Config) (int64, error) {
	switch cfg.Mode {
	case ModeContent:
		if img == nil {
			return 0, fmt.Errorf("image is required for content seed mode")
		}
		return FromContent(img), nil
	case ModeFilepath:
		if source == "" {
			return 0, fmt.Errorf("source path is required for filepath seed mode")
		}
		return FromPath(source), nil
	case ModeManual:
		if cfg.Value == nil {
			return 0, fmt.Errorf("seed value is required for manual seed mode")
		}
		return *cfg.Value, nil
	case ModeRandom:
		return Random(), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", cfg.Mode)
	}
}

// FromContent hashes the image dimensions and a grid of roughly 100x100
// pixels, which is enough to tell images apart without reading all of them.
func FromContent(img image.Image) int64 {
	bounds := img.Bounds()
	h := sha256.New()

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(bounds.Dx())) // #nosec G115 -- image dimensions are non-negative
	binary.LittleEndian.PutUint32(buf[4:8], uint32(bounds.Dy())) // #nosec G115 -- image dimensions are non-negative
	h.Write(buf[:])

	step := max(bounds.Dx()/100, bounds.Dy()/100, 1)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			h.Write([]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8), byte(a >> 8)})
		}
	}

	return sum64(h.Sum(nil))
}

// FromPath hashes the absolute form of a file path. URLs are hashed as given.
func FromPath(source string) int64 {
	key := source
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		if abs, err := filepath.Abs(source); err == nil {
			key = abs
		}
	}
	digest := sha256.Sum256([]byte(key))
	return sum64(digest[:])
}

// Random returns a seed that differs between runs.
func Random() int64 {
	return time.Now().UnixNano()
}

func sum64(digest []byte) int64 {
	return int64(binary.LittleEndian.Uint64(digest[:8])) // #nosec G115 -- hash bits reinterpreted as a seed
}
