package colour

import (
	"image/color"
	"testing"
)

func TestHistogramDeterministic(t *testing.T) {
	pixels := make([]color.NRGBA, 0, 1024)
	for i := 0; i < 1024; i++ {
		pixels = append(pixels, color.NRGBA{R: uint8(i * 7), G: uint8(i * 13), B: uint8(i * 3), A: 255})
	}
	cfg := configFor(MethodHistogram, 6)

	first, err := ExtractPixels(pixels, cfg)
	if err != nil {
		t.Fatalf("ExtractPixels() error: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := ExtractPixels(pixels, cfg)
		if err != nil {
			t.Fatalf("ExtractPixels() error: %v", err)
		}
		if again.Len() != first.Len() {
			t.Fatalf("run %d: Len() = %d, want %d", run, again.Len(), first.Len())
		}
		for i := range first.Entries {
			if again.Entries[i] != first.Entries[i] {
				t.Errorf("run %d: entry %d = %+v, want %+v", run, i, again.Entries[i], first.Entries[i])
			}
		}
	}
}

func TestHistogramQuantizesNearColours(t *testing.T) {
	// 250 and 254 fall in the same 8-wide bucket at 32 levels.
	pixels := []color.NRGBA{
		{R: 250, A: 255},
		{R: 254, A: 255},
		{B: 255, A: 255},
	}

	p, err := NewHistogramExtractor().Extract(pixels, configFor(MethodHistogram, 4))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}

	top := p.Entries[0]
	if top.Colour != (RGB{R: 252}) {
		t.Errorf("bucket colour = %+v, want mean {252 0 0}", top.Colour)
	}
	if top.Count != 2 {
		t.Errorf("bucket count = %d, want 2", top.Count)
	}
}

func TestHistogramLevels(t *testing.T) {
	pixels := []color.NRGBA{
		{R: 250, A: 255},
		{R: 254, A: 255},
	}

	tests := []struct {
		levels int
		want   int
	}{
		{levels: 2, want: 1},
		{levels: 32, want: 1},
		{levels: 128, want: 2},
		{levels: 256, want: 2},
	}

	for _, tt := range tests {
		cfg := configFor(MethodHistogram, 4)
		cfg.QuantizeLevels = tt.levels

		p, err := ExtractPixels(pixels, cfg)
		if err != nil {
			t.Fatalf("levels=%d: error: %v", tt.levels, err)
		}
		if p.Len() != tt.want {
			t.Errorf("levels=%d: Len() = %d, want %d", tt.levels, p.Len(), tt.want)
		}
	}
}

func TestHistogramSamplesEveryPixel(t *testing.T) {
	pixels := make([]color.NRGBA, 10000)
	for i := range pixels {
		pixels[i] = color.NRGBA{G: 255, A: 255}
	}

	p, err := ExtractPixels(pixels, configFor(MethodHistogram, 3))
	if err != nil {
		t.Fatalf("ExtractPixels() error: %v", err)
	}
	if p.Sampled != 10000 {
		t.Errorf("Sampled = %d, want 10000", p.Sampled)
	}
}
