package colour

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

var (
	red         = color.NRGBA{R: 255, A: 255}
	green       = color.NRGBA{G: 255, A: 255}
	blue        = color.NRGBA{B: 255, A: 255}
	transparent = color.NRGBA{R: 200, G: 100, B: 50, A: 0}
)

// solidImage returns a w x h image filled with c.
func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// stripedImage returns an image whose rows cycle through colours.
func stripedImage(w, h int, colours ...color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, colours[y%len(colours)])
		}
	}
	return img
}

func configFor(m Method, k int) Config {
	cfg := DefaultConfig()
	cfg.Method = m
	cfg.Count = k
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error: %v", err)
	}
	if cfg.Method != MethodKMeans {
		t.Errorf("Method = %s, want kmeans", cfg.Method)
	}
	if cfg.AlphaThreshold != DefaultAlphaThreshold {
		t.Errorf("AlphaThreshold = %d, want %d", cfg.AlphaThreshold, DefaultAlphaThreshold)
	}
	if cfg.IncludeTransparent {
		t.Error("IncludeTransparent = true, want false")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{name: "zero count", modify: func(c *Config) { c.Count = 0 }, field: "colour count"},
		{name: "negative count", modify: func(c *Config) { c.Count = -3 }, field: "colour count"},
		{name: "count too large", modify: func(c *Config) { c.Count = 257 }, field: "colour count"},
		{name: "unknown method", modify: func(c *Config) { c.Method = "mediancut" }, field: "method"},
		{name: "levels not power of two", modify: func(c *Config) { c.QuantizeLevels = 24 }, field: "quantize levels"},
		{name: "levels too small", modify: func(c *Config) { c.QuantizeLevels = 1 }, field: "quantize levels"},
		{name: "negative step", modify: func(c *Config) { c.SampleStep = -1 }, field: "sample step"},
		{name: "negative iterations", modify: func(c *Config) { c.MaxIterations = -1 }, field: "max iterations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want ConfigurationError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range ValidMethods() {
		got, err := ParseMethod(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %q, %v", m, got, err)
		}
	}

	var cfgErr *ConfigurationError
	if _, err := ParseMethod("octree"); !errors.As(err, &cfgErr) {
		t.Errorf("ParseMethod(octree) error = %v, want ConfigurationError", err)
	}
}

func TestNewExtractor(t *testing.T) {
	tests := []struct {
		method  Method
		wantErr bool
	}{
		{method: MethodHistogram},
		{method: MethodKMeans},
		{method: MethodDominant},
		{method: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			ext, err := NewExtractor(tt.method)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExtractor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && ext == nil {
				t.Error("NewExtractor() returned nil extractor")
			}
		})
	}
}

func TestExtractNilImage(t *testing.T) {
	_, err := Extract(nil, DefaultConfig())

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Extract(nil) error = %v, want DecodeError", err)
	}
}

func TestExtractInvalidCount(t *testing.T) {
	img := solidImage(2, 2, red)
	for _, m := range ValidMethods() {
		for _, k := range []int{0, -1} {
			_, err := Extract(img, configFor(m, k))
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("%s k=%d: error = %v, want ConfigurationError", m, k, err)
			}
		}
	}
}

func TestExtractTwoByTwoHistogram(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, red)
	img.SetNRGBA(0, 1, blue)
	img.SetNRGBA(1, 1, blue)

	p, err := Extract(img, configFor(MethodHistogram, 2))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}

	got := map[string]float64{}
	for _, e := range p.Entries {
		got[e.Hex] = e.Prevalence
	}
	for _, hex := range []string{"#ff0000", "#0000ff"} {
		if got[hex] != 0.5 {
			t.Errorf("prevalence of %s = %v, want 0.5", hex, got[hex])
		}
	}
}

func TestExtractSingleColour(t *testing.T) {
	img := solidImage(16, 16, color.NRGBA{R: 12, G: 200, B: 99, A: 255})

	for _, m := range []Method{MethodHistogram, MethodKMeans} {
		for _, k := range []int{1, 4, 16} {
			p, err := Extract(img, configFor(m, k))
			if err != nil {
				t.Fatalf("%s k=%d: Extract() error: %v", m, k, err)
			}
			if p.Len() != 1 {
				t.Fatalf("%s k=%d: Len() = %d, want 1", m, k, p.Len())
			}
			if p.Entries[0].Hex != "#0cc863" {
				t.Errorf("%s k=%d: Hex = %s, want #0cc863", m, k, p.Entries[0].Hex)
			}
			if p.Entries[0].Prevalence != 1.0 {
				t.Errorf("%s k=%d: Prevalence = %v, want 1.0", m, k, p.Entries[0].Prevalence)
			}
		}
	}
}

func TestExtractAllTransparent(t *testing.T) {
	img := solidImage(8, 8, transparent)

	for _, m := range ValidMethods() {
		t.Run(string(m), func(t *testing.T) {
			p, err := Extract(img, configFor(m, 4))
			if err != nil {
				t.Fatalf("Extract() error = %v, want nil", err)
			}
			if !p.IsEmpty() {
				t.Errorf("Len() = %d, want 0", p.Len())
			}
			if p.Warning == nil {
				t.Fatal("Warning = nil, want EmptyResultWarning")
			}
			if !errors.Is(p.Warning, ErrEmptyPalette) {
				t.Error("Warning does not match ErrEmptyPalette")
			}
			if p.Excluded != 64 {
				t.Errorf("Excluded = %d, want 64", p.Excluded)
			}
		})
	}
}

func TestExtractIncludeTransparent(t *testing.T) {
	img := solidImage(4, 4, transparent)
	cfg := configFor(MethodHistogram, 2)
	cfg.IncludeTransparent = true

	p, err := Extract(img, cfg)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if p.IsEmpty() || p.Warning != nil {
		t.Errorf("expected a non-empty palette, got %d entries warning %v", p.Len(), p.Warning)
	}
}

func TestExtractExcludesBelowThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, red)
	img.SetNRGBA(2, 0, color.NRGBA{B: 255, A: 127})
	img.SetNRGBA(3, 0, color.NRGBA{G: 255, A: 128})

	p, err := Extract(img, configFor(MethodHistogram, 4))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if p.Excluded != 1 {
		t.Errorf("Excluded = %d, want 1", p.Excluded)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
	if p.Entries[0].Hex != "#ff0000" {
		t.Errorf("first entry = %s, want #ff0000", p.Entries[0].Hex)
	}
}

func TestExtractPaletteInvariants(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8((x + y) * 2), A: 255})
		}
	}

	for _, m := range ValidMethods() {
		for _, k := range []int{1, 3, 8, 16} {
			p, err := Extract(img, configFor(m, k))
			if err != nil {
				t.Fatalf("%s k=%d: Extract() error: %v", m, k, err)
			}
			if p.Len() > k {
				t.Errorf("%s k=%d: Len() = %d, want <= k", m, k, p.Len())
			}
			total := 0.0
			for i, e := range p.Entries {
				if e.Prevalence < 0 || e.Prevalence > 1 {
					t.Errorf("%s k=%d: prevalence %v out of range", m, k, e.Prevalence)
				}
				if i > 0 && e.Prevalence > p.Entries[i-1].Prevalence {
					t.Errorf("%s k=%d: entries not sorted by prevalence", m, k)
				}
				total += e.Prevalence
			}
			if total > 1.0+1e-9 {
				t.Errorf("%s k=%d: prevalence sum = %v, want <= 1", m, k, total)
			}
		}
	}
}

func TestExtractFewerColoursThanK(t *testing.T) {
	img := stripedImage(10, 9, red, green, blue)

	for _, m := range []Method{MethodHistogram, MethodKMeans} {
		p, err := Extract(img, configFor(m, 8))
		if err != nil {
			t.Fatalf("%s: Extract() error: %v", m, err)
		}
		if p.Len() != 3 {
			t.Errorf("%s: Len() = %d, want 3", m, p.Len())
		}
		for _, e := range p.Entries {
			if math.Abs(e.Prevalence-1.0/3.0) > 1e-9 {
				t.Errorf("%s: %s prevalence = %v, want 1/3", m, e.Hex, e.Prevalence)
			}
		}
	}
}

func TestPixelsFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{})

	pixels := PixelsFromImage(img)
	if len(pixels) != 2 {
		t.Fatalf("len = %d, want 2", len(pixels))
	}
	if pixels[0] != red {
		t.Errorf("pixel 0 = %+v, want %+v", pixels[0], red)
	}
	if pixels[1].A != 0 {
		t.Errorf("pixel 1 alpha = %d, want 0", pixels[1].A)
	}

	sub := stripedImage(4, 4, red, blue).SubImage(image.Rect(1, 1, 3, 3))
	pixels = PixelsFromImage(sub)
	if len(pixels) != 4 {
		t.Fatalf("sub-image len = %d, want 4", len(pixels))
	}
	if pixels[0] != blue || pixels[2] != red {
		t.Errorf("sub-image pixels = %+v", pixels)
	}
}
