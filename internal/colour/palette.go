package colour

import (
	"cmp"
	"encoding/json"
	"fmt"
	"image/color"
	"iter"
	"math"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ToRGB converts a color.Color to RGB.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255]
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// Colorful returns the colour as a go-colorful Color.
func (rgb RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(rgb.R) / 255.0,
		G: float64(rgb.G) / 255.0,
		B: float64(rgb.B) / 255.0,
	}
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return rgb.Colorful().Hex()
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// HSL returns hue in degrees and saturation and lightness in [0, 1].
func (rgb RGB) HSL() (h, s, l float64) {
	return rgb.Colorful().Hsl()
}

// HSLString returns the colour in CSS "hsl(h, s%, l%)" notation.
func (rgb RGB) HSLString() string {
	h, s, l := rgb.HSL()
	return fmt.Sprintf("hsl(%.0f, %.0f%%, %.0f%%)", h, s*100, l*100)
}

// Entry is one colour of a palette and the share of sampled pixels it represents.
type Entry struct {
	Colour     RGB     `json:"rgb"`
	Hex        string  `json:"hex"`
	Prevalence float64 `json:"prevalence"`
	Count      int     `json:"count"`
}

// Palette is an ordered list of representative colours, most prevalent first.
type Palette struct {
	Entries []Entry
	Method  Method
	// Sampled is the number of pixels the prevalences are relative to.
	Sampled int
	// Excluded is the number of pixels dropped by the alpha threshold.
	Excluded int
	// Warning is set when no pixels could be sampled.
	Warning *EmptyResultWarning
}

// Len returns the number of colours in the palette.
func (p *Palette) Len() int {
	return len(p.Entries)
}

// IsEmpty reports whether the palette holds no colours.
func (p *Palette) IsEmpty() bool {
	return len(p.Entries) == 0
}

// Get returns the entry at the specified index.
func (p *Palette) Get(index int) (Entry, error) {
	if index < 0 || index >= len(p.Entries) {
		return Entry{}, fmt.Errorf("index out of bounds: %d (palette has %d colours)", index, len(p.Entries))
	}
	return p.Entries[index], nil
}

// All returns an iterator over the palette entries.
func (p *Palette) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range p.Entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Hex returns the palette colours as hex strings.
func (p *Palette) Hex() []string {
	out := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Hex
	}
	return out
}

// TotalPrevalence returns the sum of all entry prevalences.
func (p *Palette) TotalPrevalence() float64 {
	total := 0.0
	for _, e := range p.Entries {
		total += e.Prevalence
	}
	return total
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Method   Method  `json:"method"`
	Count    int     `json:"count"`
	Sampled  int     `json:"sampled"`
	Excluded int     `json:"excluded"`
	Empty    bool    `json:"empty"`
	Colours  []Entry `json:"colours"`
}

// ToJSON converts the palette to indented JSON.
func (p *Palette) ToJSON() ([]byte, error) {
	entries := p.Entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.MarshalIndent(PaletteJSON{
		Method:   p.Method,
		Count:    len(entries),
		Sampled:  p.Sampled,
		Excluded: p.Excluded,
		Empty:    len(entries) == 0,
		Colours:  entries,
	}, "", "  ")
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.Entries) == 0 {
		return "Empty palette"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Palette with %d colours:\n", len(p.Entries))
	for i, e := range p.Entries {
		fmt.Fprintf(&sb, "  %2d: %s %6.2f%% (%s)\n", i+1, e.Hex, e.Prevalence*100, e.Colour.String())
	}
	return sb.String()
}

// cluster is an intermediate colour with the number of samples behind it.
type cluster struct {
	colour RGB
	count  int
}

// newPalette ranks clusters into a palette of at most k entries.
// Clusters that share a colour are merged and empty clusters dropped.
func newPalette(method Method, clusters []cluster, sampled, k int) *Palette {
	merged := make(map[RGB]int, len(clusters))
	for _, c := range clusters {
		if c.count > 0 {
			merged[c.colour] += c.count
		}
	}

	entries := make([]Entry, 0, len(merged))
	for rgb, count := range merged {
		entries = append(entries, Entry{
			Colour:     rgb,
			Hex:        rgb.Hex(),
			Prevalence: float64(count) / float64(sampled),
			Count:      count,
		})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Hex, b.Hex)
	})
	if len(entries) > k {
		entries = entries[:k]
	}

	return &Palette{
		Entries: entries,
		Method:  method,
		Sampled: sampled,
	}
}

// roundChannel converts a channel mean to the nearest 8-bit value.
func roundChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
