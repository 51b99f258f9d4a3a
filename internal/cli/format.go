package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jmylchreest/swatch/internal/colour"
)

// Output formats accepted by --format.
const (
	FormatHex   = "hex"
	FormatRGB   = "rgb"
	FormatHSL   = "hsl"
	FormatJSON  = "json"
	FormatTable = "table"
)

const previewWidth = 8

func validFormats() []string {
	return []string{FormatHex, FormatRGB, FormatHSL, FormatJSON, FormatTable}
}

func parseFormat(s string) (string, error) {
	f := strings.ToLower(s)
	if !slices.Contains(validFormats(), f) {
		return "", &colour.ConfigurationError{
			Field:  "format",
			Value:  s,
			Reason: fmt.Sprintf("valid formats are %v", validFormats()),
		}
	}
	return f, nil
}

// formatPalette renders a palette in one of the text formats.
func formatPalette(p *colour.Palette, format string, preview bool) (string, error) {
	switch format {
	case FormatHex:
		if preview {
			return formatLines(p, false, func(rgb colour.RGB) string {
				return colour.FormatColourWithPreview(rgb, previewWidth)
			}), nil
		}
		return formatLines(p, false, colour.RGB.Hex), nil
	case FormatRGB:
		return formatLines(p, preview, colour.RGB.String), nil
	case FormatHSL:
		return formatLines(p, preview, colour.RGB.HSLString), nil
	case FormatTable:
		return formatTable(p, preview), nil
	case FormatJSON:
		data, err := p.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatLines(p *colour.Palette, preview bool, text func(colour.RGB) string) string {
	var sb strings.Builder
	for _, e := range p.All() {
		if preview {
			sb.WriteString(colour.ColourPreview(e.Colour, previewWidth))
			sb.WriteByte(' ')
		}
		sb.WriteString(text(e.Colour))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// formatTable renders one row per entry. With preview the rank is drawn on
// a swatch of the entry's colour.
func formatTable(p *colour.Palette, preview bool) string {
	table := NewTable("#", "HEX", "RGB", "HSL", "SHARE", "PIXELS")
	table.SetAlignment(0, AlignRight)
	table.SetAlignment(4, AlignRight)
	table.SetAlignment(5, AlignRight)

	for i, e := range p.All() {
		rank := strconv.Itoa(i + 1)
		if preview {
			rank = colour.ColourPreviewWithText(e.Colour, rank, 4)
		}
		table.AddRow(
			rank,
			e.Hex,
			e.Colour.String(),
			e.Colour.HSLString(),
			fmt.Sprintf("%.2f%%", e.Prevalence*100),
			strconv.Itoa(e.Count),
		)
	}
	return table.Render()
}

// sourcePalette pairs a palette with the input it came from when several
// inputs are written as one JSON document.
type sourcePalette struct {
	Source  string          `json:"source"`
	Palette json.RawMessage `json:"palette"`
}

func formatJSONSet(sources []string, palettes []*colour.Palette) (string, error) {
	set := make([]sourcePalette, 0, len(palettes))
	for i, p := range palettes {
		data, err := p.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		set = append(set, sourcePalette{Source: sources[i], Palette: data})
	}
	out, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to convert to JSON: %w", err)
	}
	return string(out) + "\n", nil
}
