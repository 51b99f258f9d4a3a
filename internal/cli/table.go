package cli

import (
	"strings"
)

// Alignment controls how a column's cells are padded.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table renders rows in columns sized to their widest cell. Widths ignore
// ANSI escape sequences so colour swatches can sit in a column.
type Table struct {
	headers []string
	rows    [][]string
	align   map[int]Alignment
	padding int
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		align:   make(map[int]Alignment),
		padding: 2,
	}
}

// SetAlignment sets the alignment of column col.
func (t *Table) SetAlignment(col int, a Alignment) {
	t.align[col] = a
}

// AddRow adds a row, padding or truncating it to the header count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render formats and returns the table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}

	var sb strings.Builder
	t.writeLine(&sb, t.headers, widths)

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	t.writeLine(&sb, sep, widths)

	for _, row := range t.rows {
		t.writeLine(&sb, row, widths)
	}
	return sb.String()
}

func (t *Table) writeLine(sb *strings.Builder, cells []string, widths []int) {
	gap := strings.Repeat(" ", t.padding)
	parts := make([]string, len(cells))
	for i, cell := range cells {
		fill := strings.Repeat(" ", widths[i]-displayWidth(cell))
		if t.align[i] == AlignRight {
			parts[i] = fill + cell
		} else {
			parts[i] = cell + fill
		}
	}
	sb.WriteString(strings.TrimRight(strings.Join(parts, gap), " "))
	sb.WriteByte('\n')
}

// displayWidth returns the number of runes in s outside ANSI CSI sequences.
func displayWidth(s string) int {
	width := 0
	inEscape := false
	for i, r := range s {
		switch {
		case inEscape:
			if r >= '@' && r <= '~' && s[i-1] != '\033' {
				inEscape = false
			}
		case r == '\033':
			inEscape = true
		default:
			width++
		}
	}
	return width
}
