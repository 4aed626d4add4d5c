// Package ui - Terminal user interface
// Rich CLI output with tables, bar charts, and colors.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Colors for terminal output
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Writer is the UI output destination
type Writer struct {
	out       io.Writer
	noColor   bool
	verbosity int
}

// NewWriter creates a UI writer
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		out:       out,
		noColor:   noColor,
		verbosity: 1,
	}
}

// SetVerbosity sets output verbosity (0=quiet, 1=normal, 2=verbose)
func (w *Writer) SetVerbosity(level int) {
	w.verbosity = level
}

// color applies color if enabled
func (w *Writer) color(c, text string) string {
	if w.noColor {
		return text
	}
	return c + text + Reset
}

// Print writes a line
func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line with newline
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Header prints a section header
func (w *Writer) Header(title string) {
	w.Println("")
	w.Println("%s", w.color(Bold+Cyan, "━━━ "+title+" ━━━"))
	w.Println("")
}

// SubHeader prints a subsection header
func (w *Writer) SubHeader(title string) {
	w.Println("%s", w.color(Bold, "▸ "+title))
}

// Success prints a success message
func (w *Writer) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.color(Green, "✓ "), msg)
}

// Warning prints a warning
func (w *Writer) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.color(Yellow, "⚠ "), msg)
}

// Error prints an error
func (w *Writer) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.color(Red, "✗ "), msg)
}

// Info prints an info message
func (w *Writer) Info(format string, args ...interface{}) {
	if w.verbosity < 1 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.color(Blue, "ℹ "), msg)
}

// Debug prints a debug message
func (w *Writer) Debug(format string, args ...interface{}) {
	if w.verbosity < 2 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.Println("%s", w.color(Dim, "  "+msg))
}

// Table renders a table
type Table struct {
	w       *Writer
	headers []string
	rows    [][]string
	widths  []int
	right   map[int]bool
}

// NewTable creates a table
func (w *Writer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &Table{
		w:       w,
		headers: headers,
		rows:    [][]string{},
		widths:  widths,
		right:   make(map[int]bool),
	}
}

// AlignRight right-aligns the given columns, for numbers
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	// Pad or truncate cells to match header count
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := utf8.RuneCountInString(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows added
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) line(cells []string) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(" │ ")
		}
		pad := strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell))
		if t.right[i] {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Render prints the table
func (t *Table) Render() {
	t.w.Println("%s", t.w.color(Bold, t.line(t.headers)))

	// Separator
	parts := make([]string, len(t.widths))
	for i, w := range t.widths {
		parts[i] = strings.Repeat("─", w)
	}
	t.w.Println("%s", strings.Join(parts, "─┼─"))

	for _, row := range t.rows {
		t.w.Println("%s", t.line(row))
	}
}

// Bar is one labelled value of a bar chart
type Bar struct {
	Label string
	Value float64
	Text  string
}

// BarChart renders a horizontal bar chart scaled to the largest value
type BarChart struct {
	w     *Writer
	title string
	width int
	bars  []Bar
}

// NewBarChart creates a bar chart
func (w *Writer) NewBarChart(title string) *BarChart {
	return &BarChart{w: w, title: title, width: 40}
}

// Add appends a bar. text is printed after the bar; empty means the value.
func (c *BarChart) Add(label string, value float64, text string) {
	if text == "" {
		text = fmt.Sprintf("%g", value)
	}
	c.bars = append(c.bars, Bar{Label: label, Value: value, Text: text})
}

// Render prints the chart
func (c *BarChart) Render() {
	c.w.SubHeader(c.title)
	if len(c.bars) == 0 {
		c.w.Println("%s", c.w.color(Dim, "  (no data)"))
		return
	}

	labelWidth := 0
	peak := 0.0
	for _, b := range c.bars {
		if n := utf8.RuneCountInString(b.Label); n > labelWidth {
			labelWidth = n
		}
		if b.Value > peak {
			peak = b.Value
		}
	}

	for _, b := range c.bars {
		filled := 0
		if peak > 0 && b.Value > 0 {
			filled = int(b.Value / peak * float64(c.width))
			if filled == 0 {
				filled = 1
			}
		}
		pad := strings.Repeat(" ", labelWidth-utf8.RuneCountInString(b.Label))
		c.w.Println("  %s%s %s %s", b.Label, pad, c.w.color(Cyan, strings.Repeat("█", filled)), b.Text)
	}
}

// Summary renders the headline numbers of a query
type Summary struct {
	w       *Writer
	Matched int
	Shown   int
	Regions int
	SortBy  string
	Limit   string
}

// NewSummary creates a query summary
func (w *Writer) NewSummary() *Summary {
	return &Summary{w: w}
}

// Render prints the summary box
func (s *Summary) Render() {
	s.w.Header("Instance Pricing")

	s.w.Println("%s", s.w.color(Bold, "╭─────────────────────────────────────╮"))
	s.w.Println("%s", s.w.color(Bold, "│")+s.w.color(Green, fmt.Sprintf("  Matched:  %-25d", s.Matched))+s.w.color(Bold, "│"))
	s.w.Println("%s", s.w.color(Bold, "│")+s.w.color(Dim, fmt.Sprintf("  Shown:    %-25d", s.Shown))+s.w.color(Bold, "│"))
	s.w.Println("%s", s.w.color(Bold, "│")+s.w.color(Dim, fmt.Sprintf("  Regions:  %-25d", s.Regions))+s.w.color(Bold, "│"))
	s.w.Println("%s", s.w.color(Bold, "╰─────────────────────────────────────╯"))

	s.w.Println("%s", s.w.color(Dim, fmt.Sprintf("  Sorted by %s, limit %s", s.SortBy, s.Limit)))
	s.w.Println("")
}
