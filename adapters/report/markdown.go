// Package report renders analysis results as Markdown and HTML documents.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"trialstats/domain/trial"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// TableSource is what the renderer needs from a table.
type TableSource interface {
	Columns() []string
	Len() int
	Row(i int) []trial.Value
}

// Section is one heading with optional prose and an optional table.
type Section struct {
	Heading string
	Text    string
	Table   TableSource
}

// Document is a titled list of sections.
type Document struct {
	Title    string
	Sections []Section
	// Precision is the number of decimals shown for fractional numbers.
	Precision int
}

// NewDocument starts a document with two-decimal precision.
func NewDocument(title string) *Document {
	return &Document{Title: title, Precision: 2}
}

// Add appends a section and returns the document for chaining.
func (d *Document) Add(heading, text string, table TableSource) *Document {
	d.Sections = append(d.Sections, Section{Heading: heading, Text: text, Table: table})
	return d
}

// Markdown renders the document as GitHub-style Markdown.
func (d *Document) Markdown() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", d.Title)
	for _, s := range d.Sections {
		fmt.Fprintf(&buf, "## %s\n\n", s.Heading)
		if s.Text != "" {
			buf.WriteString(strings.TrimSpace(s.Text))
			buf.WriteString("\n\n")
		}
		if s.Table != nil {
			d.writeTable(&buf, s.Table)
			buf.WriteString("\n")
		}
	}
	return buf.Bytes()
}

// HTML renders the document as a complete HTML page.
func (d *Document) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: d.Title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(p.Parse(d.Markdown()), renderer)
}

func (d *Document) writeTable(buf *bytes.Buffer, t TableSource) {
	columns := t.Columns()
	if len(columns) == 0 {
		buf.WriteString("_no columns_\n")
		return
	}

	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = escapeCell(c)
	}
	writeRow(buf, cells)

	for i := range cells {
		cells[i] = "---"
	}
	writeRow(buf, cells)

	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			cells[j] = escapeCell(d.formatValue(v))
		}
		writeRow(buf, cells)
	}
}

func writeRow(buf *bytes.Buffer, cells []string) {
	buf.WriteString("| ")
	buf.WriteString(strings.Join(cells, " | "))
	buf.WriteString(" |\n")
}

func (d *Document) formatValue(v trial.Value) string {
	f, ok := v.Float()
	if !ok {
		return v.String()
	}
	s := strconv.FormatFloat(f, 'f', d.Precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
