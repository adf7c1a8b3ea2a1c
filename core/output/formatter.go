// Package output provides report formatting and the sink interface.
// This package produces the enriched sales report.
package output

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"sales-enrich/core/sales"
	"sales-enrich/internal/errors"
)

// Header is the literal first line of every pipe report
const Header = "TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region|API_Category|API_Brand|API_Rating|API_Match"

// Format represents output format type
type Format string

const (
	// FormatPipe is the fixed 12-column pipe-delimited report
	FormatPipe Format = "pipe"

	// FormatJSON is a JSON array of enriched rows
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes rows to w
	Render(w io.Writer, rows []sales.EnrichedTransaction) error
}

// NewFormatter returns the formatter for f
func NewFormatter(f Format) (Formatter, error) {
	switch f {
	case FormatPipe, "":
		return PipeFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{Indent: "  "}, nil
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported output format: %q", f)
	}
}

// PipeFormatter writes the pipe-delimited report
type PipeFormatter struct{}

// Format returns FormatPipe
func (PipeFormatter) Format() Format { return FormatPipe }

// Render writes the report
func (PipeFormatter) Render(w io.Writer, rows []sales.EnrichedTransaction) error {
	return WriteReport(w, rows)
}

// WriteReport writes Header and one line per row, each terminated by "\n".
// Field values are written verbatim; an embedded "|" shifts the columns of that line.
func WriteReport(w io.Writer, rows []sales.EnrichedTransaction) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := bw.WriteString(FormatLine(row) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatLine renders a single row without the trailing newline
func FormatLine(row sales.EnrichedTransaction) string {
	fields := append(row.Fields(),
		row.APICategory,
		row.APIBrand,
		FormatRating(row.APIRating),
		FormatMatch(row.APIMatch),
	)
	return strings.Join(fields, "|")
}

// FormatRating renders a rating in shortest form, keeping ".0" on whole numbers.
// nil renders as "".
func FormatRating(r *float64) string {
	if r == nil {
		return ""
	}
	s := strconv.FormatFloat(*r, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// FormatMatch renders the match flag as True or False
func FormatMatch(m bool) string {
	if m {
		return "True"
	}
	return "False"
}

// JSONFormatter writes rows as a JSON array
type JSONFormatter struct {
	Indent string
}

// Format returns FormatJSON
func (JSONFormatter) Format() Format { return FormatJSON }

// Render writes the rows
func (f JSONFormatter) Render(w io.Writer, rows []sales.EnrichedTransaction) error {
	if rows == nil {
		rows = []sales.EnrichedTransaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	return enc.Encode(rows)
}
