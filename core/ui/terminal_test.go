package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterNoColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Success("wrote %d rows", 3)
	w.Warning("careful")
	w.Error("failed: %s", "boom")

	out := buf.String()
	assert.Contains(t, out, "✓ wrote 3 rows\n")
	assert.Contains(t, out, "⚠ careful\n")
	assert.Contains(t, out, "✗ failed: boom\n")
	assert.NotContains(t, out, "\033[")
}

func TestWriterColor(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, false).Success("ok")
	assert.Contains(t, buf.String(), Green)
	assert.Contains(t, buf.String(), Reset)
}

func TestWriterPercentInMessage(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, true).Info("rate %s", "50%")
	assert.Equal(t, "ℹ rate 50%\n", buf.String())
}

func TestWriterVerbosity(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Debug("hidden")
	assert.Empty(t, buf.String())

	w.SetVerbosity(2)
	w.Debug("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	w.SetVerbosity(0)
	w.Info("quiet")
	assert.Empty(t, buf.String())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("ID", "Category", "Brand")
	table.AddRow("1", "beauty", "Essence")
	table.AddRow("12", "fragrances")
	table.Render()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID │ Category   │ Brand", lines[0])
	assert.Equal(t, "───┼─" + strings.Repeat("─", 10) + "─┼─" + strings.Repeat("─", 7), lines[1])
	assert.Equal(t, "1  │ beauty     │ Essence", lines[2])
	assert.Equal(t, "12 │ fragrances │", lines[3])
	assert.Equal(t, 2, table.Len())
}

func TestEnrichmentSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	s := w.NewEnrichmentSummary()
	s.Total = 10
	s.Matched = 4
	s.Unmatched = 6
	s.MatchRate = 0.4
	s.Revenue = "1250.00"
	s.CatalogSize = 30
	s.Location = "data/enriched_sales_data.txt"
	s.Duration = 2 * time.Second
	s.Render()

	out := buf.String()
	assert.Contains(t, out, "Enrichment Summary")
	assert.Contains(t, out, "Transactions: 10")
	assert.Contains(t, out, "Revenue:      1250.00")
	assert.Contains(t, out, "○ Match rate: 40% (4/10)")
	assert.Contains(t, out, "Catalog products: 30")
	assert.Contains(t, out, "Report: data/enriched_sales_data.txt")
	assert.Contains(t, out, "Took: 2s")
	assert.Contains(t, out, "6 transactions had no catalog match")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "< 1s", formatDuration(300*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m 5s", formatDuration(125*time.Second))
}
