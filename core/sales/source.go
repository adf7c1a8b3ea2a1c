package sales

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sales-enrich/internal/errors"
)

// LoadStats describes a completed load
type LoadStats struct {
	// Rows is the number of transactions returned
	Rows int

	// Skipped counts data lines whose field count did not match the header
	Skipped int

	// Columns is the header as read (delimited input only)
	Columns []string
}

const (
	fieldSeparator = "|"
	utf8BOM        = "\ufeff"
	maxLineBytes   = 1 << 20
)

// LoadFile reads transactions from path. Files ending in .json are decoded as a
// JSON array of records; everything else is read as pipe-delimited text.
func LoadFile(path string) ([]Transaction, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, errors.IO("failed to open sales data", err).WithContext("path", path)
	}
	defer f.Close()

	return Load(f, path)
}

// Load reads transactions from r, choosing the format from name's extension.
func Load(r io.Reader, name string) ([]Transaction, LoadStats, error) {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return LoadJSON(r)
	}
	return LoadDelimited(r)
}

// LoadDelimited reads a header line followed by pipe-delimited rows.
// Blank lines are ignored; rows with the wrong number of fields are skipped.
func LoadDelimited(r io.Reader) ([]Transaction, LoadStats, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		stats  LoadStats
		header []string
		txs    []Transaction
	)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if header == nil {
			line = strings.TrimPrefix(line, utf8BOM)
			header = splitFields(line)
			continue
		}

		fields := splitFields(line)
		if len(fields) != len(header) {
			stats.Skipped++
			continue
		}

		var tx Transaction
		for i, col := range header {
			tx.Set(col, fields[i])
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, errors.IO("failed to read sales data", err)
	}
	if header == nil {
		return nil, stats, errors.Input("sales data has no header line", nil)
	}

	stats.Rows = len(txs)
	stats.Columns = header
	return txs, stats, nil
}

// LoadJSON decodes a JSON array of transaction records.
func LoadJSON(r io.Reader) ([]Transaction, LoadStats, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, LoadStats{}, errors.Input("sales data is not a JSON array of records", err)
	}

	txs := make([]Transaction, 0, len(records))
	for _, rec := range records {
		txs = append(txs, TransactionFromRecord(rec))
	}
	return txs, LoadStats{Rows: len(txs)}, nil
}

func splitFields(line string) []string {
	fields := strings.Split(line, fieldSeparator)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
