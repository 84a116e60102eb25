// Package dataset reads and writes tab-separated event tables.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is a header plus rows of string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of a column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// EnsureColumn returns the index of name, appending an empty column if it
// does not exist yet.
func (t *Table) EnsureColumn(name string) int {
	if idx := t.Index(name); idx >= 0 {
		return idx
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Header) - 1
}

// ReadTable parses a tab-separated table with a header row. Short rows are
// padded to the header width.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("table is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.Rows)+2, err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", len(t.Rows)+2, len(record), len(header))
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// WriteTable writes t as tab-separated values.
func WriteTable(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadTable reads a table from path.
func LoadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only table.
			_ = cerr
		}
	}()
	return ReadTable(file)
}

// SaveTable writes a table to path through a temporary file so readers never
// see a partial file.
func SaveTable(path string, t *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "gazetag-*.tsv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := WriteTable(writer, t); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close table: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}
