package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
)

// CSVPath appends the .csv extension when path does not already carry it.
func CSVPath(path string) string {
	if strings.HasSuffix(path, ".csv") {
		return path
	}
	return path + ".csv"
}

// Load reads the CSV table at path (".csv" appended if absent).
// Returns an error wrapping analysis.ErrNotFound when the file does not exist
// and analysis.ErrParse when its content is malformed.
func Load(path string) (*Table, error) {
	path = CSVPath(path)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: table %s", analysis.ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only file

	t, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", path, err)
	}
	logrus.Debugf("loaded %s: %d rows, %d columns", path, t.Rows(), len(t.cols))
	return t, nil
}

// Read parses a header row followed by records. Every record must have as many
// fields as the header. A column is numeric when all of its non-empty cells
// parse as floats; empty cells and NaN are missing.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file, no header row", analysis.ErrParse)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %w", analysis.ErrParse, err)
	}
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			return nil, fmt.Errorf("%w: header column %d is empty", analysis.ErrParse, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate header column %q", analysis.ErrParse, name)
		}
		seen[name] = true
		header[i] = name
	}

	var records [][]string
	for rowIdx := 2; ; rowIdx++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: CSV row %d: %w", analysis.ErrParse, rowIdx, err)
		}
		records = append(records, record)
	}

	t := New(len(records))
	for j, name := range header {
		t.put(parseColumn(name, j, records))
	}
	return t, nil
}

func parseColumn(name string, j int, records [][]string) *Column {
	nums := newColumn(name, Numeric, len(records))
	for i, record := range records {
		cell := strings.TrimSpace(record[j])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return parseTextColumn(name, j, records)
		}
		nums.SetFloat(i, v)
	}
	return nums
}

func parseTextColumn(name string, j int, records [][]string) *Column {
	c := newColumn(name, Text, len(records))
	for i, record := range records {
		if cell := strings.TrimSpace(record[j]); cell != "" {
			c.SetText(i, cell)
		}
	}
	return c
}

// Write emits the table as CSV with a header row. Missing cells are empty.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Names()); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	row := make([]string, len(t.cols))
	for i := 0; i < t.rows; i++ {
		for j, c := range t.cols {
			row[j], _ = c.Text(i)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Save writes the table to path, creating or truncating the file.
func (t *Table) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := t.Write(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}
