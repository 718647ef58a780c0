package extraction

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inferloop/datasynth/pkg/errors"
)

// Table is a fully loaded tabular dataset. Extractors operate on a
// loaded table so a file-backed source is read exactly once per run.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ColumnValues returns the values of column i, skipping short rows.
func (t *Table) ColumnValues(i int) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if i < len(row) {
			values = append(values, row[i])
		}
	}
	return values
}

// DataSource supplies tabular data to the extraction pipeline. Parsing
// of the underlying format lives here; extractors only see a Table.
type DataSource interface {
	// Name identifies the source table.
	Name() string
	// Load materializes the source into a Table.
	Load() (*Table, error)
}

// CSVSource reads a delimited text file from disk.
type CSVSource struct {
	Path       string
	Delimiter  rune
	HasHeaders bool
}

// NewCSVSource creates a source for a comma-delimited file with a
// header row.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{
		Path:       path,
		Delimiter:  ',',
		HasHeaders: true,
	}
}

func (s *CSVSource) Name() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *CSVSource) Load() (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to open %s", s.Path))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = s.Delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to parse %s", s.Path))
	}

	table := &Table{Name: s.Name()}
	if len(records) == 0 {
		return table, nil
	}
	if s.HasHeaders {
		table.Columns = records[0]
		table.Rows = records[1:]
	} else {
		table.Columns = make([]string, len(records[0]))
		for i := range table.Columns {
			table.Columns[i] = fmt.Sprintf("column_%d", i)
		}
		table.Rows = records
	}
	return table, nil
}

// MemorySource wraps an already materialized table.
type MemorySource struct {
	TableName string
	Columns   []string
	Rows      [][]string
}

// NewMemorySource creates an in-memory source.
func NewMemorySource(name string, columns []string, rows [][]string) *MemorySource {
	return &MemorySource{TableName: name, Columns: columns, Rows: rows}
}

func (s *MemorySource) Name() string {
	return s.TableName
}

func (s *MemorySource) Load() (*Table, error) {
	return &Table{Name: s.TableName, Columns: s.Columns, Rows: s.Rows}, nil
}
