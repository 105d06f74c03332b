package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformed wraps CSV syntax errors such as rows with the wrong number of
// fields.
var ErrMalformed = errors.New("malformed csv")

// HeaderAliases maps the column names of the public HR attrition export onto
// the canonical schema names. Any header not listed here is kept verbatim.
var HeaderAliases = map[string]string{
	"average_montly_hours": "average_monthly_hours",
	"Work_accident":        "work_accident",
	"sales":                "department",
	"Department":           "department",
}

// Dataset is a header plus string cells, as read from a delimited file.
type Dataset struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewDataset builds a Dataset from already split cells.
func NewDataset(columns []string, rows [][]string) *Dataset {
	d := &Dataset{Columns: columns, Rows: rows}
	d.index = make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := d.index[c]; !dup {
			d.index[c] = i
		}
	}
	return d
}

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Has reports whether the named column exists.
func (d *Dataset) Has(col string) bool {
	_, ok := d.index[col]
	return ok
}

// Index returns the position of the named column, or -1.
func (d *Dataset) Index(col string) int {
	if i, ok := d.index[col]; ok {
		return i
	}
	return -1
}

// ReadCSV parses a comma separated file with a header row. An input with no
// header at all yields an empty Dataset rather than an error so validation can
// report it as an empty dataset.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return NewDataset(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if canonical, ok := HeaderAliases[h]; ok {
			h = canonical
		}
		columns[i] = h
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		rows = append(rows, rec)
	}
	return NewDataset(columns, rows), nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}
