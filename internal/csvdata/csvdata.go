// Package csvdata reads numeric CSV files as datasets.
package csvdata

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
)

// Options controls parsing.
type Options struct {
	// Header skips the first record.
	Header bool

	// Comma is the field delimiter. 0 means ','.
	Comma rune

	// Columns selects the fields to read, by zero-based position. Empty
	// means every field.
	Columns []int

	// Metric measures the resulting dataset. nil means Euclidean.
	Metric hclust.DistanceMetric
}

// Load reads the CSV file at path.
func Load(path string, opts Options) (*hclust.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("csv file %s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	data, err := Read(bufio.NewReader(f), opts)
	return data, errors.Wrapf(err, "%s", path)
}

// Read parses CSV records from r. Every selected cell must parse as a
// float; otherwise hclust.ErrNonNumericAttribute is returned. A source with
// no data records yields hclust.ErrEmptyDataset.
func Read(r io.Reader, opts Options) (*hclust.Dataset, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		rows   [][]float64
		header []string
		line   int
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse csv")
		}
		line++

		if line == 1 && opts.Header {
			header = append([]string(nil), record...)
			continue
		}

		cols := opts.Columns
		if len(cols) == 0 {
			cols = allColumns(len(record))
		}
		row := make([]float64, len(cols))
		for k, c := range cols {
			if c < 0 || c >= len(record) {
				return nil, errors.Wrapf(hclust.ErrDimensionMismatch, "line %d has no column %d", line, c)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[c]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Wrapf(hclust.ErrNonNumericAttribute, "line %d column %s: %q", line, columnName(header, c), record[c])
			}
			row[k] = v
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, hclust.ErrEmptyDataset
	}
	return hclust.NewDataset(rows, opts.Metric)
}

func allColumns(n int) []int {
	cols := make([]int, n)
	for i := range cols {
		cols[i] = i
	}
	return cols
}

func columnName(header []string, c int) string {
	if c < len(header) && header[c] != "" {
		return strconv.Quote(header[c])
	}
	return strconv.Itoa(c)
}
