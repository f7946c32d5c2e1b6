package hclust

import (
	"math"
	"strconv"
	"strings"

	"github.com/TrevorS/hclust/errors"
)

// Example is one numeric row of a dataset.
type Example []float64

// Distance returns the distance between e and other under m.
func (e Example) Distance(other Example, m DistanceMetric) float64 {
	return m.Distance(e, other)
}

// String renders the example as comma-separated values.
func (e Example) String() string {
	var b strings.Builder
	for i, v := range e {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return b.String()
}

// Data is a fixed, 0-indexed collection of examples. Distance(i, j) must be
// symmetric and non-negative, and all methods must be safe for concurrent
// readers since the closest-pair scan may run on several goroutines.
type Data interface {
	Count() int
	Get(i int) Example
	Distance(i, j int) float64
}

// Dataset is an in-memory Data backed by a row slice and a DistanceMetric.
type Dataset struct {
	rows   []Example
	dims   int
	metric DistanceMetric
}

// NewDataset copies rows into a Dataset. A nil metric defaults to
// EuclideanMetric. Returns ErrEmptyDataset for zero rows,
// ErrDimensionMismatch when rows differ in length and ErrNonNumericAttribute
// for NaN or infinite values.
func NewDataset(rows [][]float64, metric DistanceMetric) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	if metric == nil {
		metric = EuclideanMetric{}
	}

	dims := len(rows[0])
	examples := make([]Example, len(rows))
	for i, row := range rows {
		if len(row) != dims {
			return nil, errors.Wrapf(ErrDimensionMismatch, "row %d has %d values, want %d", i, len(row), dims)
		}
		for k, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Wrapf(ErrNonNumericAttribute, "row %d value %d is %v", i, k, v)
			}
		}
		examples[i] = append(Example(nil), row...)
	}

	return &Dataset{rows: examples, dims: dims, metric: metric}, nil
}

func (d *Dataset) Count() int { return len(d.rows) }

func (d *Dataset) Get(i int) Example { return d.rows[i] }

func (d *Dataset) Distance(i, j int) float64 {
	return d.rows[i].Distance(d.rows[j], d.metric)
}

// Dims returns the number of values per example.
func (d *Dataset) Dims() int { return d.dims }

// Metric returns the point metric used by Distance.
func (d *Dataset) Metric() DistanceMetric { return d.metric }

// String renders one example per line, prefixed by its index.
func (d *Dataset) String() string {
	var b strings.Builder
	for i, e := range d.rows {
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(':')
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
