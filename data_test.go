package hclust

import (
	"errors"
	"math"
	"testing"
)

func TestNewDataset(t *testing.T) {
	rows := [][]float64{{0, 0}, {3, 4}}
	d, err := NewDataset(rows, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Count() != 2 || d.Dims() != 2 {
		t.Fatalf("Count=%d Dims=%d, want 2 and 2", d.Count(), d.Dims())
	}
	if _, ok := d.Metric().(EuclideanMetric); !ok {
		t.Errorf("nil metric should default to Euclidean, got %T", d.Metric())
	}
	if got := d.Distance(0, 1); !almostEqual(got, 5, floatTol) {
		t.Errorf("Distance(0,1) = %v, want 5", got)
	}

	// The dataset owns a copy of the rows.
	rows[1][0] = 100
	if d.Get(1)[0] != 3 {
		t.Error("dataset aliases caller rows")
	}
}

func TestNewDataset_Empty(t *testing.T) {
	_, err := NewDataset(nil, nil)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestNewDataset_Ragged(t *testing.T) {
	_, err := NewDataset([][]float64{{1, 2}, {3}}, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNewDataset_NonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := NewDataset([][]float64{{1, 2}, {3, v}}, nil)
		if !errors.Is(err, ErrNonNumericAttribute) {
			t.Errorf("%v: expected ErrNonNumericAttribute, got %v", v, err)
		}
	}
}

func TestExampleString(t *testing.T) {
	if got := (Example{1, 2.5, -3}).String(); got != "1,2.5,-3" {
		t.Errorf("got %q", got)
	}
}

func TestDatasetString(t *testing.T) {
	d, _ := NewDataset([][]float64{{1}, {2}}, nil)
	if got, want := d.String(), "0:1\n1:2\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
