package hclust

import (
	"math"
	"math/rand"
	"testing"

	"github.com/TrevorS/hclust/errors"
)

func lineData(t *testing.T, values ...float64) *Dataset {
	t.Helper()
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	d, err := NewDataset(rows, EuclideanMetric{})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return d
}

func TestSingleLink(t *testing.T) {
	data := lineData(t, 1, 2, 10, 11)
	got := SingleLink{}.Distance(NewCluster(0, 1), NewCluster(2, 3), data)
	if !almostEqual(got, 8, floatTol) {
		t.Errorf("got %v, want 8", got)
	}
}

func TestAverageLink(t *testing.T) {
	data := lineData(t, 1, 2, 10, 11)
	// (9 + 10 + 8 + 9) / 4 = 9
	got := AverageLink{}.Distance(NewCluster(0, 1), NewCluster(2, 3), data)
	if !almostEqual(got, 9, floatTol) {
		t.Errorf("got %v, want 9", got)
	}
}

func TestLinkage_Symmetric(t *testing.T) {
	data := lineData(t, 0, 3, 7, 8, 20)
	c1, c2 := NewCluster(0, 2), NewCluster(1, 3, 4)
	for _, l := range []Linkage{SingleLink{}, AverageLink{}} {
		if a, b := l.Distance(c1, c2, data), l.Distance(c2, c1, data); !almostEqual(a, b, floatTol) {
			t.Errorf("%s: %v != %v", l.Name(), a, b)
		}
	}
}

func TestLinkage_SingleNeverExceedsAverage(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rows := make([][]float64, 30)
	for i := range rows {
		rows[i] = []float64{rng.Float64() * 10, rng.Float64() * 10}
	}
	data, _ := NewDataset(rows, nil)

	for trial := 0; trial < 200; trial++ {
		c1, c2 := NewCluster(), NewCluster()
		for i := 0; i < len(rows); i++ {
			switch rng.Intn(3) {
			case 0:
				c1.Add(i)
			case 1:
				c2.Add(i)
			}
		}
		if c1.Size() == 0 || c2.Size() == 0 {
			continue
		}
		s := SingleLink{}.Distance(c1, c2, data)
		a := AverageLink{}.Distance(c1, c2, data)
		if s > a+floatTol {
			t.Fatalf("trial %d: single %v > average %v", trial, s, a)
		}
	}
}

func TestSingleLink_EmptyClusterIsMaxFloat(t *testing.T) {
	data := lineData(t, 1, 2)
	if got := (SingleLink{}).Distance(NewCluster(), NewCluster(1), data); got != math.MaxFloat64 {
		t.Errorf("got %v, want MaxFloat64", got)
	}
}

func TestLinkageByName(t *testing.T) {
	if l, err := LinkageByName("Single"); err != nil || l.Name() != "single" {
		t.Errorf("single: %v %v", l, err)
	}
	if l, err := LinkageByName("average"); err != nil || l.Name() != "average" {
		t.Errorf("average: %v %v", l, err)
	}
	if _, err := LinkageByName("ward"); err == nil {
		t.Error("expected error for ward")
	}
}

func TestLinkageByMode(t *testing.T) {
	if l, _ := LinkageByMode(LinkModeSingle); l != (SingleLink{}) {
		t.Errorf("mode 1 gave %#v", l)
	}
	if l, _ := LinkageByMode(LinkModeAverage); l != (AverageLink{}) {
		t.Errorf("mode 2 gave %#v", l)
	}
	if _, err := LinkageByMode(3); err == nil {
		t.Error("expected error for mode 3")
	}
}

func TestNameResolutionErrorsCarryStack(t *testing.T) {
	_, lerr := LinkageByName("ward")
	_, merr := LinkageByMode(9)
	_, derr := MetricByName("minkowski:0.5")
	_, cerr := NewMiner(Config{Depth: -1})
	for _, err := range []error{lerr, merr, derr, cerr} {
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.GetStack(err) == nil {
			t.Errorf("%v: no stack trace attached", err)
		}
	}
}
