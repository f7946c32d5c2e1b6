package hclust

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/TrevorS/hclust/errors"
)

// DistanceMetric measures the distance between two examples of equal length.
// Implementations must be safe for concurrent use.
type DistanceMetric interface {
	Distance(a, b []float64) float64
}

// DistanceFunc adapts a plain function into a DistanceMetric.
type DistanceFunc func(a, b []float64) float64

func (f DistanceFunc) Distance(a, b []float64) float64 { return f(a, b) }

// EuclideanMetric computes the Euclidean (L2) distance.
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// ManhattanMetric computes the Manhattan (L1 / city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// ChebyshevMetric computes the Chebyshev (L-infinity) distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// CosineMetric computes the cosine distance: 1 - cosine_similarity.
// For two zero vectors, the result is NaN (0/0).
type CosineMetric struct{}

func (CosineMetric) Distance(a, b []float64) float64 {
	return 1.0 - floats.Dot(a, b)/(floats.Norm(a, 2)*floats.Norm(b, 2))
}

// MinkowskiMetric computes the Minkowski distance parameterized by P.
// P must be >= 1. Panics if P < 1.
type MinkowskiMetric struct {
	P float64
}

func (m MinkowskiMetric) Distance(a, b []float64) float64 {
	if m.P < 1 {
		panic("MinkowskiMetric: P must be >= 1")
	}
	return floats.Distance(a, b, m.P)
}

// MetricName returns the configuration name of a built-in metric, or the
// Go type name for anything else.
func MetricName(m DistanceMetric) string {
	switch v := m.(type) {
	case EuclideanMetric:
		return "euclidean"
	case ManhattanMetric:
		return "manhattan"
	case ChebyshevMetric:
		return "chebyshev"
	case CosineMetric:
		return "cosine"
	case MinkowskiMetric:
		return fmt.Sprintf("minkowski:%g", v.P)
	default:
		return fmt.Sprintf("%T", m)
	}
}

// MetricByName resolves a configuration string into a metric. Minkowski takes
// its exponent after a colon, e.g. "minkowski:3".
func MetricByName(name string) (DistanceMetric, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "euclidean", "l2":
		return EuclideanMetric{}, nil
	case "manhattan", "l1", "cityblock":
		return ManhattanMetric{}, nil
	case "chebyshev", "linf":
		return ChebyshevMetric{}, nil
	case "cosine":
		return CosineMetric{}, nil
	}
	if p, ok := strings.CutPrefix(name, "minkowski:"); ok {
		var exp float64
		if _, err := fmt.Sscanf(p, "%g", &exp); err != nil {
			return nil, errors.Newf("hclust: invalid minkowski exponent %q", p)
		}
		if exp < 1 {
			return nil, errors.Newf("hclust: minkowski exponent must be >= 1, got %g", exp)
		}
		return MinkowskiMetric{P: exp}, nil
	}
	return nil, errors.Newf("hclust: unknown metric %q", name)
}
