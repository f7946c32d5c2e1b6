package hclust

import (
	"math"
	"strings"

	"github.com/TrevorS/hclust/errors"
)

// Linkage scores how close two clusters are. Implementations hold no
// per-call state, so a single value may be shared by concurrent miners.
type Linkage interface {
	Distance(c1, c2 *Cluster, data Data) float64
	Name() string
}

// SingleLink is the minimum distance over all cross-cluster example pairs.
type SingleLink struct{}

func (SingleLink) Distance(c1, c2 *Cluster, data Data) float64 {
	minDist := math.MaxFloat64
	for _, i := range c1.indices {
		for _, j := range c2.indices {
			if d := data.Distance(i, j); d < minDist {
				minDist = d
			}
		}
	}
	return minDist
}

func (SingleLink) Name() string { return "single" }

// AverageLink is the mean distance over all cross-cluster example pairs.
// Both clusters must be non-empty.
type AverageLink struct{}

func (AverageLink) Distance(c1, c2 *Cluster, data Data) float64 {
	var sum float64
	for _, i := range c1.indices {
		for _, j := range c2.indices {
			sum += data.Distance(i, j)
		}
	}
	return sum / float64(c1.Size()*c2.Size())
}

func (AverageLink) Name() string { return "average" }

// Link modes used by the session protocol.
const (
	LinkModeSingle  = 1
	LinkModeAverage = 2
)

// LinkageByName resolves "single" or "average".
func LinkageByName(name string) (Linkage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "single", "single-link", "single_link", "min":
		return SingleLink{}, nil
	case "average", "average-link", "average_link", "avg", "mean":
		return AverageLink{}, nil
	default:
		return nil, errors.Newf("hclust: unknown linkage %q", name)
	}
}

// LinkageByMode resolves a numeric link mode (1 single, 2 average).
func LinkageByMode(mode int) (Linkage, error) {
	switch mode {
	case LinkModeSingle:
		return SingleLink{}, nil
	case LinkModeAverage:
		return AverageLink{}, nil
	default:
		return nil, errors.Newf("hclust: unknown link mode %d", mode)
	}
}
