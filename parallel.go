package hclust

import (
	"math"
	"sync"
)

// parallelMinClusters is the smallest set size for which ClosestPairParallel
// spawns goroutines; below it the sequential scan is used.
const parallelMinClusters = 64

// Pair is a candidate merge: positions I < J and their linkage distance.
type Pair struct {
	I, J     int
	Distance float64
}

// ClosestPair scans all pairs (i, j), i < j, in row-major order and returns
// the first pair whose distance is strictly smaller than every pair scanned
// before it. Later pairs with an equal distance never displace it. When no
// distance is smaller than +Inf (e.g. all NaN), the first pair (0, 1) is
// returned. clusters must hold at least two entries.
func ClosestPair(clusters []*Cluster, linkage Linkage, data Data) Pair {
	return scanRows(clusters, linkage, data, 0, len(clusters)-1)
}

// scanRows scans the rows [start, end) of the pair triangle.
func scanRows(clusters []*Cluster, linkage Linkage, data Data, start, end int) Pair {
	best := Pair{I: start, J: start + 1, Distance: math.Inf(1)}
	n := len(clusters)
	for i := start; i < end; i++ {
		for j := i + 1; j < n; j++ {
			d := linkage.Distance(clusters[i], clusters[j], data)
			if d < best.Distance {
				best = Pair{I: i, J: j, Distance: d}
			}
		}
	}
	return best
}

// ClosestPairParallel computes ClosestPair using multiple goroutines. Each
// worker handles a contiguous range of rows and the per-range minima are
// reduced in row order with the same strict comparison, so the result is
// identical to ClosestPair. Falls back to ClosestPair if numWorkers <= 1 or
// the set is small.
func ClosestPairParallel(clusters []*Cluster, linkage Linkage, data Data, numWorkers int) Pair {
	n := len(clusters)
	if numWorkers <= 1 || n < parallelMinClusters {
		return ClosestPair(clusters, linkage, data)
	}

	rows := n - 1
	rowsPerWorker := (rows + numWorkers - 1) / numWorkers
	results := make([]Pair, 0, numWorkers)
	for w := 0; w < numWorkers; w++ {
		if w*rowsPerWorker >= rows {
			break
		}
		results = append(results, Pair{})
	}

	var wg sync.WaitGroup
	for w := range results {
		startRow := w * rowsPerWorker
		endRow := min(startRow+rowsPerWorker, rows)

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			results[w] = scanRows(clusters, linkage, data, start, end)
		}(w, startRow, endRow)
	}
	wg.Wait()

	best := results[0]
	for _, r := range results[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best
}
