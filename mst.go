package hclust

import (
	"math"
	"slices"
)

// Edge joins examples From and To of a spanning tree.
type Edge struct {
	From, To int
	Weight   float64
}

// SpanningTree computes a minimum spanning tree over the complete graph of
// data's examples using Prim's algorithm, evaluating distances on the fly in
// O(n) memory. Returns n-1 edges in the order their To node joined the tree;
// From is the tree node nearest to To at that moment.
func SpanningTree(data Data) []Edge {
	n := data.Count()
	if n <= 1 {
		return nil
	}

	inTree := make([]bool, n)
	currentDistances := make([]float64, n)
	currentSources := make([]int, n)
	for j := range currentDistances {
		currentDistances[j] = math.Inf(1)
	}

	currentNode := 0
	edges := make([]Edge, 0, n-1)
	for i := 1; i < n; i++ {
		inTree[currentNode] = true

		best := Edge{From: -1, To: -1, Weight: math.Inf(1)}
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if d := data.Distance(currentNode, j); d < currentDistances[j] {
				currentDistances[j] = d
				currentSources[j] = currentNode
			}
			if best.To < 0 || currentDistances[j] < best.Weight {
				best = Edge{From: currentSources[j], To: j, Weight: currentDistances[j]}
			}
		}

		edges = append(edges, best)
		currentNode = best.To
	}
	return edges
}

// SingleLinkHeights returns the n-1 single-link merge distances of data in
// ascending order, computed from the spanning tree in O(n²) distance
// evaluations. A full single-link dendrogram of data records exactly these
// distances, level by level.
func SingleLinkHeights(data Data) []float64 {
	edges := SpanningTree(data)
	heights := make([]float64, len(edges))
	for i, e := range edges {
		heights[i] = e.Weight
	}
	slices.Sort(heights)
	return heights
}
