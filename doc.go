// Package hclust implements agglomerative hierarchical clustering with
// single-link and average-link distances.
//
// Mining starts from one singleton cluster per example and, level by level,
// merges the two closest clusters of the previous level. Every level is kept,
// so the resulting Dendrogram is the full history of partitions from the
// finest (all singletons) to the coarsest produced.
//
// Basic usage:
//
//	data, err := hclust.NewDataset(rows, hclust.EuclideanMetric{})
//	cfg := hclust.DefaultConfig()
//	cfg.Depth = 4
//	cfg.Linkage = hclust.AverageLink{}
//	d, err := hclust.Mine(data, cfg)
//	fmt.Print(d)            // cluster indices per level
//	fmt.Print(d.Format(data)) // example values per level
//
// # Tie-breaking
//
// The closest pair is found with a row-major scan over positions (i, j),
// i < j, keeping a candidate only when it is strictly closer than the current
// best. Among equally close pairs the first one scanned always wins, so the
// dendrogram is fully deterministic for a given input order. Setting
// Config.Workers > 1 shards the scan across goroutines without changing the
// result.
//
// # Persistence
//
// Dendrogram implements json.Marshaler and json.Unmarshaler; a round-trip
// renders identically to the original. LinkageMatrix exports the merge
// history in the n-1 row format used by scipy.
//
// # Spanning tree
//
// SpanningTree builds a minimum spanning tree with Prim's algorithm without
// materialising the distance matrix. Its sorted edge weights equal the merge
// heights of a single-link dendrogram, which makes it a cheap cross-check.
package hclust
