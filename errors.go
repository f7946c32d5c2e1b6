package hclust

import "github.com/TrevorS/hclust/errors"

var (
	// ErrEmptyDataset is returned when a data source yields no examples.
	// Mining refuses to proceed; the caller must choose another source.
	ErrEmptyDataset = errors.New("hclust: empty dataset")

	// ErrNonNumericAttribute is returned by data providers when an attribute
	// expected to be numeric is not.
	ErrNonNumericAttribute = errors.New("hclust: non-numeric attribute")

	// ErrDimensionMismatch is returned when examples have different lengths.
	ErrDimensionMismatch = errors.New("hclust: examples have different dimensions")

	// ErrInvalidDepth marks a requested depth larger than the example count.
	// Miner recovers from it by clamping the depth.
	ErrInvalidDepth = errors.New("hclust: depth exceeds number of examples")

	// ErrImpossibleMerge is returned by ClusterSet.MergeClosestClusters when
	// the set holds a single cluster. The unchanged set is returned with it.
	ErrImpossibleMerge = errors.New("hclust: cannot merge a set holding a single cluster")

	// ErrCorruptSnapshot is returned when a persisted dendrogram does not
	// describe a consistent merge history.
	ErrCorruptSnapshot = errors.New("hclust: corrupt dendrogram snapshot")

	// ErrAlreadyMined is returned when Mine is called twice on one Miner.
	ErrAlreadyMined = errors.New("hclust: miner already built a dendrogram")
)
