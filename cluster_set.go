package hclust

import (
	"strconv"
	"strings"

	"github.com/TrevorS/hclust/errors"
)

// ClusterSet is one partition level: a fixed-capacity, ordered collection of
// clusters.
type ClusterSet struct {
	clusters []*Cluster
}

// Merge describes how a level was produced from the previous one: the
// positions I < J of the merged clusters in the previous set, their linkage
// distance and the size of the merged cluster. I and J are -1 when the
// previous set could not be merged.
type Merge struct {
	I        int     `json:"i"`
	J        int     `json:"j"`
	Distance float64 `json:"distance"`
	Size     int     `json:"size"`
}

// Stalled reports whether the merge was a no-op.
func (m Merge) Stalled() bool { return m.I < 0 }

var noMerge = Merge{I: -1, J: -1}

// NewClusterSet returns an empty set able to hold capacity clusters.
func NewClusterSet(capacity int) *ClusterSet {
	return &ClusterSet{clusters: make([]*Cluster, 0, capacity)}
}

// Add appends c unless that same instance is already in the set. Identity,
// not content, is compared: two distinct clusters with equal indices are both
// accepted. Add reports whether c was inserted and panics once the set is
// full.
func (s *ClusterSet) Add(c *Cluster) bool {
	for _, existing := range s.clusters {
		if existing == c {
			return false
		}
	}
	if len(s.clusters) == cap(s.clusters) {
		panic(errors.AssertionFailedf("hclust: cluster set full (capacity %d)", cap(s.clusters)))
	}
	s.clusters = append(s.clusters, c)
	return true
}

// Get returns the cluster at position i.
func (s *ClusterSet) Get(i int) *Cluster { return s.clusters[i] }

// Len returns the number of clusters added so far.
func (s *ClusterSet) Len() int { return len(s.clusters) }

// Cap returns the capacity fixed at construction.
func (s *ClusterSet) Cap() int { return cap(s.clusters) }

// Clusters returns the clusters in slot order. The slice is a copy; the
// clusters are shared.
func (s *ClusterSet) Clusters() []*Cluster {
	out := make([]*Cluster, len(s.clusters))
	copy(out, s.clusters)
	return out
}

// MergeClosestClusters returns a new set in which the two closest clusters
// under linkage are replaced by their union. The receiver is not modified.
//
// If the set holds a single cluster, the receiver itself is returned together
// with ErrImpossibleMerge; callers may treat this as a no-op.
func (s *ClusterSet) MergeClosestClusters(linkage Linkage, data Data) (*ClusterSet, Merge, error) {
	return s.mergeClosest(linkage, data, 1)
}

// MergeClosestClustersParallel is MergeClosestClusters with the closest-pair
// scan sharded across workers goroutines. The result is identical.
func (s *ClusterSet) MergeClosestClustersParallel(linkage Linkage, data Data, workers int) (*ClusterSet, Merge, error) {
	return s.mergeClosest(linkage, data, workers)
}

func (s *ClusterSet) mergeClosest(linkage Linkage, data Data, workers int) (*ClusterSet, Merge, error) {
	n := len(s.clusters)
	if n <= 1 {
		return s, noMerge, ErrImpossibleMerge
	}

	p := ClosestPairParallel(s.clusters, linkage, data, workers)
	merged := s.clusters[p.I].Clone().Merge(s.clusters[p.J])

	next := NewClusterSet(n - 1)
	inserted := false
	for k, c := range s.clusters {
		if k != p.I && k != p.J {
			next.Add(c)
		} else if !inserted {
			next.Add(merged)
			inserted = true
		}
	}

	return next, Merge{I: p.I, J: p.J, Distance: p.Distance, Size: merged.Size()}, nil
}

// String renders one "clusterK:indices" line per slot.
func (s *ClusterSet) String() string {
	return s.render(func(c *Cluster) string { return c.String() })
}

// Format renders one "clusterK:<example>..." line per slot.
func (s *ClusterSet) Format(data Data) string {
	return s.render(func(c *Cluster) string { return c.Format(data) })
}

func (s *ClusterSet) render(cluster func(*Cluster) string) string {
	var b strings.Builder
	for i, c := range s.clusters {
		if c == nil {
			continue
		}
		b.WriteString("cluster")
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(':')
		b.WriteString(cluster(c))
		b.WriteByte('\n')
	}
	return b.String()
}
