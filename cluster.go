package hclust

import (
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Cluster is a set of example indices kept in ascending order.
//
// Clusters are treated as immutable once they sit in a ClusterSet: merging
// produces a new Cluster and never touches either operand, so every
// dendrogram level stays an independent snapshot.
type Cluster struct {
	indices []int
}

// NewCluster returns a cluster holding the given indices.
func NewCluster(indices ...int) *Cluster {
	c := &Cluster{}
	for _, i := range indices {
		c.Add(i)
	}
	return c
}

// Singleton returns the cluster {i}.
func Singleton(i int) *Cluster {
	return &Cluster{indices: []int{i}}
}

// Add inserts i. It is a no-op if i is already present.
func (c *Cluster) Add(i int) {
	pos, found := slices.BinarySearch(c.indices, i)
	if found {
		return
	}
	c.indices = slices.Insert(c.indices, pos, i)
}

// Size returns the number of indices in the cluster.
func (c *Cluster) Size() int { return len(c.indices) }

// Contains reports whether i belongs to the cluster.
func (c *Cluster) Contains(i int) bool {
	_, found := slices.BinarySearch(c.indices, i)
	return found
}

// Indices returns a copy of the indices in ascending order.
func (c *Cluster) Indices() []int {
	return slices.Clone(c.indices)
}

// All iterates the indices in ascending order. The sequence may be ranged
// over any number of times.
func (c *Cluster) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, i := range c.indices {
			if !yield(i) {
				return
			}
		}
	}
}

// Clone returns a deep copy that shares no storage with c.
func (c *Cluster) Clone() *Cluster {
	return &Cluster{indices: slices.Clone(c.indices)}
}

// Merge returns a new cluster holding the union of c and other.
// Neither operand is modified.
func (c *Cluster) Merge(other *Cluster) *Cluster {
	a, b := c.indices, other.indices
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return &Cluster{indices: out}
}

// String renders the indices joined by commas, e.g. "0,1,4".
func (c *Cluster) String() string {
	var b strings.Builder
	for k, i := range c.indices {
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}

// Format renders each member example as "<v1,v2,...>".
func (c *Cluster) Format(data Data) string {
	var b strings.Builder
	for _, i := range c.indices {
		b.WriteByte('<')
		b.WriteString(data.Get(i).String())
		b.WriteByte('>')
	}
	return b.String()
}
