package hclust

// unionFind maps examples to the scipy-style ID of the cluster currently
// holding them. Examples are 0..n-1; the k-th merge creates cluster n+k.
// Storage covers 2*n - 1 IDs.
type unionFind struct {
	parent []int
	size   []int
	// nextLabel is the ID for the next merged cluster, starting at n.
	nextLabel int
}

func newUnionFind(n int) *unionFind {
	total := max(2*n-1, 1)
	parent := make([]int, total)
	size := make([]int, total)
	for i := range parent {
		parent[i] = -1 // -1 means "is a root"
	}
	for i := 0; i < n; i++ {
		size[i] = 1
	}
	return &unionFind{parent: parent, size: size, nextLabel: n}
}

// find returns the root of the set containing x, with path compression.
func (uf *unionFind) find(x int) int {
	root := x
	for uf.parent[root] != -1 {
		root = uf.parent[root]
	}
	for uf.parent[x] != -1 {
		x, uf.parent[x] = uf.parent[x], root
	}
	return root
}

// relabel merges the sets holding a and b under a fresh ID and returns the
// two previous roots and the merged size.
func (uf *unionFind) relabel(a, b int) (ra, rb, size int) {
	ra, rb = uf.find(a), uf.find(b)
	size = uf.size[ra] + uf.size[rb]
	uf.size[uf.nextLabel] = size
	uf.parent[ra] = uf.nextLabel
	uf.parent[rb] = uf.nextLabel
	uf.nextLabel++
	return ra, rb, size
}
