package hclust

// LinkageMatrix converts the merge history into scipy linkage format: one
// row [left, right, distance, size] per merge, where IDs below n are examples
// and the k-th merge creates cluster n+k. Stalled levels produce no row.
func (d *Dendrogram) LinkageMatrix() [][4]float64 {
	if len(d.levels) == 0 || d.levels[0] == nil {
		return nil
	}
	n := d.levels[0].Len()
	uf := newUnionFind(n)

	rows := make([][4]float64, 0, len(d.merges))
	for level, m := range d.merges {
		prev := d.levels[level]
		if m.Stalled() || prev == nil {
			continue
		}
		// Any member identifies the cluster: the union-find root is the
		// cluster's current ID.
		a := prev.Get(m.I).indices[0]
		b := prev.Get(m.J).indices[0]
		ra, rb, size := uf.relabel(a, b)
		rows = append(rows, [4]float64{float64(ra), float64(rb), m.Distance, float64(size)})
	}
	return rows
}
