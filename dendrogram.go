package hclust

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/TrevorS/hclust/errors"
)

// Dendrogram holds one ClusterSet per level, from level 0 (all singletons)
// up to Depth()-1. Levels are assigned once while mining and are read-only
// afterwards.
type Dendrogram struct {
	levels  []*ClusterSet
	merges  []Merge
	linkage string
}

// NewDendrogram returns a dendrogram with depth empty levels.
func NewDendrogram(depth int) *Dendrogram {
	depth = max(depth, 0)
	merges := make([]Merge, max(depth-1, 0))
	for i := range merges {
		merges[i] = noMerge
	}
	return &Dendrogram{
		levels: make([]*ClusterSet, depth),
		merges: merges,
	}
}

// SetClusterSet stores set at level. Assigning a level twice, or a level
// outside [0, Depth()), is a programmer error and panics.
func (d *Dendrogram) SetClusterSet(level int, set *ClusterSet) {
	if level < 0 || level >= len(d.levels) {
		panic(errors.AssertionFailedf("hclust: level %d out of range [0, %d)", level, len(d.levels)))
	}
	if d.levels[level] != nil {
		panic(errors.AssertionFailedf("hclust: level %d already assigned", level))
	}
	d.levels[level] = set
}

// setLevel stores set at level together with the merge that produced it.
func (d *Dendrogram) setLevel(level int, set *ClusterSet, m Merge) {
	d.SetClusterSet(level, set)
	if level > 0 {
		d.merges[level-1] = m
	}
}

// Depth returns the number of levels fixed at construction.
func (d *Dendrogram) Depth() int { return len(d.levels) }

// Level returns the set stored at level, or nil if it is unassigned.
func (d *Dendrogram) Level(level int) *ClusterSet { return d.levels[level] }

// Merges returns the merge that produced each level 1..Depth()-1.
func (d *Dendrogram) Merges() []Merge {
	out := make([]Merge, len(d.merges))
	copy(out, d.merges)
	return out
}

// Linkage returns the name of the linkage the dendrogram was mined with.
func (d *Dendrogram) Linkage() string { return d.linkage }

// String renders every assigned level as "level<i>:" followed by its clusters.
func (d *Dendrogram) String() string {
	return d.render(func(s *ClusterSet) string { return s.String() })
}

// Format renders every assigned level with the member examples of each
// cluster.
func (d *Dendrogram) Format(data Data) string {
	return d.render(func(s *ClusterSet) string { return s.Format(data) })
}

func (d *Dendrogram) render(set func(*ClusterSet) string) string {
	var b strings.Builder
	for i, s := range d.levels {
		if s == nil {
			continue
		}
		b.WriteString("level")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(":\n")
		b.WriteString(set(s))
		b.WriteByte('\n')
	}
	return b.String()
}

// Validate checks that every assigned level partitions {0..n-1} exactly and
// that level L holds n-L clusters.
func (d *Dendrogram) Validate(n int) error {
	for level, s := range d.levels {
		if s == nil {
			continue
		}
		if want := n - level; s.Len() != want {
			return errors.Newf("hclust: level %d holds %d clusters, want %d", level, s.Len(), want)
		}
		if err := checkPartition(level, s, n); err != nil {
			return err
		}
	}
	return nil
}

// checkPartition reports whether s holds every index in [0, n) exactly once
// and no empty cluster.
func checkPartition(level int, s *ClusterSet, n int) error {
	seen := make([]bool, n)
	covered := 0
	for k, c := range s.clusters {
		if c.Size() == 0 {
			return errors.Newf("hclust: level %d cluster %d is empty", level, k)
		}
		for _, i := range c.indices {
			if i < 0 || i >= n {
				return errors.Newf("hclust: level %d cluster %d holds out-of-range index %d", level, k, i)
			}
			if seen[i] {
				return errors.Newf("hclust: level %d holds index %d more than once", level, i)
			}
			seen[i] = true
			covered++
		}
	}
	if covered != n {
		return errors.Newf("hclust: level %d covers %d of %d examples", level, covered, n)
	}
	return nil
}

// checkHistory verifies a restored dendrogram: level 0 holds singletons,
// every assigned level partitions the same examples, and each recorded merge
// points at two distinct clusters of the level before it. Levels after the
// single-cluster level may repeat it, so the count law is checked per merge
// rather than per level.
func (d *Dendrogram) checkHistory() error {
	n := -1
	for level, s := range d.levels {
		if s == nil {
			continue
		}
		if n < 0 {
			n = 0
			for _, c := range s.clusters {
				n += c.Size()
			}
		}
		if level == 0 && s.Len() != n {
			return errors.Newf("hclust: level 0 holds %d clusters for %d examples", s.Len(), n)
		}
		if err := checkPartition(level, s, n); err != nil {
			return err
		}
	}

	merged := 0
	for k, m := range d.merges {
		prev, next := d.levels[k], d.levels[k+1]
		if m.Stalled() {
			if prev != nil && next != nil && prev.Len() != next.Len() {
				return errors.Newf("hclust: stalled merge %d changes %d clusters into %d", k, prev.Len(), next.Len())
			}
			continue
		}
		if prev == nil {
			return errors.Newf("hclust: merge %d follows an unassigned level", k)
		}
		if m.I >= m.J || m.J >= prev.Len() {
			return errors.Newf("hclust: merge %d pair (%d, %d) is invalid for %d clusters", k, m.I, m.J, prev.Len())
		}
		if next != nil && next.Len() != prev.Len()-1 {
			return errors.Newf("hclust: merge %d leaves %d clusters, want %d", k, next.Len(), prev.Len()-1)
		}
		merged++
	}
	if merged > 0 && merged > n-1 {
		return errors.Newf("hclust: %d merges for %d examples", merged, n)
	}
	return nil
}

const snapshotVersion = 1

type dendrogramSnapshot struct {
	Version int       `json:"version"`
	Linkage string    `json:"linkage,omitempty"`
	Levels  [][][]int `json:"levels"`
	Merges  []Merge   `json:"merges,omitempty"`
}

// MarshalJSON encodes the full dendrogram state.
func (d *Dendrogram) MarshalJSON() ([]byte, error) {
	snap := dendrogramSnapshot{
		Version: snapshotVersion,
		Linkage: d.linkage,
		Levels:  make([][][]int, len(d.levels)),
		Merges:  make([]Merge, len(d.merges)),
	}
	for i, m := range d.merges {
		// JSON has no encoding for NaN or Inf.
		if math.IsNaN(m.Distance) || math.IsInf(m.Distance, 0) {
			m.Distance = math.MaxFloat64
		}
		snap.Merges[i] = m
	}
	for i, s := range d.levels {
		if s == nil {
			continue
		}
		level := make([][]int, len(s.clusters))
		for k, c := range s.clusters {
			level[k] = c.Indices()
		}
		snap.Levels[i] = level
	}
	return json.Marshal(snap)
}

// UnmarshalJSON restores a dendrogram written by MarshalJSON.
func (d *Dendrogram) UnmarshalJSON(b []byte) error {
	var snap dendrogramSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return errors.Wrap(err, "decode dendrogram")
	}
	if snap.Version != snapshotVersion {
		return errors.Newf("hclust: unsupported dendrogram version %d", snap.Version)
	}

	restored := NewDendrogram(len(snap.Levels))
	restored.linkage = snap.Linkage
	if len(snap.Merges) > 0 {
		if len(snap.Merges) != len(restored.merges) {
			return errors.Newf("hclust: %d merges for %d levels", len(snap.Merges), len(snap.Levels))
		}
		copy(restored.merges, snap.Merges)
	}
	for i, level := range snap.Levels {
		if level == nil {
			continue
		}
		set := NewClusterSet(len(level))
		for _, indices := range level {
			set.Add(NewCluster(indices...))
		}
		restored.levels[i] = set
	}
	if err := restored.checkHistory(); err != nil {
		return errors.Wrapf(ErrCorruptSnapshot, "decode dendrogram: %v", err)
	}

	*d = *restored
	return nil
}
