package hclust

import (
	"encoding/json"
	"math"
	"testing"
)

func TestEdgeCase_DepthOneOnManyPoints(t *testing.T) {
	data := gridData(t, 50, 3)
	cfg := DefaultConfig()
	cfg.Depth = 1
	d := mustMine(t, data, cfg)

	if d.Depth() != 1 || d.Level(0).Len() != 50 {
		t.Errorf("expected only the singleton level, got depth %d", d.Depth())
	}
	if len(d.LinkageMatrix()) != 0 {
		t.Error("no merges expected at depth 1")
	}
}

func TestEdgeCase_AllIdenticalPoints(t *testing.T) {
	rows := make([][]float64, 6)
	for i := range rows {
		rows[i] = []float64{5, 5}
	}
	data, _ := NewDataset(rows, nil)
	d := mustMine(t, data, DefaultConfig())

	if err := d.Validate(6); err != nil {
		t.Fatal(err)
	}
	// With all distances equal the first two slots merge each time, so the
	// merged cluster keeps slot 0 and absorbs the next index.
	for level := 1; level < d.Depth(); level++ {
		if got := d.Level(level).Get(0).Size(); got != level+1 {
			t.Errorf("level %d: slot 0 size = %d, want %d", level, got, level+1)
		}
	}
}

func TestEdgeCase_TwoPoints(t *testing.T) {
	data := lineData(t, 0, 3)
	d := mustMine(t, data, DefaultConfig())
	if got, want := d.String(), "level0:\ncluster0:0\ncluster1:1\n\nlevel1:\ncluster0:0,1\n\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEdgeCase_NaNMetricStillPartitions(t *testing.T) {
	nan := DistanceFunc(func(a, b []float64) float64 { return math.NaN() })
	data, _ := NewDataset([][]float64{{0}, {1}, {2}, {3}}, nan)
	d := mustMine(t, data, Config{Linkage: AverageLink{}})

	if err := d.Validate(4); err != nil {
		t.Fatal(err)
	}

	// Non-finite merge distances must not break persistence.
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Dendrogram
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.String() != d.String() {
		t.Error("round trip changed the rendering")
	}
}

func TestEdgeCase_ManualStallRepeatsPartition(t *testing.T) {
	// Build a dendrogram by hand past the single-cluster level, the way the
	// miner would if asked for more levels than merges.
	data := lineData(t, 1, 2)
	d := NewDendrogram(3)
	set := singletons(2)
	d.setLevel(0, set, noMerge)
	for level := 1; level < 3; level++ {
		next, m, _ := set.MergeClosestClusters(SingleLink{}, data)
		d.setLevel(level, next, m)
		set = next
	}

	if d.Level(1).String() != d.Level(2).String() {
		t.Error("stalled level should repeat the final partition")
	}
	if !d.Merges()[1].Stalled() {
		t.Error("second merge should be recorded as stalled")
	}
	if rows := d.LinkageMatrix(); len(rows) != 1 {
		t.Errorf("stalled levels must not add linkage rows, got %d", len(rows))
	}
}
