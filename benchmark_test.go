package hclust

import (
	"math/rand"
	"testing"
)

func generateBenchData(b *testing.B, n, dims int) *Dataset {
	b.Helper()
	rng := rand.New(rand.NewSource(42))
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dims)
		for j := range rows[i] {
			rows[i][j] = rng.Float64() * 100
		}
	}
	d, err := NewDataset(rows, EuclideanMetric{})
	if err != nil {
		b.Fatal(err)
	}
	return d
}

// --- Closest pair ---

func benchClosestPair(b *testing.B, n, workers int) {
	b.Helper()
	data := generateBenchData(b, n, 2)
	s := NewClusterSet(n)
	for i := 0; i < n; i++ {
		s.Add(Singleton(i))
	}
	clusters := s.Clusters()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ClosestPairParallel(clusters, SingleLink{}, data, workers)
	}
}

func BenchmarkClosestPair_200(b *testing.B)           { benchClosestPair(b, 200, 1) }
func BenchmarkClosestPair_500(b *testing.B)           { benchClosestPair(b, 500, 1) }
func BenchmarkClosestPairParallel_500_4(b *testing.B) { benchClosestPair(b, 500, 4) }

// --- Full mining ---

func benchMine(b *testing.B, n int, linkage Linkage) {
	b.Helper()
	data := generateBenchData(b, n, 2)
	cfg := Config{Linkage: linkage, Depth: n / 2}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Mine(data, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMine_Single_100(b *testing.B)  { benchMine(b, 100, SingleLink{}) }
func BenchmarkMine_Average_100(b *testing.B) { benchMine(b, 100, AverageLink{}) }
