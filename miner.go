package hclust

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/TrevorS/hclust/errors"
)

// Config controls a mining run.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Depth is the number of dendrogram levels to produce, level 0 included.
	// A depth larger than the number of examples is clamped to that number.
	// 0 means one level per example, i.e. the full hierarchy down to a single
	// cluster. Must be >= 0. Default: 0.
	Depth int

	// Linkage scores the distance between two clusters.
	// Built-in: SingleLink, AverageLink. Default: SingleLink.
	Linkage Linkage

	// Workers controls the number of goroutines used by the closest-pair scan
	// of each merge step. Levels are always built sequentially. 0 means use
	// runtime.NumCPU(); 1 forces a single goroutine. Default: 0 (auto).
	Workers int

	// Logger receives diagnostics such as depth clamping. nil discards them.
	Logger *zap.SugaredLogger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Linkage: SingleLink{},
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.Depth < 0 {
		return errors.Newf("hclust: Depth must be >= 0 (0 means one level per example), got %d", cfg.Depth)
	}
	if cfg.Workers < 0 {
		return errors.Newf("hclust: Workers must be >= 0, got %d", cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Linkage == nil {
		cfg.Linkage = SingleLink{}
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
}

// Miner builds exactly one Dendrogram. After a successful Mine it is
// immutable; further calls return ErrAlreadyMined.
type Miner struct {
	cfg        Config
	dendrogram *Dendrogram
}

// NewMiner validates cfg and returns an unbuilt miner.
func NewMiner(cfg Config) (*Miner, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Miner{cfg: cfg}, nil
}

// Mine clusters data and returns the resulting dendrogram.
//
// Returns ErrEmptyDataset if data holds no examples. A depth larger than the
// example count is reported through the logger and mining restarts once with
// depth equal to the count.
func (m *Miner) Mine(data Data) (*Dendrogram, error) {
	if m.dendrogram != nil {
		return nil, ErrAlreadyMined
	}
	if data == nil || data.Count() == 0 {
		return nil, ErrEmptyDataset
	}

	depth := m.cfg.Depth
	if depth == 0 {
		depth = data.Count()
	}
	d, err := m.mine(data, depth)
	if errors.Is(err, ErrInvalidDepth) {
		m.cfg.Logger.Warnw("Requested depth exceeds example count, rebuilding with maximum depth",
			"depth", depth,
			"count", data.Count(),
			"error", err,
		)
		// The clamped depth equals the count, so the retry cannot fail the same way.
		depth = data.Count()
		d, err = m.mine(data, depth)
	}
	if err != nil {
		return nil, err
	}

	m.dendrogram = d
	return d, nil
}

func (m *Miner) mine(data Data, depth int) (*Dendrogram, error) {
	n := data.Count()
	if depth > n {
		return nil, errors.Wrapf(ErrInvalidDepth, "%d > %d", depth, n)
	}

	d := NewDendrogram(depth)
	d.linkage = m.cfg.Linkage.Name()

	set := NewClusterSet(n)
	for i := 0; i < n; i++ {
		set.Add(Singleton(i))
	}
	d.setLevel(0, set, noMerge)

	for level := 1; level < depth; level++ {
		next, merge, err := set.MergeClosestClustersParallel(m.cfg.Linkage, data, m.cfg.Workers)
		if errors.Is(err, ErrImpossibleMerge) {
			// The final partition is repeated at every remaining level.
			m.cfg.Logger.Debugw("Single cluster reached, repeating final partition",
				"level", level,
				"depth", depth,
			)
		} else if err != nil {
			return nil, err
		}
		d.setLevel(level, next, merge)
		set = next
	}

	return d, nil
}

// Dendrogram returns the mined dendrogram, or nil before Mine succeeds.
func (m *Miner) Dendrogram() *Dendrogram { return m.dendrogram }

// Built reports whether Mine has completed.
func (m *Miner) Built() bool { return m.dendrogram != nil }

// String renders the mined dendrogram, or "" before Mine succeeds.
func (m *Miner) String() string {
	if m.dendrogram == nil {
		return ""
	}
	return m.dendrogram.String()
}

// Mine runs a single mining pass over data with cfg.
func Mine(data Data, cfg Config) (*Dendrogram, error) {
	m, err := NewMiner(cfg)
	if err != nil {
		return nil, err
	}
	return m.Mine(data)
}
