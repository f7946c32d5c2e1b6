package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/internal/csvdata"
	"github.com/TrevorS/hclust/logger"
)

type mineOptions struct {
	table   string
	csv     string
	header  bool
	depth   int
	linkage string
	metric  string
	workers int
	save    string
	json    bool
	indices bool
}

func newMineCmd(a *app) *cobra.Command {
	opts := &mineOptions{}
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine a dendrogram from a table or CSV file",
		Long: `Mine a dendrogram from a SQLite table or a numeric CSV file.

Level 0 holds one cluster per distinct example; each further level merges the
two closest clusters of the previous one. A depth larger than the number of
examples is reduced to that number. Depth 0 builds the full hierarchy.

Examples:
  hclust mine --table line --depth 3
  hclust mine --table line --linkage average --save line-avg
  hclust mine --csv points.csv --header --metric manhattan --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMine(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.table, "table", "", "Table to mine")
	f.StringVar(&opts.csv, "csv", "", "CSV file to mine")
	f.BoolVar(&opts.header, "header", false, "CSV file has a header row")
	f.IntVarP(&opts.depth, "depth", "d", 0, "Number of levels (0 = full hierarchy)")
	f.StringVarP(&opts.linkage, "linkage", "l", "", "Linkage: single or average (default from config)")
	f.StringVar(&opts.metric, "metric", "", "Distance metric (default from config)")
	f.IntVar(&opts.workers, "workers", -1, "Closest-pair workers (default from config)")
	f.StringVar(&opts.save, "save", "", "Save the dendrogram under this name")
	f.BoolVar(&opts.json, "json", false, "Print the dendrogram as JSON")
	f.BoolVar(&opts.indices, "indices", false, "Print example indices instead of values")
	cmd.MarkFlagsMutuallyExclusive("table", "csv")
	cmd.MarkFlagsOneRequired("table", "csv")
	return cmd
}

func runMine(cmd *cobra.Command, a *app, opts *mineOptions) error {
	ctx := cmd.Context()
	start := time.Now()

	if opts.depth < 0 {
		return errors.NewInvalidRequestError("--depth must be >= 0, got %d", opts.depth)
	}

	metric := a.cfg.Metric()
	if opts.metric != "" {
		m, err := hclust.MetricByName(opts.metric)
		if err != nil {
			return err
		}
		metric = m
	}
	linkage := a.cfg.Linkage()
	if opts.linkage != "" {
		l, err := hclust.LinkageByName(opts.linkage)
		if err != nil {
			return err
		}
		linkage = l
	}
	workers := a.cfg.Mining.Workers
	if opts.workers >= 0 {
		workers = opts.workers
	}

	var (
		data   *hclust.Dataset
		source string
		err    error
	)
	if opts.csv != "" {
		source = opts.csv
		data, err = csvdata.Load(opts.csv, csvdata.Options{Header: opts.header, Metric: metric})
	} else {
		source = opts.table
		r, rerr := a.reader()
		if rerr != nil {
			return rerr
		}
		data, err = r.Load(ctx, opts.table, metric)
	}
	if err != nil {
		return explain(err)
	}

	depth := opts.depth
	if limit := a.cfg.Mining.MaxDepth; limit > 0 && (depth == 0 || depth > limit) {
		logger.Infow("Capping requested depth", logger.FieldDepth, depth, "max_depth", limit)
		depth = limit
	}

	mcfg := hclust.DefaultConfig()
	mcfg.Depth = depth
	mcfg.Linkage = linkage
	mcfg.Workers = workers
	mcfg.Logger = logger.ComponentLogger("miner")
	d, err := hclust.Mine(data, mcfg)
	if err != nil {
		return err
	}

	logger.Infow("Mined dendrogram",
		logger.FieldTable, source,
		logger.FieldDepth, d.Depth(),
		logger.FieldLinkage, linkage.Name(),
		logger.FieldCount, data.Count(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)

	if opts.save != "" {
		st, err := a.store(ctx)
		if err != nil {
			return err
		}
		if err := st.Save(ctx, opts.save, d); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		body, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode dendrogram")
		}
		fmt.Fprintln(out, string(body))
	case opts.indices:
		fmt.Fprint(out, d.String())
	default:
		fmt.Fprint(out, d.Format(data))
	}
	return nil
}

// explain attaches a hint to data source errors the user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, hclust.ErrEmptyDataset):
		return errors.WithHint(err, "the source holds no rows; choose another table or file")
	case errors.Is(err, hclust.ErrNonNumericAttribute):
		return errors.WithHint(err, "every mined column must be numeric")
	case errors.IsNotFoundError(err):
		return errors.WithHint(err, "run 'hclust tables' to see what can be mined")
	}
	return err
}
