// Package commands implements the hclust command line.
package commands

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/internal/config"
	"github.com/TrevorS/hclust/internal/store"
	"github.com/TrevorS/hclust/internal/table"
	"github.com/TrevorS/hclust/logger"
)

// app carries state shared by every command of one invocation.
type app struct {
	configPath string
	cfg        *config.Config
	db         *sql.DB
}

// NewRootCmd builds the hclust command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "hclust",
		Short: "Agglomerative hierarchical clustering",
		Long: `hclust - agglomerative hierarchical clustering of numeric tables.

Examples are read from SQLite tables or CSV files, merged level by level with
single or average linkage, and the resulting dendrograms are saved by name.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (HCLUST_* prefix, e.g. HCLUST_STORE_BACKEND)
3. --config file, else ./hclust.toml, else ~/.hclust/hclust.toml
4. Default values

Examples:
  hclust tables                               # List mineable tables
  hclust mine --table iris --depth 5          # Mine a table
  hclust mine --csv points.csv --linkage average --save pts
  hclust list                                 # List saved dendrograms
  hclust load pts                             # Print a saved dendrogram
  hclust serve                                # Start the WebSocket server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ./hclust.toml or ~/.hclust/hclust.toml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-json", false, "Emit JSON logs")
	root.PersistentFlags().String("db", "", "SQLite database holding example tables")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMineCmd(a))
	root.AddCommand(newTablesCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newLoadCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

// init loads configuration, letting root flags override files and
// environment, and initializes the global logger.
func (a *app) init(cmd *cobra.Command) error {
	v, err := config.New(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"log.level":     "log-level",
		"log.json":      "log-json",
		"database.path": "db",
	} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return errors.Wrapf(err, "bind --%s", flag)
			}
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return errors.WithHint(err, "check hclust.toml and HCLUST_* environment variables")
	}
	a.cfg = cfg

	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Level); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	return nil
}

// database opens the configured database once per invocation.
func (a *app) database() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := table.Open(a.cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// reader returns a table reader that hides the store's bookkeeping table.
func (a *app) reader() (*table.Reader, error) {
	db, err := a.database()
	if err != nil {
		return nil, err
	}
	r := table.NewReader(db, logger.Logger)
	r.Hide(store.TableName)
	return r, nil
}

// store opens the configured store; only the sqlite backend touches the
// database.
func (a *app) store(ctx context.Context) (store.Store, error) {
	var db *sql.DB
	if a.cfg.Store.Backend == config.BackendSQLite {
		var err error
		if db, err = a.database(); err != nil {
			return nil, err
		}
	}
	return store.New(ctx, a.cfg, db, logger.Logger)
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return errors.Wrap(err, "close database")
}
