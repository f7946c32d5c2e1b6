// Package table reads examples from SQLite tables. Every column of a mined
// table must be numeric; each distinct row becomes one example.
package table

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/logger"
)

// SQLiteBusyTimeoutMS is how long a connection waits on a locked database.
const SQLiteBusyTimeoutMS = 5000

// Column types reported by Schema.
const (
	TypeNumber = "number"
	TypeString = "string"
)

// Open opens a SQLite database at path with WAL journaling and a busy timeout.
// If logger is provided, logs database operations; otherwise operates silently.
func Open(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening database", "path", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = " + strconv.Itoa(SQLiteBusyTimeoutMS),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to apply %q", p)
		}
	}

	if logger != nil {
		logger.Infow("Database opened", "path", path, "wal_mode", true)
	}
	return db, nil
}

// Column describes one attribute of a table.
type Column struct {
	Name string
	Type string // TypeNumber or TypeString
}

// IsNumber reports whether the column holds numeric values.
func (c Column) IsNumber() bool { return c.Type == TypeNumber }

// Reader lists tables and loads them as datasets.
type Reader struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	hidden map[string]bool
}

// NewReader wraps db. A nil logger uses the global logger.
func NewReader(db *sql.DB, log *zap.SugaredLogger) *Reader {
	if log == nil {
		log = logger.Logger
	}
	return &Reader{
		db:     db,
		logger: log.Named("table"),
		hidden: make(map[string]bool),
	}
}

// Hide excludes names from Tables. Used for bookkeeping tables that share
// the database, such as the dendrogram store.
func (r *Reader) Hide(names ...string) {
	for _, n := range names {
		r.hidden[n] = true
	}
}

// Tables returns the user tables in name order.
func (r *Reader) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan table name")
		}
		if !r.hidden[name] {
			names = append(names, name)
		}
	}
	return names, errors.Wrap(rows.Err(), "list tables")
}

// Schema returns the columns of table in declaration order. A table that
// does not exist yields an error marked errors.ErrNotFound.
func (r *Reader) Schema(ctx context.Context, table string) ([]Column, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, errors.Wrapf(err, "read schema of %s", table)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var name, declType string
		if err := rows.Scan(&name, &declType); err != nil {
			return nil, errors.Wrapf(err, "scan schema of %s", table)
		}
		cols = append(cols, Column{Name: name, Type: ColumnType(declType)})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "read schema of %s", table)
	}
	if len(cols) == 0 {
		return nil, errors.NewNotFoundError("table %q", table)
	}
	return cols, nil
}

// ColumnType maps a declared SQL type to TypeNumber or TypeString, following
// SQLite's affinity rules: INT, REAL, FLOA, DOUB, NUMERIC and DECIMAL are
// numeric, everything else (text, blobs, untyped) is not.
func ColumnType(declType string) string {
	t := strings.ToUpper(declType)
	for _, marker := range []string{"INT", "REAL", "FLOA", "DOUB", "NUMERIC", "DECIMAL"} {
		if strings.Contains(t, marker) {
			return TypeNumber
		}
	}
	return TypeString
}

// Load reads the distinct rows of table as a dataset measured with metric
// (nil means Euclidean).
//
// Errors: errors.ErrNotFound if the table is missing, hclust.ErrEmptyDataset
// if it has no rows, hclust.ErrNonNumericAttribute if a column is not
// numeric or a value cannot be read as a number.
func (r *Reader) Load(ctx context.Context, table string, metric hclust.DistanceMetric) (*hclust.Dataset, error) {
	start := time.Now()
	cols, err := r.Schema(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT * FROM "+QuoteIdent(table))
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", table)
	}
	defer rows.Close()

	var examples [][]float64
	for rows.Next() {
		// Emptiness is reported before column types.
		for _, c := range cols {
			if !c.IsNumber() {
				return nil, errors.Wrapf(hclust.ErrNonNumericAttribute, "column %q of %s", c.Name, table)
			}
		}

		values := make([]sql.NullFloat64, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(hclust.ErrNonNumericAttribute, "row %d of %s: %v", len(examples), table, err)
		}

		ex := make([]float64, len(cols))
		for i, v := range values {
			if !v.Valid {
				return nil, errors.Wrapf(hclust.ErrNonNumericAttribute, "null in column %q of %s", cols[i].Name, table)
			}
			ex[i] = v.Float64
		}
		examples = append(examples, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", table)
	}
	if len(examples) == 0 {
		return nil, errors.Wrapf(hclust.ErrEmptyDataset, "table %s", table)
	}

	data, err := hclust.NewDataset(examples, metric)
	if err != nil {
		return nil, err
	}

	r.logger.Debugw("Loaded table",
		logger.FieldTable, table,
		logger.FieldCount, data.Count(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return data, nil
}

// QuoteIdent quotes name as an SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
