package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/logger"
)

// TableName is the table SQLStore keeps dendrograms in.
const TableName = "dendrograms"

// Query constants
const (
	createTableQuery = `
		CREATE TABLE IF NOT EXISTS dendrograms (
			name TEXT PRIMARY KEY,
			depth INTEGER NOT NULL,
			body BLOB NOT NULL,
			saved_at TIMESTAMP NOT NULL
		)`

	upsertQuery = `
		INSERT INTO dendrograms (name, depth, body, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET depth = excluded.depth, body = excluded.body, saved_at = excluded.saved_at`

	selectBodyQuery = `SELECT body FROM dendrograms WHERE name = ?`

	listNamesQuery = `SELECT name FROM dendrograms ORDER BY name`
)

// SQLStore keeps dendrograms as JSON blobs in the dendrograms table.
type SQLStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewSQLStore creates the dendrograms table if it does not exist. A nil
// logger uses the global logger.
func NewSQLStore(ctx context.Context, db *sql.DB, log *zap.SugaredLogger) (*SQLStore, error) {
	if log == nil {
		log = logger.Logger
	}
	if _, err := db.ExecContext(ctx, createTableQuery); err != nil {
		return nil, errors.Wrap(err, "create dendrograms table")
	}
	return &SQLStore{db: db, logger: log.Named("store"), now: time.Now}, nil
}

// Save inserts d under name, replacing any previous entry.
func (s *SQLStore) Save(ctx context.Context, name string, d *hclust.Dendrogram) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	body, err := json.Marshal(d)
	if err != nil {
		return errors.Wrapf(err, "encode dendrogram %s", name)
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, name, d.Depth(), body, s.now().UTC()); err != nil {
		return errors.Wrapf(err, "save %s", name)
	}

	logger.FromContext(ctx, s.logger).Infow("Saved dendrogram",
		logger.FieldName, name,
		logger.FieldDepth, d.Depth(),
	)
	return nil
}

// Load returns the dendrogram saved under name.
func (s *SQLStore) Load(ctx context.Context, name string) (*hclust.Dendrogram, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	var body []byte
	err := s.db.QueryRowContext(ctx, selectBodyQuery, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("dendrogram %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}

	var d hclust.Dendrogram
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	return &d, nil
}

// List returns the saved names in order.
func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listNamesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "list dendrograms")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.Wrap(err, "scan dendrogram name")
		}
		names = append(names, n)
	}
	return names, errors.Wrap(rows.Err(), "list dendrograms")
}
