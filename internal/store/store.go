// Package store persists mined dendrograms by name.
package store

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/internal/config"
)

// Store saves and loads dendrograms. Loading a name that was never saved
// returns an error marked errors.ErrNotFound.
type Store interface {
	Save(ctx context.Context, name string, d *hclust.Dendrogram) error
	Load(ctx context.Context, name string) (*hclust.Dendrogram, error)
	List(ctx context.Context) ([]string, error)
}

// maxNameLen keeps names within common filesystem limits once the extension
// is added.
const maxNameLen = 200

// ValidateName rejects names that are empty, too long, contain path
// separators or control characters, or start with a dot.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.NewInvalidRequestError("empty name")
	case len(name) > maxNameLen:
		return errors.NewInvalidRequestError("name longer than %d bytes", maxNameLen)
	case strings.HasPrefix(name, "."):
		return errors.NewInvalidRequestError("name %q starts with a dot", name)
	case strings.ContainsAny(name, `/\:`):
		return errors.NewInvalidRequestError("name %q contains a path separator", name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return errors.NewInvalidRequestError("name %q contains a control character", name)
		}
	}
	return nil
}

// New returns the backend selected by cfg.Store.Backend. db is required for
// the sqlite backend and ignored otherwise.
func New(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.SugaredLogger) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Store.Dir, logger)
	case config.BackendSQLite:
		if db == nil {
			return nil, errors.New("sqlite store requires a database")
		}
		return NewSQLStore(ctx, db, logger)
	default:
		return nil, errors.Newf("unknown store backend %q", cfg.Store.Backend)
	}
}
