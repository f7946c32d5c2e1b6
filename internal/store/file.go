package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/logger"
)

// Ext is the extension of dendrogram files.
const Ext = ".hcm"

// FileStore keeps one JSON snapshot per dendrogram in Dir.
type FileStore struct {
	Dir    string
	logger *zap.SugaredLogger
}

// NewFileStore creates dir if needed. A nil logger uses the global logger.
func NewFileStore(dir string, log *zap.SugaredLogger) (*FileStore, error) {
	if log == nil {
		log = logger.Logger
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create store directory %s", dir)
	}
	return &FileStore{Dir: dir, logger: log.Named("store")}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name+Ext)
}

// Save writes d to <Dir>/<name>.hcm, replacing any previous file atomically.
func (s *FileStore) Save(ctx context.Context, name string, d *hclust.Dendrogram) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(d)
	if err != nil {
		return errors.Wrapf(err, "encode dendrogram %s", name)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "save %s", name)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return errors.Wrapf(err, "save %s", name)
	}

	logger.FromContext(ctx, s.logger).Infow("Saved dendrogram",
		logger.FieldName, name,
		logger.FieldFile, s.path(name),
		logger.FieldDepth, d.Depth(),
	)
	return nil
}

// Load reads <Dir>/<name>.hcm.
func (s *FileStore) Load(ctx context.Context, name string) (*hclust.Dendrogram, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("dendrogram %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}

	var d hclust.Dendrogram
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.path(name))
	}
	return &d, nil
}

// List returns the names of all saved dendrograms in order.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", s.Dir)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || !strings.HasSuffix(n, Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(n, Ext))
	}
	slices.Sort(names)
	return names, nil
}
