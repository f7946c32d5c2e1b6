package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/internal/table"
)

type cli struct {
	dir    string
	config string
}

// newCLI writes a config pointing the store and database into a temp dir.
func newCLI(t *testing.T, backend string) *cli {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
[database]
path = %q

[store]
backend = %q
dir = %q

[mining]
workers = 1

[log]
level = "error"
`, filepath.Join(dir, "hclust.db"), backend, filepath.Join(dir, "dendrograms"))

	path := filepath.Join(dir, "hclust.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	db, err := table.Open(filepath.Join(dir, "hclust.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE line (x REAL)`,
		`INSERT INTO line VALUES (1), (2), (10), (11)`,
		`CREATE TABLE empty (x REAL)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "points.csv"), []byte("x,y\n0,0\n0,1\n5,5\n"), 0o644))
	return &cli{dir: dir, config: path}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", c.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestMineTable(t *testing.T) {
	c := newCLI(t, "file")

	out, err := c.run(t, "mine", "--table", "line", "--depth", "3", "--indices")
	require.NoError(t, err)
	assert.Contains(t, out, "level0:\ncluster0:0\ncluster1:1\ncluster2:2\ncluster3:3\n")
	assert.Contains(t, out, "level2:")
	assert.NotContains(t, out, "level3:")
}

func TestMineCSV(t *testing.T) {
	c := newCLI(t, "file")

	out, err := c.run(t, "mine", "--csv", filepath.Join(c.dir, "points.csv"), "--header", "--linkage", "average")
	require.NoError(t, err)
	// Depth 0 builds every level.
	assert.Contains(t, out, "level2:")
	assert.Contains(t, out, "<0,0>")
}

func TestMineJSON(t *testing.T) {
	c := newCLI(t, "file")

	out, err := c.run(t, "mine", "--table", "line", "--json")
	require.NoError(t, err)

	var snap map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "single", snap["linkage"])
	assert.Len(t, snap["levels"], 4)
}

func TestMineErrors(t *testing.T) {
	c := newCLI(t, "file")

	_, err := c.run(t, "mine", "--depth", "2")
	assert.Error(t, err)

	_, err = c.run(t, "mine", "--table", "line", "--csv", "x.csv")
	assert.Error(t, err)

	_, err = c.run(t, "mine", "--table", "empty")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))

	_, err = c.run(t, "mine", "--table", "nope")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = c.run(t, "mine", "--table", "line", "--linkage", "ward")
	assert.Error(t, err)
}

func TestSaveListLoad(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			c := newCLI(t, backend)

			_, err := c.run(t, "mine", "--table", "line", "--save", "line-single")
			require.NoError(t, err)

			out, err := c.run(t, "list")
			require.NoError(t, err)
			assert.Equal(t, "line-single\n", out)

			out, err = c.run(t, "load", "line-single")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, "level0:\n"))
			assert.Contains(t, out, "level3:\ncluster0:0,1,2,3\n")

			out, err = c.run(t, "load", "line-single", "--matrix")
			require.NoError(t, err)
			assert.Equal(t, "0 1 1 2\n2 3 1 2\n4 5 8 4\n", out)

			_, err = c.run(t, "load", "missing")
			assert.True(t, errors.IsNotFoundError(err))
		})
	}
}

func TestTablesHidesStore(t *testing.T) {
	c := newCLI(t, "sqlite")

	_, err := c.run(t, "mine", "--table", "line", "--save", "x")
	require.NoError(t, err)

	out, err := c.run(t, "tables")
	require.NoError(t, err)
	assert.Equal(t, "empty\nline\n", out)
}

func TestConfigShow(t *testing.T) {
	c := newCLI(t, "file")

	for _, format := range []string{"toml", "json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			out, err := c.run(t, "config", "show", "--format", format)
			require.NoError(t, err)
			assert.Contains(t, out, "dendrograms")
			assert.Contains(t, out, "euclidean")
		})
	}

	_, err := c.run(t, "config", "show", "--format", "xml")
	assert.Error(t, err)
}

func TestFlagOverridesConfig(t *testing.T) {
	c := newCLI(t, "file")

	out, err := c.run(t, "--log-level", "warn", "config", "show", "--format", "json")
	require.NoError(t, err)

	var cfg map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "warn", cfg["log"]["level"])
}
