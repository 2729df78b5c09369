package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/DrSkyle/kinship/pkg/config"
	"github.com/DrSkyle/kinship/pkg/export"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI against the in-memory demo family and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("KINSHIP_TELEMETRY_DISABLED", "true")
	t.Setenv("KINSHIP_LOG_LEVEL", "error")

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "kinship.yaml")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTreeText(t *testing.T) {
	out, err := execute(t, "tree", "1")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "tree_depth1", []byte(out))
}

func TestTreeDepthJSON(t *testing.T) {
	out, err := execute(t, "tree", "7", "--expand", "parents", "--depth", "2", "--format", "json")
	require.NoError(t, err)

	var doc export.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, int64(7), doc.RootID)
	assert.Equal(t, 7, doc.Nodes, "David, both parents and four grandparents")
}

func TestTreeDepthZero(t *testing.T) {
	out, err := execute(t, "tree", "1", "--depth", "0")
	require.NoError(t, err)
	assert.Equal(t, "John Smith #1 (root) +\n", out)
}

func TestTreeErrors(t *testing.T) {
	_, err := execute(t, "tree", "abc")
	assert.ErrorContains(t, err, "invalid person id")

	_, err = execute(t, "tree", "99")
	assert.ErrorIs(t, err, person.ErrNotFound)

	_, err = execute(t, "tree", "1", "--expand", "cousins")
	assert.Error(t, err)

	_, err = execute(t, "tree", "1", "--format", "csv")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestNetwork(t *testing.T) {
	out, err := execute(t, "network", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "John Smith #1")
	assert.Contains(t, out, "Robert Smith #3, Jennifer Smith #4")
	assert.Contains(t, out, "Mary Smith #2")
	assert.Contains(t, out, "David Smith #7, Lisa Smith #8")
}

func TestNetworkJSON(t *testing.T) {
	out, err := execute(t, "network", "7", "--format", "json")
	require.NoError(t, err)

	var set struct {
		Grandparents []person.Person `json:"grandparents"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &set))
	assert.Len(t, set.Grandparents, 4)
}

func TestSearch(t *testing.T) {
	out, err := execute(t, "search", "smith", "--filter", "birth_year < 1960")
	require.NoError(t, err)
	assert.Contains(t, out, "Robert Smith")
	assert.Contains(t, out, "Jennifer Smith")
	assert.NotContains(t, out, "Mary Smith")

	out, err = execute(t, "search", "boston", "--field", "location")
	require.NoError(t, err)
	assert.Contains(t, out, "Michael Johnson")
	assert.Contains(t, out, "Sarah Johnson")

	out, err = execute(t, "search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches.")

	_, err = execute(t, "search", "--filter", "name +")
	assert.Error(t, err)

	_, err = execute(t, "search", "--field", "email")
	assert.Error(t, err)
}

func TestExportLocal(t *testing.T) {
	dest := t.TempDir()
	out, err := execute(t, "export", "1", "--dest", dest, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "[SUCCESS] Exported 6 people")

	files, err := filepath.Glob(filepath.Join(dest, "tree-1-*.yaml"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "root_id: 1")
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`people:
  - id: 1
    name: Ada
  - id: 2
    name: Byron
    father: 1
`), 0o600))

	out, err := execute(t, "seed", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 people into the memory store")

	out, err = execute(t, "seed", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, "John Smith")

	_, err = execute(t, "seed")
	assert.ErrorContains(t, err, "seed file is required")
}

func TestBackendFlag(t *testing.T) {
	_, err := execute(t, "--backend", "sqlite", "tree", "1")
	assert.ErrorContains(t, err, "unknown backend")
}

func TestHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "KINSHIP")
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "explore")
	assert.Contains(t, out, "serve")
}

func TestExploreRootDefaultsToFirstPerson(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Telemetry.Disabled = true
	a, err := app.New(context.Background(), app.WithConfig(cfg))
	require.NoError(t, err)
	defer a.Close(context.Background())

	id, err := exploreRoot(context.Background(), a, nil)
	require.NoError(t, err)
	assert.Equal(t, person.ID(1), id)

	id, err = exploreRoot(context.Background(), a, []string{"9"})
	require.NoError(t, err)
	assert.Equal(t, person.ID(9), id)
}
