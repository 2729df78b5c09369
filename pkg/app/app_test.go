package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DrSkyle/kinship/pkg/config"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Telemetry.Disabled = true
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestNew_DemoStore(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, WithConfig(testConfig()), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer a.Close(ctx)

	set, err := a.Cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "John Smith", set.Person.Name)

	s := a.NewSession()
	root, err := s.Start(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, person.ID(1), root.ID)
}

func TestNew_SeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.yaml")
	var buf bytes.Buffer
	require.NoError(t, person.EncodeSeed(&buf, person.DemoFamily()[:2]))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	cfg := testConfig()
	cfg.SeedFile = path
	ctx := context.Background()
	a, err := New(ctx, WithConfig(cfg), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer a.Close(ctx)

	all, err := a.Store.ListAllPeople(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNew_BadgerInMemory(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = config.BackendBadger
	cfg.Badger.InMemory = true
	ctx := context.Background()

	a, err := New(ctx, WithConfig(cfg), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer a.Close(ctx)

	created, err := a.Editor.Create(ctx, person.Person{Name: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, person.ID(1), created.ID)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = "sqlite"
	_, err := New(context.Background(), WithConfig(cfg), WithLogger(quietLogger()))
	assert.ErrorContains(t, err, "unknown backend")
}

func TestRun_RecoversPanic(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, WithConfig(testConfig()), WithLogger(quietLogger()), WithStore(person.NewMemoryStore()))
	require.NoError(t, err)

	err = a.Run(ctx, "test", func(context.Context) error { panic("boom") })
	assert.True(t, errors.Is(err, ErrPanic))

	want := errors.New("plain")
	assert.Equal(t, want, a.Run(ctx, "test", func(context.Context) error { return want }))
}

func TestExporter_LocalDestination(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, WithConfig(testConfig()), WithLogger(quietLogger()))
	require.NoError(t, err)

	e, err := a.Exporter(ctx, t.TempDir())
	require.NoError(t, err)
	s := a.NewSession()
	root, err := s.Start(ctx, 1)
	require.NoError(t, err)
	key, err := e.Export(ctx, root, "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "tree-1-"))
}

func TestLogger_Redacts(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LogConfig{Level: "debug", JSON: true})
	logger.Debug("connecting", "password", "hunter2", "uri", "neo4j://db")

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, "neo4j://db")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
