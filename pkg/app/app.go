// Package app assembles the runtime: logger, telemetry, the configured person
// store and the resolver, cache and editor built on top of it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/DrSkyle/kinship/pkg/cloud"
	"github.com/DrSkyle/kinship/pkg/config"
	"github.com/DrSkyle/kinship/pkg/export"
	"github.com/DrSkyle/kinship/pkg/netcache"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/resolver"
	"github.com/DrSkyle/kinship/pkg/session"
	"github.com/DrSkyle/kinship/pkg/storage"
	"github.com/DrSkyle/kinship/pkg/store/dynamo"
	"github.com/DrSkyle/kinship/pkg/store/graphdb"
	"github.com/DrSkyle/kinship/pkg/store/kv"
	"github.com/DrSkyle/kinship/pkg/telemetry"
	"github.com/DrSkyle/kinship/pkg/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrPanic is returned by Run when the wrapped function panicked.
var ErrPanic = errors.New("internal failure")

// App is the runtime core shared by the CLI, the TUI and the HTTP server.
type App struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Store    person.RecordStore
	Resolver *resolver.Resolver
	Cache    *netcache.Cache
	Editor   *person.Editor

	config  config.Config
	closers []func(context.Context) error
}

// Option defines a functional configuration override.
type Option func(*App)

// WithConfig sets the configuration.
func WithConfig(cfg config.Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.Logger = l
		}
	}
}

// WithStore bypasses backend selection.
func WithStore(s person.RecordStore) Option {
	return func(a *App) {
		a.Store = s
	}
}

// New opens the configured backend and wires the resolution pipeline.
func New(ctx context.Context, opts ...Option) (*App, error) {
	a := &App{
		config: config.DefaultConfig(),
		Tracer: otel.Tracer("kinship/app"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = NewLogger(os.Stderr, a.config.Log)
	}
	if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if !a.config.Telemetry.Disabled {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, a.config.Telemetry.OTelEndpoint)
		if err != nil {
			a.Logger.Warn("Telemetry failed", "error", err)
		} else {
			a.closers = append(a.closers, shutdown)
		}
	}

	if a.Store == nil {
		store, err := a.openStore(ctx)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.Store = store
	}

	a.Resolver = resolver.New(a.Store, resolver.WithLogger(a.Logger))
	a.Cache = netcache.New(a.Resolver)
	a.Editor = person.NewEditor(a.Store)
	return a, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() config.Config { return a.config }

func (a *App) openStore(ctx context.Context) (person.RecordStore, error) {
	cfg := a.config
	a.Logger.Debug("Opening person store", "backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendMemory:
		if cfg.SeedFile == "" {
			return person.NewDemoStore(), nil
		}
		people, err := person.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		a.Logger.Info("Loaded seed file", "path", cfg.SeedFile, "people", len(people))
		return person.NewMemoryStore(people...), nil

	case config.BackendBadger:
		bc := kv.DefaultConfig(cfg.Badger.Path)
		bc.InMemory = cfg.Badger.InMemory
		bc.SyncWrites = cfg.Badger.SyncWrites
		bc.Logger = a.Logger.With("component", "badger")
		s, err := kv.Open(bc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		return s, nil

	case config.BackendDynamoDB:
		return dynamo.Open(ctx, dynamo.Config{
			Table:    cfg.DynamoDB.Table,
			Region:   cfg.DynamoDB.Region,
			Profile:  cfg.DynamoDB.Profile,
			Endpoint: cfg.DynamoDB.Endpoint,
		}, a.Logger)

	case config.BackendNeo4j:
		exec, err := graphdb.NewExecutor(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			return nil, err
		}
		if err := exec.Verify(ctx); err != nil {
			_ = exec.Close(ctx)
			return nil, fmt.Errorf("could not connect to neo4j at %s: %w", cfg.Neo4j.URI, err)
		}
		a.closers = append(a.closers, exec.Close)
		return graphdb.New(exec, a.Logger), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// NewSession returns an empty tree session on the shared cache.
func (a *App) NewSession() *session.Session {
	return session.New(a.Cache,
		session.WithLogger(a.Logger),
		session.WithConcurrency(a.config.ExpandAllConcurrency))
}

// Exporter returns an exporter for dest, or the configured destination when
// dest is empty.
func (a *App) Exporter(ctx context.Context, dest string) (*export.Exporter, error) {
	if dest == "" {
		dest = a.config.Export.Destination
	}
	loc, err := storage.ParseLocation(dest)
	if err != nil {
		return nil, err
	}
	var store storage.BlobStore
	if loc.IsS3() {
		c, err := cloud.NewClient(ctx, cloud.Options{
			Region:  a.config.DynamoDB.Region,
			Profile: a.config.DynamoDB.Profile,
			Logger:  a.Logger,
		})
		if err != nil {
			return nil, err
		}
		store = storage.Open(loc, c.Config)
	} else {
		store = storage.NewLocalStore(loc.Path)
	}
	return export.New(store, a.Logger), nil
}

// Run executes fn inside a span. A panic in fn is recorded and returned as
// ErrPanic.
func (a *App) Run(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	ctx, span := a.Tracer.Start(ctx, name)
	defer span.End()
	defer a.recoverPanic(ctx, &err)

	if err = fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// recoverPanic handles failures.
func (a *App) recoverPanic(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		_, span := a.Tracer.Start(ctx, "CriticalPanic")

		stack := debug.Stack()
		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		a.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
		*err = fmt.Errorf("%w: %v", ErrPanic, r)
	}
}

// Close releases the store and flushes telemetry, in reverse order of setup.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
