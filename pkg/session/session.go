// Package session implements the tree mutation API: a viewing session holds
// the current root, the per-person expansion state and the latest built
// tree, and every mutation rebuilds the tree from the network cache.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/resolver"
	"github.com/DrSkyle/kinship/pkg/tree"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidExpansionTarget is returned when a mutation names a person
	// that is not in the current tree.
	ErrInvalidExpansionTarget = errors.New("person is not in the current tree")

	// ErrNoRoot is returned by mutations issued before the session has a root.
	ErrNoRoot = errors.New("session has no root")
)

// DefaultConcurrency bounds the parallel fetches issued by ExpandAll.
const DefaultConcurrency = 4

// Cache is the network cache as seen by a session.
type Cache interface {
	tree.Source
	Get(ctx context.Context, id person.ID) (*resolver.RelationshipSet, error)
}

// Session is safe for concurrent use, but is meant for a single viewer.
type Session struct {
	ID string

	cache       Cache
	logger      *slog.Logger
	tracer      trace.Tracer
	concurrency int

	mu    sync.Mutex
	root  person.ID
	state tree.ExpansionState
	tree  *tree.Node
	// gen advances whenever the tree is reset (ReRoot, CollapseAll). Bulk
	// fetches started in an older generation are not folded into the tree.
	gen uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConcurrency sets the ExpandAll fetch limit.
func WithConcurrency(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.ID = id
		}
	}
}

func New(cache Cache, opts ...Option) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		cache:       cache,
		logger:      slog.Default(),
		tracer:      otel.Tracer("kinship/session"),
		concurrency: DefaultConcurrency,
		state:       tree.ExpansionState{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.ID)
	return s
}

// Start is an alias of ReRoot for a fresh session.
func (s *Session) Start(ctx context.Context, id person.ID) (*tree.Node, error) {
	return s.ReRoot(ctx, id)
}

// ReRoot discards the current tree and every expansion flag, resolves id
// and builds a single-node tree at id. The target need not be in the
// current tree.
func (s *Session) ReRoot(ctx context.Context, id person.ID) (*tree.Node, error) {
	ctx, span := s.startSpan(ctx, "Session.ReRoot", id)
	defer span.End()

	if _, err := s.cache.Get(ctx, id); err != nil {
		return nil, s.fail(span, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = id
	s.state = tree.ExpansionState{}
	s.gen++
	s.rebuildLocked()
	s.logger.Debug("Re-rooted", "person_id", id)
	return s.tree, nil
}

// ExpandCategory resolves id if needed and expands category c.
func (s *Session) ExpandCategory(ctx context.Context, id person.ID, c tree.Category) (*tree.Node, error) {
	ctx, span := s.startSpan(ctx, "Session.ExpandCategory", id)
	defer span.End()
	span.SetAttributes(attribute.String("category", c.String()))

	if err := s.checkTarget(id); err != nil {
		return nil, s.fail(span, err)
	}
	if _, err := s.cache.Get(ctx, id); err != nil {
		return nil, s.fail(span, err)
	}
	s.warm(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTargetLocked(id); err != nil {
		return nil, s.fail(span, err)
	}
	s.state.Put(id, s.state[id].Set(c, true))
	s.rebuildLocked()
	return s.tree, nil
}

// CollapseCategory collapses category c of id. Its only I/O is re-resolving
// expanded persons that were evicted from the cache.
func (s *Session) CollapseCategory(ctx context.Context, id person.ID, c tree.Category) (*tree.Node, error) {
	if err := s.checkTarget(id); err != nil {
		return nil, err
	}
	s.warm(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTargetLocked(id); err != nil {
		return nil, err
	}
	s.state.Put(id, s.state[id].Set(c, false))
	s.rebuildLocked()
	return s.tree, nil
}

// ToggleCategory expands c when it is collapsed and collapses it otherwise.
func (s *Session) ToggleCategory(ctx context.Context, id person.ID, c tree.Category) (*tree.Node, error) {
	s.mu.Lock()
	expanded := s.state[id].Get(c)
	s.mu.Unlock()
	if expanded {
		return s.CollapseCategory(ctx, id, c)
	}
	return s.ExpandCategory(ctx, id, c)
}

// ToggleAll collapses id when every category is expanded; otherwise it
// resolves id and expands every category.
func (s *Session) ToggleAll(ctx context.Context, id person.ID) (*tree.Node, error) {
	ctx, span := s.startSpan(ctx, "Session.ToggleAll", id)
	defer span.End()

	if err := s.checkTarget(id); err != nil {
		return nil, s.fail(span, err)
	}
	s.warm(ctx)

	s.mu.Lock()
	if err := s.checkTargetLocked(id); err != nil {
		s.mu.Unlock()
		return nil, s.fail(span, err)
	}
	if s.state[id].All() {
		defer s.mu.Unlock()
		s.state.Put(id, tree.Flags{})
		s.rebuildLocked()
		return s.tree, nil
	}
	s.mu.Unlock()

	if _, err := s.cache.Get(ctx, id); err != nil {
		return nil, s.fail(span, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTargetLocked(id); err != nil {
		return nil, s.fail(span, err)
	}
	s.state.Put(id, tree.AllFlags)
	s.rebuildLocked()
	return s.tree, nil
}

// CollapseAll forces id to the collapsed state and cancels the folding of
// any in-flight ExpandAll.
func (s *Session) CollapseAll(ctx context.Context, id person.ID) (*tree.Node, error) {
	if err := s.checkTarget(id); err != nil {
		return nil, err
	}
	s.warm(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTargetLocked(id); err != nil {
		return nil, err
	}
	s.state.Put(id, tree.Flags{})
	s.gen++
	s.rebuildLocked()
	return s.tree, nil
}

// ExpandAll expands every category of id, then resolves each newly shown
// relative in parallel so their own relatives become visible as expandable.
// Each completed fetch triggers a rebuild unless the tree was reset in the
// meantime. Failures while prefetching relatives are logged, not returned.
func (s *Session) ExpandAll(ctx context.Context, id person.ID) (*tree.Node, error) {
	ctx, span := s.startSpan(ctx, "Session.ExpandAll", id)
	defer span.End()

	if err := s.checkTarget(id); err != nil {
		return nil, s.fail(span, err)
	}
	set, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.warm(ctx)

	s.mu.Lock()
	if err := s.checkTargetLocked(id); err != nil {
		s.mu.Unlock()
		return nil, s.fail(span, err)
	}
	s.state.Put(id, tree.AllFlags)
	s.rebuildLocked()
	gen := s.gen
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, rel := range set.Relatives() {
		if _, ok := s.cache.Peek(rel.ID); ok {
			continue
		}
		relID := rel.ID
		g.Go(func() error {
			if _, err := s.cache.Get(gctx, relID); err != nil {
				if gctx.Err() != nil {
					return err
				}
				s.logger.Warn("Prefetch failed", "person_id", relID, "error", err)
				return nil
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.gen != gen {
				return nil
			}
			s.rebuildLocked()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Debug("ExpandAll interrupted", "person_id", id, "error", err)
	}
	span.SetAttributes(attribute.Int("relatives", len(set.Relatives())))

	return s.Tree(), nil
}

// Tree returns the latest built tree, or nil before the first ReRoot.
func (s *Session) Tree() *tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Root returns the current root.
func (s *Session) Root() person.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// State returns a copy of the expansion state.
func (s *Session) State() tree.ExpansionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Generation returns the reset counter.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Snapshot is the root, generation and tree of a session read together.
type Snapshot struct {
	Root       person.ID
	Generation uint64
	Tree       *tree.Node
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Root: s.root, Generation: s.gen, Tree: s.tree}
}

// Expandable reports whether id has any cached relatives.
func (s *Session) Expandable(id person.ID) bool {
	return tree.Expandable(s.cache, id)
}

// Refresh re-resolves evicted entries and rebuilds the tree without
// changing state. It returns ErrNoRoot before the first ReRoot.
func (s *Session) Refresh(ctx context.Context) (*tree.Node, error) {
	if s.Tree() == nil {
		return nil, ErrNoRoot
	}
	s.warm(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()
	return s.tree, nil
}

// warm re-resolves the root and every person with an expansion flag set
// that is missing from the cache, so a rebuild after an invalidation
// reproduces the tree the state describes. It must be called without s.mu
// held. Failures are logged; the affected nodes are built as leaves.
func (s *Session) warm(ctx context.Context) {
	s.mu.Lock()
	ids := make([]person.ID, 0, len(s.state)+1)
	if s.root.Valid() {
		ids = append(ids, s.root)
	}
	for id, f := range s.state {
		if !f.None() && id != s.root {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		if _, ok := s.cache.Peek(id); ok {
			continue
		}
		g.Go(func() error {
			if _, err := s.cache.Get(gctx, id); err != nil {
				if gctx.Err() != nil {
					return err
				}
				s.logger.Warn("Re-resolve failed", "person_id", id, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Debug("Re-resolve interrupted", "error", err)
	}
}

func (s *Session) rebuildLocked() {
	s.tree = tree.Build(s.cache, s.root, s.state)
}

func (s *Session) checkTarget(id person.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkTargetLocked(id)
}

func (s *Session) checkTargetLocked(id person.ID) error {
	if s.tree == nil {
		return ErrNoRoot
	}
	if !s.tree.Contains(id) {
		return fmt.Errorf("%w: %d", ErrInvalidExpansionTarget, id)
	}
	return nil
}

func (s *Session) startSpan(ctx context.Context, name string, id person.ID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int64("person.id", int64(id)),
	))
}

func (s *Session) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
