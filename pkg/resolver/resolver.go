// Package resolver derives a person's extended relationships (parents,
// spouse, children, siblings, grandparents, grandchildren) from the raw
// parent and spouse references held by a person.Repository.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DrSkyle/kinship/pkg/person"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Resolver builds RelationshipSets from a Repository.
type Resolver struct {
	repo   person.Repository
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(repo person.Repository, opts ...Option) *Resolver {
	r := &Resolver{
		repo:   repo,
		logger: slog.Default(),
		tracer: otel.Tracer("kinship/resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the full RelationshipSet for id. It fails with
// person.ErrNotFound when id does not exist and wraps every other repository
// failure in person.ErrRepositoryUnavailable. Missing relatives referenced by
// id are skipped.
func (r *Resolver) Resolve(ctx context.Context, id person.ID) (*RelationshipSet, error) {
	ctx, span := r.tracer.Start(ctx, "Resolver.Resolve", trace.WithAttributes(attribute.Int64("person.id", int64(id))))
	defer span.End()

	set, err := r.resolve(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("relations.children", len(set.Children)),
		attribute.Int("relations.siblings", len(set.Siblings)),
	)
	return set, nil
}

func (r *Resolver) resolve(ctx context.Context, id person.ID) (*RelationshipSet, error) {
	subject, err := r.repo.GetPerson(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	set := &RelationshipSet{Person: subject}

	// Parents, father first.
	for _, pid := range []person.ID{subject.FatherID, subject.MotherID} {
		p, ok, err := r.optional(ctx, pid)
		if err != nil {
			return nil, err
		}
		if ok {
			set.Parents = append(set.Parents, p)
		}
	}

	spouse, ok, err := r.optional(ctx, subject.SpouseID)
	if err != nil {
		return nil, err
	}
	if ok {
		set.Spouse = &spouse
		if spouse.SpouseID != subject.ID {
			r.logger.Debug("Asymmetric spouse link", "person_id", subject.ID, "spouse_id", spouse.ID, "spouse_of_spouse", spouse.SpouseID)
		}
	}

	children, err := r.repo.ListChildren(ctx, subject.ID)
	if err != nil {
		return nil, classify(err)
	}
	set.Children = children

	if subject.HasParents() {
		candidates, err := r.repo.ListBySharedParent(ctx, subject.FatherID, subject.MotherID, subject.ID)
		if err != nil {
			return nil, classify(err)
		}
		for _, c := range candidates {
			if c.ID != subject.ID && subject.SharesParentWith(c) {
				set.Siblings = append(set.Siblings, c)
			}
		}
	}

	seen := make(map[person.ID]bool)
	for _, parent := range set.Parents {
		for _, gid := range []person.ID{parent.FatherID, parent.MotherID} {
			if !gid.Valid() || seen[gid] {
				continue
			}
			g, ok, err := r.optional(ctx, gid)
			if err != nil {
				return nil, err
			}
			if ok {
				seen[gid] = true
				set.Grandparents = append(set.Grandparents, g)
			}
		}
	}

	seen = make(map[person.ID]bool)
	for _, child := range set.Children {
		grandkids, err := r.repo.ListChildren(ctx, child.ID)
		if err != nil {
			return nil, classify(err)
		}
		for _, g := range grandkids {
			if !seen[g.ID] {
				seen[g.ID] = true
				set.Grandchildren = append(set.Grandchildren, g)
			}
		}
	}

	return set, nil
}

// optional fetches a referenced relative, treating a zero ID or a dangling
// reference as absent.
func (r *Resolver) optional(ctx context.Context, id person.ID) (person.Person, bool, error) {
	if !id.Valid() {
		return person.Person{}, false, nil
	}
	p, err := r.repo.GetPerson(ctx, id)
	if errors.Is(err, person.ErrNotFound) {
		r.logger.Debug("Dangling relationship reference", "person_id", id)
		return person.Person{}, false, nil
	}
	if err != nil {
		return person.Person{}, false, classify(err)
	}
	return p, true, nil
}

func classify(err error) error {
	if errors.Is(err, person.ErrNotFound) || errors.Is(err, person.ErrRepositoryUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", person.ErrRepositoryUnavailable, err)
}
