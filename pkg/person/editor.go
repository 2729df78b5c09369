package person

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Editor applies create, update and delete operations to a RecordStore while
// keeping spouse links reciprocal and clearing dangling parent references.
type Editor struct {
	store RecordStore
}

func NewEditor(store RecordStore) *Editor {
	return &Editor{store: store}
}

// Create assigns a fresh ID to p, stores it and links the chosen spouse back.
func (e *Editor) Create(ctx context.Context, p Person) (Person, error) {
	p.ID = 0
	if err := e.validate(ctx, p); err != nil {
		return Person{}, err
	}
	id, err := e.store.NextID(ctx)
	if err != nil {
		return Person{}, unavailable(err)
	}
	p.ID = id
	if err := e.store.Put(ctx, p); err != nil {
		return Person{}, unavailable(err)
	}
	if p.SpouseID.Valid() {
		if err := e.setSpouse(ctx, p.SpouseID, p.ID); err != nil {
			return Person{}, err
		}
	}
	return p, nil
}

// Update replaces the record stored under id. When the spouse changes the old
// spouse's backlink is cleared and the new spouse is linked back.
func (e *Editor) Update(ctx context.Context, id ID, p Person) (Person, error) {
	old, err := e.store.GetPerson(ctx, id)
	if err != nil {
		return Person{}, lookupErr(err)
	}
	p.ID = id
	if err := e.validate(ctx, p); err != nil {
		return Person{}, err
	}
	if err := e.store.Put(ctx, p); err != nil {
		return Person{}, unavailable(err)
	}
	if old.SpouseID != p.SpouseID {
		if old.SpouseID.Valid() {
			if err := e.clearSpouse(ctx, old.SpouseID, id); err != nil {
				return Person{}, err
			}
		}
		if p.SpouseID.Valid() {
			if err := e.setSpouse(ctx, p.SpouseID, id); err != nil {
				return Person{}, err
			}
		}
	}
	return p, nil
}

// Delete removes id, unlinks its spouse and clears the parent reference on
// each of its children.
func (e *Editor) Delete(ctx context.Context, id ID) (Person, error) {
	p, err := e.store.GetPerson(ctx, id)
	if err != nil {
		return Person{}, lookupErr(err)
	}
	if p.SpouseID.Valid() {
		if err := e.clearSpouse(ctx, p.SpouseID, id); err != nil {
			return Person{}, err
		}
	}
	children, err := e.store.ListChildren(ctx, id)
	if err != nil {
		return Person{}, unavailable(err)
	}
	for _, c := range children {
		if c.FatherID == id {
			c.FatherID = 0
		}
		if c.MotherID == id {
			c.MotherID = 0
		}
		if err := e.store.Put(ctx, c); err != nil {
			return Person{}, unavailable(err)
		}
	}
	if err := e.store.Remove(ctx, id); err != nil {
		return Person{}, lookupErr(err)
	}
	return p, nil
}

func (e *Editor) validate(ctx context.Context, p Person) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPerson)
	}
	if p.FatherID.Valid() && p.FatherID == p.MotherID {
		return fmt.Errorf("%w: father and mother must differ", ErrInvalidPerson)
	}
	refs := []struct {
		field string
		id    ID
	}{
		{"fatherid", p.FatherID},
		{"motherid", p.MotherID},
		{"spouseid", p.SpouseID},
	}
	for _, ref := range refs {
		if !ref.id.Valid() {
			continue
		}
		if p.ID.Valid() && ref.id == p.ID {
			return fmt.Errorf("%w: %s references itself", ErrInvalidPerson, ref.field)
		}
		if _, err := e.store.GetPerson(ctx, ref.id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: %s %d does not exist", ErrInvalidPerson, ref.field, ref.id)
			}
			return unavailable(err)
		}
	}
	return nil
}

func (e *Editor) setSpouse(ctx context.Context, target, spouse ID) error {
	p, err := e.store.GetPerson(ctx, target)
	if err != nil {
		return lookupErr(err)
	}
	p.SpouseID = spouse
	if err := e.store.Put(ctx, p); err != nil {
		return unavailable(err)
	}
	return nil
}

// clearSpouse unlinks target only if it still points at spouse.
func (e *Editor) clearSpouse(ctx context.Context, target, spouse ID) error {
	p, err := e.store.GetPerson(ctx, target)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return unavailable(err)
	}
	if p.SpouseID != spouse {
		return nil
	}
	p.SpouseID = 0
	if err := e.store.Put(ctx, p); err != nil {
		return unavailable(err)
	}
	return nil
}

func lookupErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return unavailable(err)
}

func unavailable(err error) error {
	if errors.Is(err, ErrRepositoryUnavailable) || errors.Is(err, ErrInvalidPerson) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
}
