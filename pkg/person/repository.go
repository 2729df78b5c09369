package person

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a person does not exist.
	ErrNotFound = errors.New("person not found")

	// ErrRepositoryUnavailable wraps any failure of the backing store other
	// than a missing record.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrInvalidPerson is returned when a record fails validation.
	ErrInvalidPerson = errors.New("invalid person")
)

// Repository is the read contract of a person store.
type Repository interface {
	// GetPerson returns ErrNotFound when id does not exist.
	GetPerson(ctx context.Context, id ID) (Person, error)
	// ListChildren returns everyone whose father or mother is id.
	ListChildren(ctx context.Context, id ID) ([]Person, error)
	// ListBySharedParent returns everyone sharing a non-null parent with the
	// given parent pair, excluding excludeID. A zero parent never matches.
	ListBySharedParent(ctx context.Context, fatherID, motherID, excludeID ID) ([]Person, error)
	// ListAllPeople returns every record, in no particular order.
	ListAllPeople(ctx context.Context) ([]Person, error)
}

// RecordStore is a Repository that can be written to.
type RecordStore interface {
	Repository
	// Put inserts or replaces p.
	Put(ctx context.Context, p Person) error
	// Remove deletes id. Removing a missing id returns ErrNotFound.
	Remove(ctx context.Context, id ID) error
	// NextID reserves an unused ID.
	NextID(ctx context.Context) (ID, error)
}
