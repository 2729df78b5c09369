package person

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Queries(t *testing.T) {
	ctx := context.Background()
	s := NewDemoStore()

	p, err := s.GetPerson(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "John Smith", p.Name)

	_, err = s.GetPerson(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	kids, err := s.ListChildren(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []ID{7, 8}, ids(kids))

	sibs, err := s.ListBySharedParent(ctx, 5, 6, 2)
	require.NoError(t, err)
	assert.Equal(t, []ID{9}, ids(sibs))

	// Grandparents have no parents; null must never match null.
	none, err := s.ListBySharedParent(ctx, 0, 0, 3)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := s.ListAllPeople(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	next, err := s.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, ID(11), next)
}

func TestEditor_CreateLinksSpouse(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Person{ID: 1, Name: "Ann"})
	e := NewEditor(s)

	created, err := e.Create(ctx, Person{Name: "Ben", SpouseID: 1})
	require.NoError(t, err)
	assert.Equal(t, ID(2), created.ID)

	ann, err := s.GetPerson(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ID(2), ann.SpouseID)
}

func TestEditor_CreateValidation(t *testing.T) {
	ctx := context.Background()
	e := NewEditor(NewMemoryStore(Person{ID: 1, Name: "Ann"}))

	_, err := e.Create(ctx, Person{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidPerson)

	_, err = e.Create(ctx, Person{Name: "Orphan", FatherID: 44})
	assert.ErrorIs(t, err, ErrInvalidPerson)

	_, err = e.Create(ctx, Person{Name: "Twice", FatherID: 1, MotherID: 1})
	assert.ErrorIs(t, err, ErrInvalidPerson)
}

func TestEditor_UpdateMovesSpouseLink(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(
		Person{ID: 1, Name: "Ann", SpouseID: 2},
		Person{ID: 2, Name: "Ben", SpouseID: 1},
		Person{ID: 3, Name: "Cara"},
	)
	e := NewEditor(s)

	_, err := e.Update(ctx, 1, Person{Name: "Ann", SpouseID: 3})
	require.NoError(t, err)

	ben, _ := s.GetPerson(ctx, 2)
	cara, _ := s.GetPerson(ctx, 3)
	assert.False(t, ben.SpouseID.Valid())
	assert.Equal(t, ID(1), cara.SpouseID)

	_, err = e.Update(ctx, 1, Person{Name: "Ann", SpouseID: 1})
	assert.ErrorIs(t, err, ErrInvalidPerson)

	_, err = e.Update(ctx, 77, Person{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditor_DeleteClearsReferences(t *testing.T) {
	ctx := context.Background()
	s := NewDemoStore()
	e := NewEditor(s)

	_, err := e.Delete(ctx, 1)
	require.NoError(t, err)

	_, err = s.GetPerson(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	mary, _ := s.GetPerson(ctx, 2)
	assert.False(t, mary.SpouseID.Valid())

	for _, id := range []ID{7, 8} {
		kid, _ := s.GetPerson(ctx, id)
		assert.False(t, kid.FatherID.Valid())
		assert.Equal(t, ID(2), kid.MotherID)
	}

	_, err = e.Delete(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func ids(people []Person) []ID {
	out := make([]ID, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}
