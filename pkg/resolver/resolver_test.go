package resolver

import (
	"context"
	"testing"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/person/persontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idsOf(people []person.Person) []person.ID {
	out := make([]person.ID, 0, len(people))
	for _, p := range people {
		out = append(out, p.ID)
	}
	return out
}

func TestResolve_DemoFamily(t *testing.T) {
	r := New(person.NewDemoStore())

	set, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, person.ID(1), set.Person.ID)
	assert.Equal(t, []person.ID{3, 4}, idsOf(set.Parents))
	require.NotNil(t, set.Spouse)
	assert.Equal(t, person.ID(2), set.Spouse.ID)
	assert.Equal(t, []person.ID{7, 8}, idsOf(set.Children))
	assert.Empty(t, set.Siblings)
	assert.Empty(t, set.Grandparents)
	assert.Empty(t, set.Grandchildren)
}

func TestResolve_GrandRelations(t *testing.T) {
	r := New(person.NewDemoStore())

	david, err := r.Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []person.ID{3, 4, 5, 6}, idsOf(david.Grandparents))
	assert.Equal(t, []person.ID{8}, idsOf(david.Siblings))

	robert, err := r.Resolve(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []person.ID{7, 8}, idsOf(robert.Grandchildren))

	mary, err := r.Resolve(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []person.ID{9}, idsOf(mary.Siblings))
}

func TestResolve_GrandparentsDeduplicated(t *testing.T) {
	// Both parents are children of the same couple.
	store := person.NewMemoryStore(
		person.Person{ID: 1, Name: "G1"},
		person.Person{ID: 2, Name: "G2"},
		person.Person{ID: 3, Name: "F", FatherID: 1, MotherID: 2},
		person.Person{ID: 4, Name: "M", FatherID: 1, MotherID: 2},
		person.Person{ID: 5, Name: "Kid", FatherID: 3, MotherID: 4},
	)
	set, err := New(store).Resolve(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []person.ID{1, 2}, idsOf(set.Grandparents))

	g1, err := New(store).Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []person.ID{5}, idsOf(g1.Grandchildren))
}

func TestResolve_NotFound(t *testing.T) {
	_, err := New(person.NewDemoStore()).Resolve(context.Background(), 404)
	assert.ErrorIs(t, err, person.ErrNotFound)
}

func TestResolve_DanglingReferencesSkipped(t *testing.T) {
	store := person.NewMemoryStore(
		person.Person{ID: 1, Name: "Solo", FatherID: 90, MotherID: 91, SpouseID: 92},
	)
	set, err := New(store).Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, set.Parents)
	assert.Nil(t, set.Spouse)
	assert.True(t, set.Empty())
}

func TestResolve_RepositoryFailureWrapped(t *testing.T) {
	repo := persontest.NewDemo()
	repo.FailWith(persontest.ErrBackend)

	_, err := New(repo).Resolve(context.Background(), 1)
	assert.ErrorIs(t, err, person.ErrRepositoryUnavailable)
	assert.ErrorIs(t, err, persontest.ErrBackend)
}

func TestResolve_NoSiblingQueryWithoutParents(t *testing.T) {
	repo := &leakyRepo{MemoryStore: person.NewDemoStore()}

	set, err := New(repo).Resolve(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, set.Siblings)
	assert.Zero(t, repo.siblingQueries)
}

func TestResolve_FiltersLeakySiblingResults(t *testing.T) {
	repo := &leakyRepo{MemoryStore: person.NewDemoStore()}

	set, err := New(repo).Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []person.ID{8}, idsOf(set.Siblings))
	assert.Equal(t, 1, repo.siblingQueries)
}

func TestResolve_AsymmetricSpouseTolerated(t *testing.T) {
	store := person.NewMemoryStore(
		person.Person{ID: 1, Name: "A", SpouseID: 2},
		person.Person{ID: 2, Name: "B", SpouseID: 3},
		person.Person{ID: 3, Name: "C"},
	)
	set, err := New(store).Resolve(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, set.Spouse)
	assert.Equal(t, person.ID(2), set.Spouse.ID)
}

func TestCategory(t *testing.T) {
	c, err := ParseCategory("Sibling")
	require.NoError(t, err)
	assert.Equal(t, Siblings, c)

	_, err = ParseCategory("cousins")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	assert.Equal(t, "spouse", Spouse.String())
}

func TestRelatives(t *testing.T) {
	set, err := New(person.NewDemoStore()).Resolve(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []person.ID{5, 6, 1, 7, 8, 9}, idsOf(set.Relatives()))
}

// leakyRepo returns everyone from ListBySharedParent, like a backend that
// compares null parents as equal.
type leakyRepo struct {
	*person.MemoryStore
	siblingQueries int
}

func (r *leakyRepo) ListBySharedParent(ctx context.Context, fatherID, motherID, excludeID person.ID) ([]person.Person, error) {
	r.siblingQueries++
	return r.MemoryStore.ListAllPeople(ctx)
}
