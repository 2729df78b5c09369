package person

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-memory RecordStore.
type MemoryStore struct {
	mu     sync.RWMutex
	people map[ID]Person
	nextID ID
}

func NewMemoryStore(people ...Person) *MemoryStore {
	s := &MemoryStore{
		people: make(map[ID]Person, len(people)),
		nextID: 1,
	}
	for _, p := range people {
		s.put(p)
	}
	return s
}

func (s *MemoryStore) put(p Person) {
	s.people[p.ID] = p
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
}

func (s *MemoryStore) GetPerson(ctx context.Context, id ID) (Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[id]
	if !ok {
		return Person{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) ListChildren(ctx context.Context, id ID) ([]Person, error) {
	return s.filter(func(p Person) bool { return p.IsChildOf(id) }), nil
}

func (s *MemoryStore) ListBySharedParent(ctx context.Context, fatherID, motherID, excludeID ID) ([]Person, error) {
	probe := Person{FatherID: fatherID, MotherID: motherID}
	return s.filter(func(p Person) bool {
		return p.ID != excludeID && probe.SharesParentWith(p)
	}), nil
}

func (s *MemoryStore) ListAllPeople(ctx context.Context) ([]Person, error) {
	return s.filter(func(Person) bool { return true }), nil
}

// filter returns matches ordered by ID so results are stable.
func (s *MemoryStore) filter(keep func(Person) bool) []Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Person
	for _, p := range s.people {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Person) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *MemoryStore) Put(ctx context.Context, p Person) error {
	if !p.ID.Valid() {
		return ErrInvalidPerson
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(p)
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.people[id]; !ok {
		return ErrNotFound
	}
	delete(s.people, id)
	return nil
}

func (s *MemoryStore) NextID(ctx context.Context) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id, nil
}

// Len returns the number of stored people.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people)
}
