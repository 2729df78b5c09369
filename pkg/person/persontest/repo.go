// Package persontest provides instrumented repositories for tests.
package persontest

import (
	"context"
	"errors"
	"sync"

	"github.com/DrSkyle/kinship/pkg/person"
)

// ErrBackend is the failure injected by Repo.FailWith.
var ErrBackend = errors.New("backend offline")

// Repo wraps a person.Repository and records which IDs were fetched. It can
// inject failures and hold calls on a gate to exercise concurrency.
type Repo struct {
	Inner person.Repository

	mu    sync.Mutex
	gets  map[person.ID]int
	lists int
	fail  error
	gate  chan struct{}
}

func New(inner person.Repository) *Repo {
	return &Repo{Inner: inner, gets: make(map[person.ID]int)}
}

// NewDemo wraps the demo family.
func NewDemo() *Repo {
	return New(person.NewDemoStore())
}

// FailWith makes every subsequent call return err. A nil err clears it.
func (r *Repo) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Hold blocks GetPerson calls until the returned release func is called.
func (r *Repo) Hold() (release func()) {
	gate := make(chan struct{})
	r.mu.Lock()
	r.gate = gate
	r.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.gate = nil
			r.mu.Unlock()
			close(gate)
		})
	}
}

// Gets returns how many times GetPerson was called for id.
func (r *Repo) Gets(id person.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets[id]
}

// Calls returns the total number of repository calls.
func (r *Repo) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.lists
	for _, c := range r.gets {
		n += c
	}
	return n
}

func (r *Repo) enter() error {
	r.mu.Lock()
	gate, fail := r.gate, r.fail
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return fail
}

func (r *Repo) GetPerson(ctx context.Context, id person.ID) (person.Person, error) {
	r.mu.Lock()
	r.gets[id]++
	r.mu.Unlock()
	if err := r.enter(); err != nil {
		return person.Person{}, err
	}
	return r.Inner.GetPerson(ctx, id)
}

func (r *Repo) ListChildren(ctx context.Context, id person.ID) ([]person.Person, error) {
	r.count()
	if err := r.enter(); err != nil {
		return nil, err
	}
	return r.Inner.ListChildren(ctx, id)
}

func (r *Repo) ListBySharedParent(ctx context.Context, fatherID, motherID, excludeID person.ID) ([]person.Person, error) {
	r.count()
	if err := r.enter(); err != nil {
		return nil, err
	}
	return r.Inner.ListBySharedParent(ctx, fatherID, motherID, excludeID)
}

func (r *Repo) ListAllPeople(ctx context.Context) ([]person.Person, error) {
	r.count()
	if err := r.enter(); err != nil {
		return nil, err
	}
	return r.Inner.ListAllPeople(ctx)
}

func (r *Repo) count() {
	r.mu.Lock()
	r.lists++
	r.mu.Unlock()
}
