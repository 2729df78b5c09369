// Package kv stores people in an embedded BadgerDB database. Each person is
// a msgpack-encoded record under "person/<zero-padded id>"; the next free ID
// is kept under "meta/next_id".
package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/DrSkyle/kinship/pkg/person"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	personPrefix = []byte("person/")
	nextIDKey    = []byte("meta/next_id")
)

// Config holds configuration for the Badger-backed store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string
	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool
	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool
	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *slog.Logger
}

// DefaultConfig returns durable settings for path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Store implements person.RecordStore.
type Store struct {
	db *badger.DB
}

// Open creates and opens the database.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// record is the persisted form of a person.
type record struct {
	ID        int64  `msgpack:"id"`
	Name      string `msgpack:"name"`
	BirthDate string `msgpack:"birthdate,omitempty"`
	Gender    string `msgpack:"gender,omitempty"`
	Location  string `msgpack:"location,omitempty"`
	FatherID  int64  `msgpack:"father,omitempty"`
	MotherID  int64  `msgpack:"mother,omitempty"`
	SpouseID  int64  `msgpack:"spouse,omitempty"`
}

func toRecord(p person.Person) record {
	r := record{
		ID:       int64(p.ID),
		Name:     p.Name,
		Gender:   string(p.Gender),
		Location: p.Location,
		FatherID: int64(p.FatherID),
		MotherID: int64(p.MotherID),
		SpouseID: int64(p.SpouseID),
	}
	if p.BirthDate != nil {
		r.BirthDate = p.BirthDate.String()
	}
	return r
}

func (r record) person() (person.Person, error) {
	bd, err := person.ParseDate(r.BirthDate)
	if err != nil {
		return person.Person{}, err
	}
	return person.Person{
		ID:        person.ID(r.ID),
		Name:      r.Name,
		BirthDate: bd,
		Gender:    person.ParseGender(r.Gender),
		Location:  r.Location,
		FatherID:  person.ID(r.FatherID),
		MotherID:  person.ID(r.MotherID),
		SpouseID:  person.ID(r.SpouseID),
	}, nil
}

func personKey(id person.ID) []byte {
	return []byte(fmt.Sprintf("person/%020d", int64(id)))
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", person.ErrRepositoryUnavailable, err)
}

func (s *Store) GetPerson(ctx context.Context, id person.ID) (person.Person, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(personKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return person.Person{}, person.ErrNotFound
	}
	if err != nil {
		return person.Person{}, unavailable(err)
	}
	return rec.person()
}

// scan decodes every person and returns those accepted by keep, in ID order.
func (s *Store) scan(ctx context.Context, keep func(person.Person) bool) ([]person.Person, error) {
	var out []person.Person
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = personPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(personPrefix); it.ValidForPrefix(personPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec record
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			p, err := rec.person()
			if err != nil {
				return err
			}
			if keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func (s *Store) ListChildren(ctx context.Context, id person.ID) ([]person.Person, error) {
	return s.scan(ctx, func(p person.Person) bool { return p.IsChildOf(id) })
}

func (s *Store) ListBySharedParent(ctx context.Context, fatherID, motherID, excludeID person.ID) ([]person.Person, error) {
	probe := person.Person{FatherID: fatherID, MotherID: motherID}
	return s.scan(ctx, func(p person.Person) bool {
		return p.ID != excludeID && probe.SharesParentWith(p)
	})
}

func (s *Store) ListAllPeople(ctx context.Context) ([]person.Person, error) {
	return s.scan(ctx, func(person.Person) bool { return true })
}

// Put stores p and advances the ID counter past p.ID.
func (s *Store) Put(ctx context.Context, p person.Person) error {
	if !p.ID.Valid() {
		return person.ErrInvalidPerson
	}
	val, err := msgpack.Marshal(toRecord(p))
	if err != nil {
		return fmt.Errorf("encode person %d: %w", p.ID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(personKey(p.ID), val); err != nil {
			return err
		}
		next, err := readCounter(txn)
		if err != nil {
			return err
		}
		if p.ID >= next {
			return writeCounter(txn, p.ID+1)
		}
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id person.ID) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(personKey(id)); err != nil {
			return err
		}
		return txn.Delete(personKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return person.ErrNotFound
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) NextID(ctx context.Context) (person.ID, error) {
	var id person.ID
	err := s.db.Update(func(txn *badger.Txn) error {
		next, err := readCounter(txn)
		if err != nil {
			return err
		}
		id = next
		return writeCounter(txn, next+1)
	})
	if err != nil {
		return 0, unavailable(err)
	}
	return id, nil
}

// Count returns the number of stored people.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = personPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(personPrefix); it.ValidForPrefix(personPrefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func readCounter(txn *badger.Txn) (person.ID, error) {
	item, err := txn.Get(nextIDKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	var next person.ID
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt id counter (%d bytes)", len(val))
		}
		next = person.ID(binary.BigEndian.Uint64(val))
		return nil
	})
	return next, err
}

func writeCounter(txn *badger.Txn, next person.ID) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(next))
	return txn.Set(nextIDKey, buf)
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

var _ person.RecordStore = (*Store)(nil)
