// Package graphdb stores people as (:Person) nodes in Neo4j. Parent and
// spouse references are kept as node properties, which the queries read, and
// mirrored as PARENT_OF and SPOUSE_OF relationships for graph browsing.
package graphdb

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

const label = "Person"

const (
	childrenQuery = `MATCH (n:Person) WHERE n.fatherId = $id OR n.motherId = $id RETURN n ORDER BY n.id`

	unlinkQuery = `MATCH (n:Person {id: $id})
OPTIONAL MATCH (:Person)-[p:PARENT_OF]->(n)
OPTIONAL MATCH (n)-[s:SPOUSE_OF]->(:Person)
DELETE p, s`

	linkParentsQuery = `MATCH (n:Person {id: $id}), (p:Person) WHERE p.id IN $parents
MERGE (p)-[:PARENT_OF]->(n)`

	linkChildrenQuery = `MATCH (n:Person {id: $id}), (c:Person) WHERE c.fatherId = $id OR c.motherId = $id
MERGE (n)-[:PARENT_OF]->(c)`

	linkSpouseQuery = `MATCH (n:Person {id: $id}), (s:Person {id: $spouse})
MERGE (n)-[:SPOUSE_OF]->(s)`

	raiseCounterQuery = `MERGE (s:IdSequence {name: 'person'})
ON CREATE SET s.next = $id
ON MATCH SET s.next = CASE WHEN s.next < $id THEN $id ELSE s.next END`

	nextIDQuery = `MERGE (s:IdSequence {name: 'person'})
ON CREATE SET s.next = 0
SET s.next = s.next + 1
RETURN s.next AS next`
)

type Store struct {
	runner Runner
	logger *slog.Logger
}

func New(runner Runner, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{runner: runner, logger: logger}
}

func (s *Store) run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	res, err := s.runner.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", person.ErrRepositoryUnavailable, err)
	}
	return res, nil
}

func (s *Store) runBuilder(ctx context.Context, qb *gocypher.QueryBuilder) (*neo4j.EagerResult, error) {
	query, params, err := qb.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}
	return s.run(ctx, query, params)
}

func matchPerson(id person.ID) *gocypher.QueryBuilder {
	return gocypher.NewQueryBuilder().
		Match(gocypher.N("n", label).WithProperties(map[string]interface{}{"id": int64(id)}))
}

func (s *Store) GetPerson(ctx context.Context, id person.ID) (person.Person, error) {
	res, err := s.runBuilder(ctx, matchPerson(id).Return("n"))
	if err != nil {
		return person.Person{}, err
	}
	people, err := decodeRecords(res)
	if err != nil {
		return person.Person{}, err
	}
	switch len(people) {
	case 0:
		return person.Person{}, person.ErrNotFound
	case 1:
		return people[0], nil
	}
	return person.Person{}, fmt.Errorf("%w: %d nodes share id %d", person.ErrRepositoryUnavailable, len(people), id)
}

func (s *Store) ListChildren(ctx context.Context, id person.ID) ([]person.Person, error) {
	res, err := s.run(ctx, childrenQuery, map[string]interface{}{"id": int64(id)})
	if err != nil {
		return nil, err
	}
	return decodeRecords(res)
}

func (s *Store) ListBySharedParent(ctx context.Context, fatherID, motherID, excludeID person.ID) ([]person.Person, error) {
	params := map[string]interface{}{"exclude": int64(excludeID)}
	var cond string
	switch {
	case fatherID.Valid() && motherID.Valid():
		cond = "(n.fatherId = $father OR n.motherId = $mother)"
		params["father"], params["mother"] = int64(fatherID), int64(motherID)
	case fatherID.Valid():
		cond = "n.fatherId = $father"
		params["father"] = int64(fatherID)
	case motherID.Valid():
		cond = "n.motherId = $mother"
		params["mother"] = int64(motherID)
	default:
		return nil, nil
	}
	query := "MATCH (n:Person) WHERE " + cond + " AND n.id <> $exclude RETURN n ORDER BY n.id"
	res, err := s.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return decodeRecords(res)
}

func (s *Store) ListAllPeople(ctx context.Context) ([]person.Person, error) {
	res, err := s.runBuilder(ctx, gocypher.NewQueryBuilder().
		Match(gocypher.N("n", label)).
		Return("n"))
	if err != nil {
		return nil, err
	}
	return decodeRecords(res)
}

// Put merges p on its id, refreshes its relationships and raises the ID
// sequence to at least p.ID.
func (s *Store) Put(ctx context.Context, p person.Person) error {
	if !p.ID.Valid() {
		return person.ErrInvalidPerson
	}
	qb := gocypher.NewQueryBuilder().
		Merge(gocypher.N("n", label).WithProperties(map[string]interface{}{"id": int64(p.ID)})).
		Set(properties(p)).
		Return("n")
	if _, err := s.runBuilder(ctx, qb); err != nil {
		return err
	}

	id := map[string]interface{}{"id": int64(p.ID)}
	if _, err := s.run(ctx, unlinkQuery, id); err != nil {
		return err
	}
	var parents []int64
	for _, pid := range []person.ID{p.FatherID, p.MotherID} {
		if pid.Valid() {
			parents = append(parents, int64(pid))
		}
	}
	if len(parents) > 0 {
		if _, err := s.run(ctx, linkParentsQuery, map[string]interface{}{"id": int64(p.ID), "parents": parents}); err != nil {
			return err
		}
	}
	if _, err := s.run(ctx, linkChildrenQuery, id); err != nil {
		return err
	}
	if p.SpouseID.Valid() {
		if _, err := s.run(ctx, linkSpouseQuery, map[string]interface{}{"id": int64(p.ID), "spouse": int64(p.SpouseID)}); err != nil {
			return err
		}
	}
	_, err := s.run(ctx, raiseCounterQuery, id)
	return err
}

func (s *Store) Remove(ctx context.Context, id person.ID) error {
	if _, err := s.GetPerson(ctx, id); err != nil {
		return err
	}
	_, err := s.runBuilder(ctx, matchPerson(id).DetachDelete("n"))
	return err
}

func (s *Store) NextID(ctx context.Context) (person.ID, error) {
	res, err := s.run(ctx, nextIDQuery, nil)
	if err != nil {
		return 0, err
	}
	if len(res.Records) != 1 {
		return 0, fmt.Errorf("%w: id sequence returned %d rows", person.ErrRepositoryUnavailable, len(res.Records))
	}
	v, _ := res.Records[0].Get("next")
	next, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: id sequence returned %T", person.ErrRepositoryUnavailable, v)
	}
	return person.ID(next), nil
}

// properties returns the SET clause for p. Absent values are written as null,
// which removes the property.
func properties(p person.Person) map[string]interface{} {
	props := map[string]interface{}{
		"n.name":      p.Name,
		"n.gender":    nullString(string(p.Gender)),
		"n.location":  nullString(p.Location),
		"n.fatherId":  nullID(p.FatherID),
		"n.motherId":  nullID(p.MotherID),
		"n.spouseId":  nullID(p.SpouseID),
		"n.birthdate": nil,
	}
	if p.BirthDate != nil {
		props["n.birthdate"] = p.BirthDate.String()
	}
	return props
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullID(id person.ID) interface{} {
	if !id.Valid() {
		return nil
	}
	return int64(id)
}

func decodeRecords(res *neo4j.EagerResult) ([]person.Person, error) {
	people := make([]person.Person, 0, len(res.Records))
	for _, record := range res.Records {
		v, ok := record.Get("n")
		if !ok {
			return nil, fmt.Errorf("could not find return value 'n' in query result")
		}
		node, ok := v.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("return value 'n' is not a node")
		}
		p, err := decodeNode(node)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	slices.SortFunc(people, func(a, b person.Person) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return people, nil
}

func decodeNode(node neo4j.Node) (person.Person, error) {
	props := node.Props
	p := person.Person{
		ID:       intProp(props, "id"),
		Name:     stringProp(props, "name"),
		Gender:   person.ParseGender(stringProp(props, "gender")),
		Location: stringProp(props, "location"),
		FatherID: intProp(props, "fatherId"),
		MotherID: intProp(props, "motherId"),
		SpouseID: intProp(props, "spouseId"),
	}
	bd, err := person.ParseDate(stringProp(props, "birthdate"))
	if err != nil {
		return person.Person{}, fmt.Errorf("node %d: %w", p.ID, err)
	}
	p.BirthDate = bd
	return p, nil
}

func intProp(props map[string]any, key string) person.ID {
	if v, ok := props[key].(int64); ok {
		return person.ID(v)
	}
	return 0
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

var _ person.RecordStore = (*Store)(nil)
