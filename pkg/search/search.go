// Package search finds people by name or location and filters them with
// CEL expressions.
package search

import (
	"fmt"
	"slices"
	"strings"

	"github.com/DrSkyle/kinship/pkg/person"
)

// Field selects which attributes a term is matched against.
type Field string

const (
	FieldName     Field = "personname"
	FieldLocation Field = "location"
	FieldBoth     Field = "both"
)

// ParseField accepts the API names plus the short "name" alias. An empty
// string means FieldBoth.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "all":
		return FieldBoth, nil
	case "personname", "name":
		return FieldName, nil
	case "location", "currentlocation":
		return FieldLocation, nil
	}
	return "", fmt.Errorf("unknown search field %q", s)
}

// Match returns the people whose selected field contains term,
// case-insensitively, ordered by name. An empty term matches everyone.
func Match(people []person.Person, term string, field Field) []person.Person {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]person.Person, 0, len(people))
	for _, p := range people {
		if term == "" || matches(p, term, field) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, person.ByName)
	return out
}

func matches(p person.Person, term string, field Field) bool {
	name := strings.Contains(strings.ToLower(p.Name), term)
	loc := strings.Contains(strings.ToLower(p.Location), term)
	switch field {
	case FieldName:
		return name
	case FieldLocation:
		return loc
	default:
		return name || loc
	}
}
