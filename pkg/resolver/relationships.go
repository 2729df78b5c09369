package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DrSkyle/kinship/pkg/person"
)

// Category is one of the four expandable relationship groups of a tree node.
type Category int

const (
	Parents Category = iota
	Spouse
	Children
	Siblings
)

// Categories lists every Category in discovery order.
var Categories = [...]Category{Parents, Spouse, Children, Siblings}

var categoryNames = [...]string{"parents", "spouse", "children", "siblings"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ErrUnknownCategory is returned by ParseCategory.
var ErrUnknownCategory = errors.New("unknown relationship category")

// ParseCategory accepts the category name or its singular form.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parents", "parent":
		return Parents, nil
	case "spouse", "spouses":
		return Spouse, nil
	case "children", "child":
		return Children, nil
	case "siblings", "sibling":
		return Siblings, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// RelationshipSet is the resolved neighbourhood of one person.
type RelationshipSet struct {
	Person        person.Person   `json:"person"`
	Parents       []person.Person `json:"parents"`
	Spouse        *person.Person  `json:"spouse,omitempty"`
	Children      []person.Person `json:"children"`
	Siblings      []person.Person `json:"siblings"`
	Grandparents  []person.Person `json:"grandparents"`
	Grandchildren []person.Person `json:"grandchildren"`
}

// Category returns the relatives placed under c when a tree node is expanded.
func (s *RelationshipSet) Category(c Category) []person.Person {
	switch c {
	case Parents:
		return s.Parents
	case Spouse:
		if s.Spouse == nil {
			return nil
		}
		return []person.Person{*s.Spouse}
	case Children:
		return s.Children
	case Siblings:
		return s.Siblings
	}
	return nil
}

// Empty reports whether none of the four tree categories has a member.
func (s *RelationshipSet) Empty() bool {
	for _, c := range Categories {
		if len(s.Category(c)) > 0 {
			return false
		}
	}
	return true
}

// Relatives returns every distinct person in the four tree categories.
func (s *RelationshipSet) Relatives() []person.Person {
	seen := map[person.ID]bool{s.Person.ID: true}
	var out []person.Person
	for _, c := range Categories {
		for _, p := range s.Category(c) {
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, p)
			}
		}
	}
	return out
}
