package tree

import (
	"strings"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/resolver"
)

// Category re-exports the relationship categories for callers that only deal
// with trees.
type Category = resolver.Category

const (
	Parents  = resolver.Parents
	Spouse   = resolver.Spouse
	Children = resolver.Children
	Siblings = resolver.Siblings
)

// ErrUnknownCategory is returned by ParseCategory.
var ErrUnknownCategory = resolver.ErrUnknownCategory

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) { return resolver.ParseCategory(s) }

// Flags records which categories of a node are expanded.
type Flags struct {
	Parents  bool `json:"parents" yaml:"parents"`
	Spouse   bool `json:"spouse" yaml:"spouse"`
	Children bool `json:"children" yaml:"children"`
	Siblings bool `json:"siblings" yaml:"siblings"`
}

// AllFlags has every category expanded.
var AllFlags = Flags{Parents: true, Spouse: true, Children: true, Siblings: true}

func (f Flags) Get(c Category) bool {
	switch c {
	case Parents:
		return f.Parents
	case Spouse:
		return f.Spouse
	case Children:
		return f.Children
	case Siblings:
		return f.Siblings
	}
	return false
}

// Set returns a copy of f with c set to v.
func (f Flags) Set(c Category, v bool) Flags {
	switch c {
	case Parents:
		f.Parents = v
	case Spouse:
		f.Spouse = v
	case Children:
		f.Children = v
	case Siblings:
		f.Siblings = v
	}
	return f
}

func (f Flags) All() bool  { return f == AllFlags }
func (f Flags) None() bool { return f == Flags{} }

// Expanded lists the expanded categories in discovery order.
func (f Flags) Expanded() []Category {
	var out []Category
	for _, c := range resolver.Categories {
		if f.Get(c) {
			out = append(out, c)
		}
	}
	return out
}

func (f Flags) String() string {
	names := make([]string, 0, 4)
	for _, c := range f.Expanded() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

// ParseFlags parses a comma-separated category list, or "all".
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "all":
			return AllFlags, nil
		}
		c, err := ParseCategory(part)
		if err != nil {
			return Flags{}, err
		}
		f = f.Set(c, true)
	}
	return f, nil
}

// ExpansionState maps a person to its expanded categories. A missing entry
// means fully collapsed.
type ExpansionState map[person.ID]Flags

// Clone returns an independent copy.
func (s ExpansionState) Clone() ExpansionState {
	out := make(ExpansionState, len(s))
	for id, f := range s {
		out[id] = f
	}
	return out
}

// Put stores f for id, removing the entry when f is empty.
func (s ExpansionState) Put(id person.ID, f Flags) {
	if f.None() {
		delete(s, id)
		return
	}
	s[id] = f
}
