package tree

import (
	"fmt"
	"io"

	"github.com/DrSkyle/kinship/pkg/person"
)

// Line is one row of a flattened tree.
type Line struct {
	Node   *Node
	Prefix string
	Depth  int
}

// Text returns the full rendered row.
func (l Line) Text() string { return l.Prefix + Label(l.Node) }

// Label renders a node without its tree prefix. Resolved nodes with hidden
// relatives are suffixed with "+", unresolved ones with "?".
func Label(n *Node) string {
	s := fmt.Sprintf("%s #%d (%s)", n.Person.DisplayName(), n.ID, n.Role)
	switch {
	case !n.Resolved:
		s += " ?"
	case n.Expandable && n.Flags.None():
		s += " +"
	}
	return s
}

// Flatten lists the tree in display order with box-drawing prefixes.
func Flatten(root *Node) []Line {
	lines := []Line{{Node: root}}
	var walk func(n *Node, indent string, depth int)
	walk = func(n *Node, indent string, depth int) {
		for i, c := range n.Children {
			branch, next := "├── ", indent+"│   "
			if i == len(n.Children)-1 {
				branch, next = "└── ", indent+"    "
			}
			lines = append(lines, Line{Node: c, Prefix: indent + branch, Depth: depth})
			walk(c, next, depth+1)
		}
	}
	walk(root, "", 1)
	return lines
}

// RenderText writes the tree as an indented outline.
func RenderText(w io.Writer, root *Node) error {
	for _, l := range Flatten(root) {
		if _, err := fmt.Fprintln(w, l.Text()); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotNode is the serialisable form of a Node.
type SnapshotNode struct {
	ID         person.ID      `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Role       Role           `json:"role" yaml:"role"`
	Person     *person.Person `json:"person,omitempty" yaml:"person,omitempty"`
	Expanded   []string       `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Resolved   bool           `json:"resolved" yaml:"resolved"`
	Expandable bool           `json:"expandable" yaml:"expandable"`
	Children   []SnapshotNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Snapshot converts a tree into its serialisable form.
func Snapshot(n *Node) SnapshotNode {
	s := SnapshotNode{
		ID:         n.ID,
		Name:       n.Person.DisplayName(),
		Role:       n.Role,
		Resolved:   n.Resolved,
		Expandable: n.Expandable,
	}
	if n.Person.ID.Valid() {
		p := n.Person
		s.Person = &p
	}
	for _, c := range n.Flags.Expanded() {
		s.Expanded = append(s.Expanded, c.String())
	}
	for _, c := range n.Children {
		s.Children = append(s.Children, Snapshot(c))
	}
	return s
}
