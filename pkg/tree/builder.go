// Package tree turns the cyclic relationship graph into a rooted,
// duplicate-free tree according to per-person expansion state.
package tree

import (
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/resolver"
)

// Role describes how a node was reached from its tree parent.
type Role string

const (
	RoleRoot    Role = "root"
	RoleParent  Role = "parent"
	RoleSpouse  Role = "spouse"
	RoleChild   Role = "child"
	RoleSibling Role = "sibling"
)

func roleFor(c Category) Role {
	switch c {
	case Parents:
		return RoleParent
	case Spouse:
		return RoleSpouse
	case Children:
		return RoleChild
	default:
		return RoleSibling
	}
}

// Source is a read-only view of resolved relationship sets. The network
// cache satisfies it.
type Source interface {
	Peek(id person.ID) (*resolver.RelationshipSet, bool)
}

// Node is one person in a built tree.
type Node struct {
	ID       person.ID
	Person   person.Person
	Role     Role
	Flags    Flags
	Children []*Node
	// Resolved is true when the person's relationships are cached.
	Resolved bool
	// Expandable is true when the person is resolved and has at least one
	// relative in any category.
	Expandable bool
}

// Build constructs the tree rooted at rootID. It performs no I/O: persons
// whose relationships are not in src are rendered as leaves. Each person
// appears at most once; when a person is reachable along several paths the
// first one found breadth-first wins, visiting parents, spouse, children and
// siblings in that order at every node.
func Build(src Source, rootID person.ID, state ExpansionState) *Node {
	root := &Node{ID: rootID, Role: RoleRoot, Flags: state[rootID]}
	if set, ok := src.Peek(rootID); ok {
		root.Person = set.Person
		root.Resolved = true
		root.Expandable = !set.Empty()
	}

	visited := map[person.ID]bool{rootID: true}
	queue := []*Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if n.Flags.None() {
			continue
		}
		set, ok := src.Peek(n.ID)
		if !ok {
			continue
		}
		for _, c := range resolver.Categories {
			if !n.Flags.Get(c) {
				continue
			}
			for _, p := range set.Category(c) {
				if visited[p.ID] {
					continue
				}
				visited[p.ID] = true
				child := newNode(src, p, roleFor(c), state)
				n.Children = append(n.Children, child)
				queue = append(queue, child)
			}
		}
	}
	return root
}

func newNode(src Source, p person.Person, role Role, state ExpansionState) *Node {
	n := &Node{ID: p.ID, Person: p, Role: role, Flags: state[p.ID]}
	if set, ok := src.Peek(p.ID); ok {
		n.Person = set.Person
		n.Resolved = true
		n.Expandable = !set.Empty()
	}
	return n
}

// Expandable reports whether id is resolved and has at least one relative.
func Expandable(src Source, id person.ID) bool {
	set, ok := src.Peek(id)
	return ok && !set.Empty()
}

// Walk visits n and its descendants depth-first in display order. Returning
// false from fn stops the walk.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn, depth+1) {
			return false
		}
	}
	return true
}

// Find returns the node for id, or nil.
func (n *Node) Find(id person.ID) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// Contains reports whether id is in the tree.
func (n *Node) Contains(id person.ID) bool { return n.Find(id) != nil }

// IDs returns every node ID in display order.
func (n *Node) IDs() []person.ID {
	var ids []person.ID
	n.Walk(func(node *Node, _ int) bool {
		ids = append(ids, node.ID)
		return true
	})
	return ids
}

// Len returns the number of nodes.
func (n *Node) Len() int { return len(n.IDs()) }
