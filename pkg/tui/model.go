// Package tui is the terminal tree explorer. It drives a session.Session
// from key presses and renders the flattened tree.
package tui

import (
	"context"
	"time"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/session"
	"github.com/DrSkyle/kinship/pkg/tree"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type ViewState int

const (
	ViewStateTree ViewState = iota
	ViewStateDetail
	ViewStateSearch
)

// People lists everyone for the search box.
type People interface {
	ListAllPeople(ctx context.Context) ([]person.Person, error)
}

type Model struct {
	spinner spinner.Model
	input   textinput.Model

	ctx     context.Context
	session *session.Session
	people  People
	rootID  person.ID

	state    ViewState
	busy     bool
	quitting bool
	err      error
	width    int
	height   int

	lines  []tree.Line
	cursor int

	everyone      []person.Person
	results       []person.Person
	resultsCursor int

	statusMsg  string
	statusTime time.Time
}

// treeMsg carries the outcome of a session mutation.
type treeMsg struct {
	root *tree.Node
	err  error
	// focus is the person the cursor should land on after the rebuild.
	focus person.ID
}

type peopleMsg struct {
	people []person.Person
	err    error
}

func NewModel(ctx context.Context, sess *session.Session, people People, rootID person.ID) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = special

	ti := textinput.New()
	ti.Placeholder = "name or location"
	ti.CharLimit = 100
	ti.Prompt = "/ "

	return Model{
		spinner: s,
		input:   ti,
		ctx:     ctx,
		session: sess,
		people:  people,
		rootID:  rootID,
		state:   ViewStateTree,
		busy:    true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.reRoot(m.rootID))
}

// Run starts the explorer in the alternate screen and blocks until it exits.
func Run(ctx context.Context, sess *session.Session, people People, rootID person.ID) error {
	p := tea.NewProgram(NewModel(ctx, sess, people, rootID), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.err != nil && len(m.lines) == 0 {
		return m.err
	}
	return nil
}

type mutation func(ctx context.Context, id person.ID) (*tree.Node, error)

func (m Model) mutate(fn mutation, id person.ID) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		root, err := fn(ctx, id)
		return treeMsg{root: root, err: err, focus: id}
	}
}

func (m Model) reRoot(id person.ID) tea.Cmd {
	return m.mutate(m.session.ReRoot, id)
}

func (m Model) toggle(c tree.Category) mutation {
	return func(ctx context.Context, id person.ID) (*tree.Node, error) {
		return m.session.ToggleCategory(ctx, id, c)
	}
}

func (m Model) loadPeople() tea.Cmd {
	ctx, people := m.ctx, m.people
	return func() tea.Msg {
		all, err := people.ListAllPeople(ctx)
		return peopleMsg{people: all, err: err}
	}
}

// selected returns the node under the cursor.
func (m Model) selected() (*tree.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return nil, false
	}
	return m.lines[m.cursor].Node, true
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusTime = time.Now()
}

func (m *Model) applyTree(msg treeMsg) {
	m.busy = false
	if msg.err != nil {
		m.err = msg.err
		m.setStatus("Error: " + msg.err.Error())
		return
	}
	m.err = nil
	if msg.root == nil {
		return
	}
	m.lines = tree.Flatten(msg.root)
	m.cursor = 0
	for i, l := range m.lines {
		if l.Node.ID == msg.focus {
			m.cursor = i
			break
		}
	}
}
