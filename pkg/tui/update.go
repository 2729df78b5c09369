package tui

import (
	"fmt"

	"github.com/DrSkyle/kinship/pkg/search"
	"github.com/DrSkyle/kinship/pkg/tree"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var categoryKeys = map[string]tree.Category{
	"p": tree.Parents,
	"s": tree.Spouse,
	"c": tree.Children,
	"b": tree.Siblings,
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case treeMsg:
		m.applyTree(msg)
		return m, nil

	case peopleMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.setStatus("Error: " + msg.err.Error())
			m.state = ViewStateTree
			return m, nil
		}
		m.everyone = msg.people
		m.filterResults()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.state == ViewStateSearch {
			return m.updateSearch(msg)
		}
		return m.updateTree(msg)
	}
	return m, nil
}

func (m Model) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.lines)-1 {
			m.cursor++
		}
		return m, nil
	case "d", "tab":
		if m.state == ViewStateDetail {
			m.state = ViewStateTree
		} else {
			m.state = ViewStateDetail
		}
		return m, nil
	case "esc":
		m.state = ViewStateTree
		return m, nil
	case "/":
		m.state = ViewStateSearch
		m.input.Reset()
		focus := m.input.Focus()
		m.resultsCursor = 0
		if m.everyone == nil {
			m.busy = true
			return m, tea.Batch(focus, m.loadPeople())
		}
		m.filterResults()
		return m, focus
	}

	if m.busy {
		return m, nil
	}
	n, ok := m.selected()
	if !ok {
		return m, nil
	}

	var fn mutation
	switch key {
	case "enter", " ":
		fn = m.session.ToggleAll
	case "a":
		fn = m.session.ExpandAll
		m.setStatus(fmt.Sprintf("Expanding %s", n.Person.DisplayName()))
	case "x":
		fn = m.session.CollapseAll
	case "r":
		fn = m.session.ReRoot
		m.setStatus(fmt.Sprintf("Re-rooted at %s", n.Person.DisplayName()))
	default:
		c, ok := categoryKeys[key]
		if !ok {
			return m, nil
		}
		fn = m.toggle(c)
	}
	m.busy = true
	return m, m.mutate(fn, n.ID)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = ViewStateTree
		m.input.Blur()
		return m, nil
	case "up":
		if m.resultsCursor > 0 {
			m.resultsCursor--
		}
		return m, nil
	case "down":
		if m.resultsCursor < len(m.results)-1 {
			m.resultsCursor++
		}
		return m, nil
	case "enter":
		if m.resultsCursor >= len(m.results) {
			return m, nil
		}
		target := m.results[m.resultsCursor]
		m.state = ViewStateTree
		m.input.Blur()
		m.busy = true
		m.setStatus(fmt.Sprintf("Re-rooted at %s", target.DisplayName()))
		return m, m.reRoot(target.ID)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filterResults()
	return m, cmd
}

func (m *Model) filterResults() {
	m.results = search.Match(m.everyone, m.input.Value(), search.FieldBoth)
	if m.resultsCursor >= len(m.results) {
		m.resultsCursor = max(len(m.results)-1, 0)
	}
}
