package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/DrSkyle/kinship/pkg/tree"
	"github.com/charmbracelet/lipgloss"
)

const statusTTL = 4 * time.Second

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state {
	case ViewStateSearch:
		body = m.viewSearch()
	case ViewStateDetail:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.viewTree(), m.viewDetails())
	default:
		body = m.viewTree()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		body,
		m.viewFooter(),
	)
}

func (m Model) viewHeader() string {
	title := titleStyle.Render("KINSHIP")
	info := dimStyle.Render(fmt.Sprintf("session %s", shortID(m.session.ID)))
	if root, ok := m.rootNode(); ok {
		info = dimStyle.Render(fmt.Sprintf("root %s #%d · %d people", root.Person.DisplayName(), root.ID, len(m.lines)))
	}
	return hudStyle.Render(lipgloss.JoinHorizontal(lipgloss.Center, title, " ", info))
}

func (m Model) viewTree() string {
	if len(m.lines) == 0 {
		if m.busy {
			return fmt.Sprintf("\n\n   %s Resolving relatives...", m.spinner.View())
		}
		if m.err != nil {
			return "\n\n   " + danger.Render(m.err.Error())
		}
		return "\n\n   " + dimStyle.Render("Nothing to show.")
	}

	s := strings.Builder{}
	start, end := m.calculateWindow(len(m.lines))
	for i := start; i < end; i++ {
		l := m.lines[i]
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		row := dimStyle.Render(l.Prefix) + labelStyle(l.Node).Render(tree.Label(l.Node))
		if i == m.cursor {
			row = listSelectedStyle.Render(l.Prefix + tree.Label(l.Node))
		}
		s.WriteString(prefix + row + "\n")
	}
	if end < len(m.lines) {
		s.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(m.lines)-end)) + "\n")
	}
	return s.String()
}

func labelStyle(n *tree.Node) lipgloss.Style {
	switch {
	case n.Role == tree.RoleRoot:
		return highlight
	case !n.Resolved:
		return warning
	case n.Expandable && n.Flags.None():
		return special
	default:
		return listNormalStyle
	}
}

func (m Model) viewSearch() string {
	s := strings.Builder{}
	s.WriteString(m.input.View() + "\n\n")
	if m.busy && m.everyone == nil {
		s.WriteString(fmt.Sprintf("   %s Loading people...", m.spinner.View()))
		return s.String()
	}
	if len(m.results) == 0 {
		s.WriteString(dimStyle.Render("   No matches."))
		return s.String()
	}
	for i, p := range m.results {
		row := fmt.Sprintf("%-4d %-24s %s", p.ID, p.DisplayName(), p.Location)
		if i == m.resultsCursor {
			s.WriteString("> " + listSelectedStyle.Render(row) + "\n")
			continue
		}
		s.WriteString("  " + listNormalStyle.Render(row) + "\n")
	}
	return s.String()
}

func (m Model) viewFooter() string {
	var parts []string
	if m.busy {
		parts = append(parts, m.spinner.View())
	}
	if m.statusMsg != "" && time.Since(m.statusTime) < statusTTL {
		style := special
		if m.err != nil {
			style = danger
		}
		parts = append(parts, style.Render(m.statusMsg))
	}

	keys := "enter all · p/s/c/b parents/spouse/children/siblings · a expand all · x collapse · r re-root · / search · d details · q quit"
	if m.state == ViewStateSearch {
		keys = "enter re-root · ↑/↓ select · esc back"
	}
	parts = append(parts, dimStyle.Render(keys))
	return "\n" + strings.Join(parts, "  ")
}

func (m Model) rootNode() (*tree.Node, bool) {
	if len(m.lines) == 0 {
		return nil, false
	}
	return m.lines[0].Node, true
}

func (m Model) calculateWindow(total int) (int, int) {
	windowSize := m.height - 8
	if windowSize < 5 {
		windowSize = 5
	}

	start := m.cursor - (windowSize / 2)
	if start < 0 {
		start = 0
	}
	end := start + windowSize
	if end > total {
		end = total
		start = end - windowSize
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
