package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) viewDetails() string {
	n, ok := m.selected()
	if !ok {
		return detailsBoxStyle.Render("No person selected")
	}
	p := n.Person

	header := detailsHeaderStyle.Render(fmt.Sprintf("%s : #%d", p.DisplayName(), n.ID))

	birth, age := "unknown", ""
	if p.BirthDate != nil {
		birth = p.BirthDate.String()
		age = fmt.Sprintf(" (age %d)", p.Age(time.Now()))
	}

	props := []string{
		fmt.Sprintf("%-10s : %s", "Role", n.Role),
		fmt.Sprintf("%-10s : %s%s", "Born", birth, age),
		fmt.Sprintf("%-10s : %s", "Gender", orDash(string(p.Gender))),
		fmt.Sprintf("%-10s : %s", "Location", orDash(p.Location)),
		fmt.Sprintf("%-10s : %s", "Father", idOrDash(int64(p.FatherID))),
		fmt.Sprintf("%-10s : %s", "Mother", idOrDash(int64(p.MotherID))),
		fmt.Sprintf("%-10s : %s", "Spouse", idOrDash(int64(p.SpouseID))),
	}

	var state string
	switch {
	case !n.Resolved:
		state = warning.Render("NOT RESOLVED")
	case !n.Expandable:
		state = dimStyle.Render("NO RELATIVES")
	case n.Flags.None():
		state = special.Render("COLLAPSED")
	default:
		state = highlight.Render("EXPANDED: " + n.Flags.String())
	}

	return detailsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		strings.Join(props, "\n"),
		"",
		state,
	))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func idOrDash(id int64) string {
	if id <= 0 {
		return "-"
	}
	return fmt.Sprintf("#%d", id)
}
