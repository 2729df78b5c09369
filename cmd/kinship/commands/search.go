package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/search"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var field, filter string
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Find people by name or location",
		Long: `Search people by a case-insensitive substring of their name, location or
both. --filter narrows the result with a CEL expression, for example:

  kinship search smith --filter 'age >= 18 && location == "New York"'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := search.ParseField(field)
			if err != nil {
				return err
			}
			var flt *search.Filter
			if filter != "" {
				if flt, err = search.CompileFilter(filter); err != nil {
					return err
				}
			}
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			return opts.run(cmd, func(ctx context.Context, a *app.App) error {
				people, err := a.Store.ListAllPeople(ctx)
				if err != nil {
					return err
				}
				found := search.Match(people, term, f)
				if flt != nil {
					found = flt.Apply(found)
				}
				if len(found) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), peopleTable(found))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&field, "field", "both", "Field to match: personname, location or both")
	cmd.Flags().StringVar(&filter, "filter", "", "CEL expression over id, name, age, birth_year, gender, location, has_father, has_mother, has_spouse")
	return cmd
}

func peopleTable(people []person.Person) string {
	now := time.Now()
	rows := make([][]string, 0, len(people))
	for _, p := range people {
		age := "-"
		if a := p.Age(now); a >= 0 {
			age = strconv.Itoa(a)
		}
		rows = append(rows, []string{p.ID.String(), p.DisplayName(), age, string(p.Gender), p.Location})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))).
		Headers("ID", "NAME", "AGE", "GENDER", "LOCATION").
		Rows(rows...).
		Render()
}
