package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/resolver"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newNetworkCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "network <id>",
		Short: "Show the resolved relatives of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args, 0)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, a *app.App) error {
				set, err := a.Cache.Get(ctx, id)
				if err != nil {
					return err
				}
				return writeNetwork(cmd.OutOrStdout(), set, format)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	return cmd
}

func writeNetwork(w io.Writer, set *resolver.RelationshipSet, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(set); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	fmt.Fprintf(w, "%s #%d\n", set.Person.DisplayName(), set.Person.ID)
	groups := []struct {
		name   string
		people []person.Person
	}{
		{"Parents", set.Parents},
		{"Spouse", spouseList(set)},
		{"Children", set.Children},
		{"Siblings", set.Siblings},
		{"Grandparents", set.Grandparents},
		{"Grandchildren", set.Grandchildren},
	}
	for _, g := range groups {
		fmt.Fprintf(w, "  %-14s %s\n", g.name+":", joinPeople(g.people))
	}
	return nil
}

func spouseList(set *resolver.RelationshipSet) []person.Person {
	if set.Spouse == nil {
		return nil
	}
	return []person.Person{*set.Spouse}
}

func joinPeople(people []person.Person) string {
	if len(people) == 0 {
		return "-"
	}
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = fmt.Sprintf("%s #%d", p.DisplayName(), p.ID)
	}
	return strings.Join(names, ", ")
}
