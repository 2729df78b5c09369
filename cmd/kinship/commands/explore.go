package commands

import (
	"context"
	"errors"

	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/tui"
	"github.com/spf13/cobra"
)

func newExploreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explore [id]",
		Short: "Explore the family tree interactively",
		Long: `Open the terminal explorer rooted at the given person. Without an id the
first person in the store is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) error {
				root, err := exploreRoot(ctx, a, args)
				if err != nil {
					return err
				}
				return tui.Run(ctx, a.NewSession(), a.Store, root)
			})
		},
	}
}

func exploreRoot(ctx context.Context, a *app.App, args []string) (person.ID, error) {
	if len(args) == 1 {
		return parseIDArg(args, 0)
	}
	people, err := a.Store.ListAllPeople(ctx)
	if err != nil {
		return 0, err
	}
	if len(people) == 0 {
		return 0, errors.New("the store is empty; run 'kinship seed' first")
	}
	return people[0].ID, nil
}
