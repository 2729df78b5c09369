package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		dump bool
		demo bool
	)
	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Load people from a YAML or JSON seed file",
		Long: `Write every person of a seed file into the configured store, keeping their
IDs. --demo loads the built-in demo family instead; --dump prints the store
as a seed document.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dump && !demo && len(args) == 0 {
				return errors.New("a seed file is required (or use --demo / --dump)")
			}
			return opts.run(cmd, func(ctx context.Context, a *app.App) error {
				if dump {
					people, err := a.Store.ListAllPeople(ctx)
					if err != nil {
						return err
					}
					return person.EncodeSeed(cmd.OutOrStdout(), people)
				}

				var people []person.Person
				if demo {
					people = person.DemoFamily()
				} else {
					var err error
					if people, err = person.LoadSeedFile(args[0]); err != nil {
						return err
					}
				}
				if err := person.Seed(ctx, a.Store, people); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[SUCCESS] Seeded %d people into the %s store\n", len(people), opts.cfg.Backend)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the store as a YAML seed document")
	cmd.Flags().BoolVar(&demo, "demo", false, "Load the built-in demo family")
	return cmd
}
