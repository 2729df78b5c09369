package commands

import (
	"context"
	"time"

	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/DrSkyle/kinship/pkg/export"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/session"
	"github.com/DrSkyle/kinship/pkg/tree"
	"github.com/spf13/cobra"
)

// expandOptions selects how far a printed or exported tree is opened.
type expandOptions struct {
	expand string
	depth  int
}

func (e *expandOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.expand, "expand", "all", "Categories to expand: parents,spouse,children,siblings or all")
	cmd.Flags().IntVar(&e.depth, "depth", 1, "Number of generations of nodes to expand")
}

func newTreeCmd(opts *rootOptions) *cobra.Command {
	var (
		exp    expandOptions
		format string
	)
	cmd := &cobra.Command{
		Use:   "tree <id>",
		Short: "Print the family tree of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args, 0)
			if err != nil {
				return err
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, a *app.App) error {
				root, err := exp.build(ctx, a.NewSession(), id)
				if err != nil {
					return err
				}
				return export.Encode(cmd.OutOrStdout(), root, f, time.Now())
			})
		},
	}
	exp.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	return cmd
}

// build roots sess at id and expands the selected categories of every node
// up to the requested depth, one generation at a time.
func (e expandOptions) build(ctx context.Context, sess *session.Session, id person.ID) (*tree.Node, error) {
	flags, err := tree.ParseFlags(e.expand)
	if err != nil {
		return nil, err
	}
	root, err := sess.Start(ctx, id)
	if err != nil {
		return nil, err
	}

	frontier := []person.ID{id}
	for d := 0; d < e.depth && len(frontier) > 0; d++ {
		for _, target := range frontier {
			for _, c := range flags.Expanded() {
				if root, err = sess.ExpandCategory(ctx, target, c); err != nil {
					return nil, err
				}
			}
		}
		var next []person.ID
		for _, target := range frontier {
			if n := root.Find(target); n != nil {
				for _, child := range n.Children {
					next = append(next, child.ID)
				}
			}
		}
		frontier = next
	}
	return root, nil
}
