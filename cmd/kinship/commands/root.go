// Package commands implements the kinship command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/DrSkyle/kinship/pkg/config"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/version"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// rootOptions is shared by every subcommand. cfg is filled in by the root
// PersistentPreRunE before any subcommand runs.
type rootOptions struct {
	cfgFile string
	verbose bool
	v       *viper.Viper
	cfg     config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kinship",
		Short: "Family relationship explorer",
		Long: `Kinship - family tree explorer

Resolve relatives. Expand the tree. Export what you see.`,
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "Config file (default $HOME/.kinship.yaml)")
	flags.String("backend", "", "Person store: memory, badger, dynamodb or neo4j")
	flags.Bool("json-logs", false, "Write logs as JSON")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	cmd.AddCommand(
		newExploreCmd(opts),
		newTreeCmd(opts),
		newNetworkCmd(opts),
		newSearchCmd(opts),
		newExportCmd(opts),
		newServeCmd(opts),
		newSeedCmd(opts),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	path := o.cfgFile
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".kinship.yaml")
		}
	}
	v := config.NewViper(path)
	v.SetConfigType("yaml")

	flags := cmd.Flags()
	for key, name := range map[string]string{
		"backend":   "backend",
		"log.json":  "json-logs",
		"log.level": "log-level",
	} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	if o.verbose {
		v.Set("log.level", "debug")
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	o.v = v
	o.cfg = cfg
	return nil
}

// open builds the runtime for a subcommand. Callers must Close it.
func (o *rootOptions) open(cmd *cobra.Command) (*app.App, error) {
	logger := app.NewLogger(cmd.ErrOrStderr(), o.cfg.Log)
	return app.New(cmd.Context(), app.WithConfig(o.cfg), app.WithLogger(logger))
}

// run opens the runtime, runs fn inside a traced, panic-safe scope and
// releases everything afterwards.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			a.Logger.Warn("Shutdown failed", "error", err)
		}
	}()
	return a.Run(cmd.Context(), "kinship."+cmd.Name(), func(ctx context.Context) error {
		return fn(ctx, a)
	})
}

func parseIDArg(args []string, i int) (person.ID, error) {
	id, err := person.ParseID(args[i])
	if err != nil {
		return 0, fmt.Errorf("invalid person id %q", args[i])
	}
	return id, nil
}

func renderHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	if cmd.HasParent() {
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("KINSHIP %s", cmd.Name())))
	} else {
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("KINSHIP %s", version.Current)))
	}
	fmt.Fprintln(out, cmd.Short)
	if cmd.Long != "" && cmd.HasParent() {
		fmt.Fprintln(out, cmd.Long)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, titleStyle.Render("USAGE"))
	fmt.Fprintf(out, "  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(out, titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Fprintf(out, "  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, titleStyle.Render("EXAMPLES"))
		fmt.Fprintln(out, "  kinship explore 1                     # Interactive tree (TUI)")
		fmt.Fprintln(out, "  kinship tree 1 --expand all --depth 2 # Print a tree")
		fmt.Fprintln(out, "  kinship serve --backend badger        # HTTP API")
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, titleStyle.Render("FLAGS"))
	printFlags(out, flagStyle, cmd.Flags())
	if cmd.HasParent() {
		printFlags(out, flagStyle, cmd.InheritedFlags())
	}
	fmt.Fprintln(out)
}

func printFlags(out io.Writer, style lipgloss.Style, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		line := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			line += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Fprintln(out, style.Render(line))
	})
}
