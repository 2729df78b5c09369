package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DrSkyle/kinship/pkg/api"
	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.cfg.Server.Addr
			}
			if !opts.cfg.Server.Debug {
				gin.SetMode(gin.ReleaseMode)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return opts.run(cmd, func(ctx context.Context, a *app.App) error {
				srv := api.NewServer(api.Deps{
					Store:      a.Store,
					Editor:     a.Editor,
					Cache:      a.Cache,
					NewSession: a.NewSession,
					Logger:     a.Logger,
				})
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
	return cmd
}
