package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/internal/server"
)

// serveCommand creates the serve command for running the console API.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console HTTP API",
		Long: `Run the console HTTP API.

The server exposes the graph view, the backlog, the drag-and-drop dispatch
endpoint, the connection workflow, schedule confirmation, layout runs and
the transporter stash under /api. It shuts down gracefully on SIGINT.

With stash_backend: redis the transporter stash survives restarts and is
shared with the stash subcommands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, listen string) error {
	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	if listen == "" {
		listen = con.cfg.Listen
	}

	srv := server.New(server.Config{
		Repos:    con.repos,
		Links:    con.links,
		Sync:     con.sync,
		Engine:   con.engine,
		Workflow: con.workflow,
		Router:   con.router,
		State:    con.state,
		Bus:      con.bus,
		Logger:   c.Logger,
	})

	c.Logger.Info("starting console", "db", con.cfg.DataDir, "stash", con.cfg.StashBackend)
	return srv.ListenAndServe(ctx, listen)
}
