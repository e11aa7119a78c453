package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// stashCommand creates the stash command group for the transporter
// holding area.
func (c *CLI) stashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Inspect the transporter stash",
		Long: `Inspect the transporter stash.

The stash is the holding area items land in when dragged onto the
transporter. These commands only see shared state with stash_backend: redis;
the memory backend lives and dies with the server process.`,
	}

	cmd.AddCommand(c.stashListCommand())
	cmd.AddCommand(c.stashRemoveCommand())
	cmd.AddCommand(c.stashClearCommand())

	return cmd
}

func (c *CLI) stashListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stashed items, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStashList(cmd.Context())
		},
	}
}

func (c *CLI) runStashList(ctx context.Context) error {
	con, err := c.openStashConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	items, err := con.state.Stash().List(ctx)
	if err != nil {
		return fmt.Errorf("list stash: %w", err)
	}

	if len(items) == 0 {
		printInfo("Stash is empty")
		return nil
	}

	for _, item := range items {
		printKeyValue(item.Ref.NodeID(), item.Title+"  "+StyleDim.Render(item.ID))
	}
	printNewline()
	printDetail("%d item(s)", len(items))

	return nil
}

func (c *CLI) stashRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one stashed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStashRemove(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runStashRemove(ctx context.Context, id string) error {
	con, err := c.openStashConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	if err := con.state.Stash().Remove(ctx, id); err != nil {
		return fmt.Errorf("remove stash item: %w", err)
	}
	printSuccess("Removed %s", id)

	return nil
}

func (c *CLI) stashClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the stash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStashClear(cmd.Context())
		},
	}
}

func (c *CLI) runStashClear(ctx context.Context) error {
	con, err := c.openStashConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	if err := con.state.Stash().Clear(ctx); err != nil {
		return fmt.Errorf("clear stash: %w", err)
	}
	printSuccess("Stash cleared")

	return nil
}

// openStashConsole opens the console and rejects the memory stash backend,
// which is always empty from a one-shot command.
func (c *CLI) openStashConsole(ctx context.Context) (*console, error) {
	con, err := c.openConsole(ctx)
	if err != nil {
		return nil, err
	}
	if con.cfg.StashBackend != stashBackendRedis {
		con.Close()
		return nil, fmt.Errorf("the stash commands need a shared backend; set stash_backend: redis in config.yaml")
	}
	return con, nil
}
