package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/layout"
)

// layoutCommand creates the layout command for repositioning the graph.
func (c *CLI) layoutCommand() *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute and persist hierarchical node positions",
		Long: `Compute and persist hierarchical node positions.

Placed entities are ranked into layers along "blocks" relationships and
ordered within each layer to reduce edge crossings. The resulting positions
are written back to storage; backlog entities are never touched. The same
graph and direction always produce the same positions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), direction)
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", string(layout.DirectionLR), "layer growth direction: LR or TB")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, direction string) error {
	dir := layout.Direction(direction)
	if !dir.Valid() {
		return fmt.Errorf("unsupported direction %q (want LR or TB)", direction)
	}

	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	view, err := con.sync.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild view: %w", err)
	}

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d nodes...", len(view.Nodes)))
	spin.Start()

	prog := newProgress(c.Logger)
	repositioned, err := con.engine.Run(ctx, view, dir)
	if err != nil {
		spin.StopWithError("Layout failed")
		return fmt.Errorf("run layout: %w", err)
	}
	spin.Stop()
	prog.done(fmt.Sprintf("Repositioned %d nodes", repositioned))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Layout complete (%s)", dir)
	printStats(len(view.Nodes), len(view.Edges), len(view.Backlog))
	printNewline()
	printNextStep("Inspect", "opsdeck graph -f svg -o graph.svg")

	return nil
}
