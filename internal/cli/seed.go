package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/layout"
	"github.com/opsdeck/opsdeck/pkg/rel"
)

// seedCommand creates the seed command for loading demo data.
func (c *CLI) seedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a small demo workshop into the database",
		Long: `Load a small demo workshop into the database.

Creates a goal, a few projects with tasks, an asset with a maintenance
routine, and some inventory, wires them up with typed relationships, and
runs the layout engine over the result. Safe to run on an existing
database; the demo entities are simply added alongside what is there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSeed(cmd.Context())
		},
	}

	return cmd
}

// seedEntity is one demo record to create.
type seedEntity struct {
	key    string
	typ    entity.Type
	title  string
	placed bool
}

// seedLink is one demo relationship, by entity key.
type seedLink struct {
	source, target string
	kind           rel.Kind
}

var seedEntities = []seedEntity{
	{"goal", entity.TypeGoal, "Self-sufficient workshop", true},
	{"greenhouse", entity.TypeProject, "Greenhouse build", true},
	{"workbench", entity.TypeProject, "Workbench rebuild", true},
	{"shelving", entity.TypeProject, "Garage shelving", true},
	{"foundation", entity.TypeTask, "Pour greenhouse foundation", true},
	{"glazing", entity.TypeTask, "Order glazing panels", false},
	{"sanding", entity.TypeTask, "Sand the bench top", false},
	{"tablesaw", entity.TypeAsset, "Table saw", true},
	{"blades", entity.TypeRoutine, "Sharpen saw blades", true},
	{"lumber", entity.TypeInventory, "2x4 lumber (24 pcs)", false},
	{"screws", entity.TypeInventory, "Wood screws 4x40", false},
}

var seedLinks = []seedLink{
	{"greenhouse", "goal", rel.KindSupports},
	{"workbench", "goal", rel.KindSupports},
	{"workbench", "shelving", rel.KindBlocks},
	{"foundation", "greenhouse", rel.KindSubTaskOf},
	{"sanding", "workbench", rel.KindSubTaskOf},
	{"blades", "tablesaw", rel.KindMaintains},
	{"tablesaw", "workbench", rel.KindSupports},
}

func (c *CLI) runSeed(ctx context.Context) error {
	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	spin := newSpinnerWithContext(ctx, "Seeding demo workshop...")
	spin.Start()

	refs := make(map[string]entity.Ref, len(seedEntities))
	for _, se := range seedEntities {
		repo, err := con.repos.For(se.typ)
		if err != nil {
			spin.StopWithError("Seed failed")
			return err
		}
		rec := &entity.Record{Title: se.title}
		if se.placed {
			// Throwaway positions; the layout run below overwrites them.
			x, y := 40.0, 40.0
			rec.FlowX, rec.FlowY = &x, &y
		}
		id, err := repo.Create(ctx, rec)
		if err != nil {
			spin.StopWithError("Seed failed")
			return fmt.Errorf("create %s %q: %w", se.typ, se.title, err)
		}
		refs[se.key] = entity.Ref{Type: se.typ, ID: id}
	}

	for _, sl := range seedLinks {
		if _, err := con.links.Link(ctx, refs[sl.source], refs[sl.target], sl.kind); err != nil {
			spin.StopWithError("Seed failed")
			return fmt.Errorf("link %s %s %s: %w", sl.source, sl.kind, sl.target, err)
		}
	}

	view, err := con.sync.Rebuild(ctx)
	if err != nil {
		spin.StopWithError("Seed failed")
		return fmt.Errorf("rebuild view: %w", err)
	}
	if _, err := con.engine.Run(ctx, view, layout.DirectionLR); err != nil {
		spin.StopWithError("Seed failed")
		return fmt.Errorf("run layout: %w", err)
	}
	spin.Stop()

	printSuccess("Seeded %d entities and %d links", len(seedEntities), len(seedLinks))
	printStats(len(view.Nodes), len(view.Edges), len(view.Backlog))
	printNewline()
	printNextStep("Start the console", "opsdeck serve")

	return nil
}
