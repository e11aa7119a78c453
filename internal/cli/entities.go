package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/entity"
	apperrors "github.com/opsdeck/opsdeck/pkg/errors"
)

// addCommand creates the add command for creating entities.
func (c *CLI) addCommand() *cobra.Command {
	var (
		place    string
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "add <type> <title>",
		Short: "Create an entity",
		Long: `Create an entity.

Without --place the entity lands in the backlog; with --place it appears on
the graph canvas at the given coordinates. Types: project, goal, routine,
asset, task, inventory, work.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdd(cmd.Context(), args[0], args[1], place, schedule)
		},
	}

	cmd.Flags().StringVar(&place, "place", "", "canvas position as x,y (e.g. 40,180)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "scheduled date as YYYY-MM-DD")

	return cmd
}

func (c *CLI) runAdd(ctx context.Context, typ, title, place, schedule string) error {
	if err := apperrors.ValidateEntityType(typ); err != nil {
		return err
	}
	if err := apperrors.ValidateTitle(title); err != nil {
		return err
	}

	rec := &entity.Record{Title: title}
	if place != "" {
		x, y, err := parsePlace(place)
		if err != nil {
			return err
		}
		rec.FlowX, rec.FlowY = &x, &y
	}
	if schedule != "" {
		if err := apperrors.ValidateDate(schedule); err != nil {
			return err
		}
		date, _ := time.Parse("2006-01-02", schedule)
		rec.ScheduledDate = &date
	}

	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	repo, err := con.repos.For(entity.Type(typ))
	if err != nil {
		return err
	}
	id, err := repo.Create(ctx, rec)
	if err != nil {
		return fmt.Errorf("create %s: %w", typ, err)
	}

	ref := entity.Ref{Type: entity.Type(typ), ID: id}
	printSuccess("Created %s", StyleHighlight.Render(ref.NodeID()))
	if rec.Placed() {
		printDetail("placed at %.0f,%.0f", *rec.FlowX, *rec.FlowY)
	} else {
		printDetail("in backlog")
	}

	return nil
}

// parsePlace parses an "x,y" coordinate pair.
func parsePlace(s string) (float64, float64, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid position %q (want x,y)", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("invalid position %q (want x,y)", s)
	}
	return x, y, nil
}

// listCommand creates the list command for listing entities.
func (c *CLI) listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [type]",
		Short: "List entities",
		Long: `List entities of one type, or of every type when no type is given.

Each line shows the entity reference, its title, and whether it sits on the
canvas, in the backlog, or on the calendar.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := ""
			if len(args) == 1 {
				typ = args[0]
			}
			return c.runList(cmd.Context(), typ)
		},
	}

	return cmd
}

func (c *CLI) runList(ctx context.Context, typ string) error {
	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	types := con.repos.Types()
	if typ != "" {
		if err := apperrors.ValidateEntityType(typ); err != nil {
			return err
		}
		types = []entity.Type{entity.Type(typ)}
	}

	total := 0
	for _, t := range types {
		repo, err := con.repos.For(t)
		if err != nil {
			return err
		}
		records, err := repo.List(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", t, err)
		}
		for _, rec := range records {
			printKeyValue(rec.Ref().NodeID(), rec.Title+"  "+StyleDim.Render(recordStatus(rec)))
			total++
		}
	}

	if total == 0 {
		printInfo("No entities yet")
		printNextStep("Create one", `opsdeck add project "Rebuild the workbench"`)
	}

	return nil
}

// recordStatus summarizes where a record lives.
func recordStatus(rec *entity.Record) string {
	var parts []string
	if rec.Placed() {
		parts = append(parts, fmt.Sprintf("canvas %.0f,%.0f", *rec.FlowX, *rec.FlowY))
	} else {
		parts = append(parts, "backlog")
	}
	if rec.ScheduledDate != nil {
		s := rec.ScheduledDate.Format("2006-01-02")
		if rec.ScheduledTime != "" {
			s += " " + rec.ScheduledTime
		}
		parts = append(parts, "scheduled "+s)
	}
	return strings.Join(parts, ", ")
}
