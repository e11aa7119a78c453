package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/entity"
	apperrors "github.com/opsdeck/opsdeck/pkg/errors"
	"github.com/opsdeck/opsdeck/pkg/rel"
)

// linkCommand creates the link command for creating relationships.
func (c *CLI) linkCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "link <source> <target>",
		Short: "Create a relationship between two entities",
		Long: `Create a relationship between two entities.

Entities are named by their reference, e.g. project-3 or task-12. Without
--kind the relationship is inferred from the type pairing (a task dropped on
a project becomes sub_task_of, a project on a goal becomes supports, ...).
Linking an already-linked pair is a no-op and returns the existing link.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLink(cmd.Context(), args[0], args[1], kind)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "relationship kind: blocks, supports, maintains, relates_to, sub_task_of")

	return cmd
}

func (c *CLI) runLink(ctx context.Context, sourceID, targetID, kind string) error {
	source, err := parseRef(sourceID)
	if err != nil {
		return err
	}
	target, err := parseRef(targetID)
	if err != nil {
		return err
	}

	k := rel.DefaultKind(source.Type, target.Type)
	if kind != "" {
		if err := apperrors.ValidateRelationship(kind); err != nil {
			return err
		}
		k = rel.Kind(kind)
	}

	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	id, err := con.links.Link(ctx, source, target, k)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}

	printSuccess("%s %s %s",
		StyleHighlight.Render(source.NodeID()),
		StyleDim.Render(string(k)),
		StyleHighlight.Render(target.NodeID()))
	printDetail("link id %d", id)

	return nil
}

// unlinkCommand creates the unlink command for deleting relationships.
func (c *CLI) unlinkCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "unlink <source> <target>",
		Short: "Delete relationships between two entities",
		Long: `Delete relationships between two entities.

Without --kind every relationship from source to target is deleted;
with --kind only that one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUnlink(cmd.Context(), args[0], args[1], kind)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "relationship kind to delete (default: all)")

	return cmd
}

func (c *CLI) runUnlink(ctx context.Context, sourceID, targetID, kind string) error {
	source, err := parseRef(sourceID)
	if err != nil {
		return err
	}
	target, err := parseRef(targetID)
	if err != nil {
		return err
	}

	var k *rel.Kind
	if kind != "" {
		if err := apperrors.ValidateRelationship(kind); err != nil {
			return err
		}
		kk := rel.Kind(kind)
		k = &kk
	}

	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	deleted, err := con.links.Unlink(ctx, source, target, k)
	if err != nil {
		return fmt.Errorf("unlink: %w", err)
	}

	if deleted == 0 {
		printInfo("No links between %s and %s", source.NodeID(), target.NodeID())
		return nil
	}
	printSuccess("Deleted %d link(s)", deleted)

	return nil
}

// connectionsCommand creates the connections command for listing links.
func (c *CLI) connectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections <ref>",
		Short: "List relationships touching an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConnections(cmd.Context(), args[0])
		},
	}

	return cmd
}

func (c *CLI) runConnections(ctx context.Context, refID string) error {
	ref, err := parseRef(refID)
	if err != nil {
		return err
	}

	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	links, err := con.links.Connections(ctx, ref)
	if err != nil {
		return fmt.Errorf("list connections: %w", err)
	}

	if len(links) == 0 {
		printInfo("No connections for %s", ref.NodeID())
		return nil
	}

	for _, l := range links {
		fmt.Printf("  %s %s %s %s\n",
			StyleValue.Render(l.Source.NodeID()),
			StyleDim.Render(string(l.Kind)),
			StyleDim.Render(iconArrow),
			StyleValue.Render(l.Target.NodeID()))
	}
	printNewline()
	printDetail("%d connection(s)", len(links))

	return nil
}

// parseRef turns an entity reference string ("project-3") into a Ref.
func parseRef(s string) (entity.Ref, error) {
	typ, id, err := apperrors.ParseEntityRef(s)
	if err != nil {
		return entity.Ref{}, err
	}
	return entity.Ref{Type: entity.Type(typ), ID: id}, nil
}
