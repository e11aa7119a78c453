package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/flow"
	"github.com/opsdeck/opsdeck/pkg/render/dot"
)

// Output formats for the graph command.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPNG  = "png"
)

// graphCommand creates the graph command for inspecting and exporting the view.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
		scale    float64
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print or export the graph view",
		Long: `Print or export the graph view.

The view is re-derived from storage on every run: placed entities become
nodes, relationships between placed entities become edges, and everything
else lands in the backlog. Export formats pin the canvas positions so the
diagram matches what the console shows.

PNG output requires librsvg (rsvg-convert) on the PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), format, output, detailed, scale)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout; required for png)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include entity references in node labels")
	cmd.Flags().Float64Var(&scale, "scale", 2.0, "png resolution multiplier")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, format, output string, detailed bool, scale float64) error {
	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	view, err := con.sync.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild view: %w", err)
	}

	data, err := encodeView(view, format, detailed, scale)
	if err != nil {
		return err
	}

	if output == "" {
		if format == formatPNG {
			return fmt.Errorf("png output needs a file, use -o")
		}
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Exported %s", format)
	printFile(output)
	printStats(len(view.Nodes), len(view.Edges), len(view.Backlog))

	return nil
}

func encodeView(view *flow.View, format string, detailed bool, scale float64) ([]byte, error) {
	opts := dot.DefaultOptions()
	opts.Detailed = detailed

	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode view: %w", err)
		}
		return append(data, '\n'), nil
	case formatDOT:
		return []byte(dot.ToDOT(view, opts)), nil
	case formatSVG:
		return dot.RenderSVG(dot.ToDOT(view, opts))
	case formatPNG:
		return dot.RenderPNG(dot.ToDOT(view, opts), scale)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
