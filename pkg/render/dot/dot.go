// Package dot renders a graph view as a Graphviz node-link diagram.
//
// The view's node positions are pinned (layout=neato with pos!) so the
// exported diagram matches what the console canvas shows instead of letting
// Graphviz re-layout the graph. Edge styling follows the relationship kind:
// color, dash, and label come straight from the view's edge styles.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/opsdeck/opsdeck/pkg/flow"
)

// pointsPerUnit scales canvas coordinates down to Graphviz points so the
// exported diagram is not absurdly sparse.
const pointsPerUnit = 0.5

// Options configures diagram generation.
type Options struct {
	// Detailed includes the entity reference under each node title.
	Detailed bool

	// Pin keeps the view's coordinates instead of re-running Graphviz
	// layout. Defaults true via DefaultOptions.
	Pin bool
}

// DefaultOptions returns the options used by the CLI export.
func DefaultOptions() Options {
	return Options{Pin: true}
}

// ToDOT converts a view to Graphviz DOT source.
func ToDOT(view *flow.View, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph opsdeck {\n")
	if opts.Pin {
		buf.WriteString("  layout=neato;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range view.Nodes {
		attrs := nodeAttrs(n, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range view.Edges {
		attrs := edgeAttrs(e)
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n flow.Node, opts Options) []string {
	label := n.Title
	if label == "" {
		label = n.ID
	}
	if opts.Detailed {
		label += "\n" + n.ID
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if opts.Pin {
		// Graphviz y grows upward; the canvas grows downward.
		attrs = append(attrs, fmt.Sprintf("pos=\"%.1f,%.1f!\"", n.X*pointsPerUnit, -n.Y*pointsPerUnit))
	}
	return attrs
}

func edgeAttrs(e flow.Edge) []string {
	attrs := []string{fmt.Sprintf("color=%q", e.Style.Color)}
	if e.Style.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Style.Label), "fontsize=10")
	}
	if e.Style.Dashed {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG in process.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg tag so the document scales cleanly when
// embedded: origin at 0 0, explicit width and height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPNG renders DOT source as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return toPNG(svg, scale)
}
