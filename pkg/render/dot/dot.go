// Package dot renders canvases as Graphviz diagrams: the item tree with its
// connections, and the variable/constraint graph behind it. The DOT output
// can be rasterized to SVG or PNG with the bundled Graphviz engine.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/easelkit/easel/pkg/item"
	"github.com/easelkit/easel/pkg/scene"
	"github.com/easelkit/easel/pkg/solver"
)

// Options configures diagram output.
type Options struct {
	// Detailed includes sizes and canvas positions in node labels. When
	// false, only the item name is shown.
	Detailed bool
}

// SceneDOT converts a built scene to DOT. Containment is drawn with solid
// edges, handle connections with dashed ones.
func SceneDOT(b *scene.Built, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, it := range b.Canvas.Items() {
		attrs := []string{fmt.Sprintf("label=%q", itemLabel(b, it, opts.Detailed))}
		if _, ok := it.(*item.Line); ok {
			attrs = append(attrs, "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", it.ID(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, it := range b.Canvas.Items() {
		if parent := b.Canvas.Parent(it); parent != nil {
			fmt.Fprintf(&buf, "  %q -> %q;\n", parent.ID(), it.ID())
		}
		for _, h := range it.Handles() {
			if to := h.ConnectedTo(); to != nil {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed, constraint=false];\n", it.ID(), to.ID())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func itemLabel(b *scene.Built, it item.Item, detailed bool) string {
	name := b.Name(it)
	if name == "" {
		name = it.ID().String()[:8]
	}
	if !detailed {
		return name
	}

	parts := []string{name}
	if el, ok := it.(*item.Element); ok {
		parts = append(parts, fmt.Sprintf("%g x %g", el.Width(), el.Height()))
	}
	if i2c, err := b.Canvas.MatrixI2C(it); err == nil {
		x, y := i2c.TransformPoint(0, 0)
		parts = append(parts, fmt.Sprintf("at (%g, %g)", x, y))
	}
	return strings.Join(parts, "\n")
}

// ConstraintDOT converts the scene's solver state to a bipartite DOT graph:
// boxes for constraints, ellipses for the variables they touch. Variables
// belonging to item handles are labeled item.handle.axis.
func ConstraintDOT(b *scene.Built) string {
	names := variableNames(b)

	var buf bytes.Buffer
	buf.WriteString("graph constraints {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [fontsize=10];\n")
	buf.WriteString("\n")

	seen := map[*solver.Variable]bool{}
	for i, c := range b.Canvas.Solver().Constraints() {
		fmt.Fprintf(&buf, "  c%d [shape=box, label=%q];\n", i, fmt.Sprintf("%v", c))
		for _, v := range c.Variables() {
			bv := v.Variable()
			if !seen[bv] {
				seen[bv] = true
				label := names[bv]
				if label == "" {
					label = fmt.Sprintf("%g", bv.Value())
				}
				fmt.Fprintf(&buf, "  v%p [shape=ellipse, label=%q];\n", bv, label)
			}
			fmt.Fprintf(&buf, "  c%d -- v%p;\n", i, bv)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

var cornerNames = [...]string{"nw", "ne", "se", "sw"}

func variableNames(b *scene.Built) map[*solver.Variable]string {
	names := make(map[*solver.Variable]string)
	for _, it := range b.Canvas.Items() {
		itemName := b.Name(it)
		if itemName == "" {
			itemName = it.ID().String()[:8]
		}
		_, isElement := it.(*item.Element)
		for i, h := range it.Handles() {
			hn := strconv.Itoa(i)
			if isElement && i < len(cornerNames) {
				hn = cornerNames[i]
			}
			names[h.X] = fmt.Sprintf("%s.%s.x", itemName, hn)
			names[h.Y] = fmt.Sprintf("%s.%s.y", itemName, hn)
		}
	}
	return names
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(ctx, dot, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(ctx, dot, graphviz.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func render(ctx context.Context, dot string, format graphviz.Format, buf *bytes.Buffer) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG header so the image origin is
// (0, 0) and explicit pixel dimensions are present.
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
