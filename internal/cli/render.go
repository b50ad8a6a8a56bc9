package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easelkit/easel/pkg/render/dot"
	"github.com/easelkit/easel/pkg/scene"
)

const (
	graphScene       = "scene"       // item tree with connections
	graphConstraints = "constraints" // variable/constraint bipartite graph
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output base path; defaults to the manifest name
	formats  []string // output formats: "dot", "svg", "png", "json"
	graph    string   // which graph to draw: "scene" or "constraints"
	detailed bool     // include sizes and positions in node labels
}

// newRenderCmd creates the render command: load a scene manifest, solve it,
// and write the requested artifacts.
func newRenderCmd() *cobra.Command {
	var formatsStr string
	opts := renderOpts{graph: graphScene}

	cmd := &cobra.Command{
		Use:   "render <scene.toml>",
		Short: "Render a scene manifest to DOT, SVG, PNG, or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if opts.graph != graphScene && opts.graph != graphConstraints {
				return fmt.Errorf("unknown graph %q (want %s or %s)", opts.graph, graphScene, graphConstraints)
			}
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: manifest name)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.graph, "graph", opts.graph, "graph to draw: scene (default), constraints")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include sizes and positions in node labels")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		switch f {
		case "dot", "svg", "png", "json":
		default:
			return fmt.Errorf("unknown format %q (want dot, svg, png, or json)", f)
		}
	}
	return nil
}

func runRender(ctx context.Context, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	s, err := scene.Load(path)
	if err != nil {
		return err
	}
	b, err := scene.Build(ctx, s, logger)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Solved %d items", len(b.Canvas.Items())))

	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(path, filepath.Ext(path))
	}

	var graph string
	if needsDOT(opts.formats) {
		switch opts.graph {
		case graphConstraints:
			graph = dot.ConstraintDOT(b)
		default:
			graph = dot.SceneDOT(b, dot.Options{Detailed: opts.detailed})
		}
	}

	sp := newSpinnerWithContext(ctx, "Rendering...")
	sp.Start()
	defer sp.Stop()

	var written []string
	for _, format := range opts.formats {
		out := base + "." + format
		var data []byte
		switch format {
		case "dot":
			data = []byte(graph)
		case "svg":
			data, err = dot.RenderSVG(ctx, graph)
		case "png":
			data, err = dot.RenderPNG(ctx, graph)
		case "json":
			err = b.ExportJSON(s.Name, out)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if format != "json" {
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
		}
		written = append(written, out)
	}
	sp.Stop()

	printSuccess("rendered %s", path)
	for _, out := range written {
		printFile(out)
	}
	return nil
}

func needsDOT(formats []string) bool {
	for _, f := range formats {
		if f != "json" {
			return true
		}
	}
	return false
}
