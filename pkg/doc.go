// Package pkg provides the core libraries for the Easel diagram engine.
//
// # Overview
//
// Easel keeps diagrams consistent: items carry handles whose positions are
// tied together by constraints, and an incremental solver plus a transform
// tree bring the whole scene back to a fixed point after every edit. The
// pkg directory is organized into three main areas:
//
//  1. Core engine - variables and constraints ([solver], [constraint]), the
//     item model ([item]) and the canvas that ties them together ([canvas])
//  2. Scene tooling - TOML manifests and JSON export ([scene]), Graphviz
//     diagrams ([render/dot]), spatial indexing ([quadtree])
//  3. Ambient support - geometry primitives ([geom]), structured errors
//     ([errors]), instrumentation hooks ([observability]), build metadata
//     ([buildinfo])
//
// # Architecture
//
// The typical data flow through Easel:
//
//	TOML manifest / API calls
//	         ↓
//	    [scene] package (build items, constraints, connections)
//	         ↓
//	    [canvas] package (transform propagation + update cycle)
//	         ↓
//	    [solver] package (incremental constraint solving)
//	         ↓
//	    JSON/DOT/SVG/PNG output
//
// # Quick Start
//
// Build a canvas by hand and solve it:
//
//	import (
//	    "context"
//	    "github.com/easelkit/easel/pkg/canvas"
//	    "github.com/easelkit/easel/pkg/item"
//	)
//
//	c := canvas.New()
//	box := item.NewElement(40, 30)
//	wire := item.NewLine()
//	_ = c.Add(box, nil)
//	_ = c.Add(wire, nil)
//	_, _ = c.Connect(wire, wire.Handles()[0], box, box.Ports()[1])
//	_ = c.UpdateNow(context.Background())
//
// Or load a manifest:
//
//	s, _ := scene.Load("scene.toml")
//	b, _ := scene.Build(context.Background(), s, nil)
//	_ = b.ExportJSON(s.Name, "scene.json")
//
// # Main Packages
//
// [solver] - Variables with strength tiers and the incremental solver. The
// solver keeps a FIFO queue of dirty constraints and resolves each one for
// its weakest participant, propagating to dependent constraints.
//
// [constraint] - Constraint kinds: equality, minimum gaps, proportional
// balance, general equations solved by secant iteration, and the projection
// constraints used to glue handles to lines and points.
//
// [item] - The item model: handles, ports, rectangular elements and
// polylines, with their built-in size and orthogonality constraints.
//
// [canvas] - The transform tree and the update cycle: ancestor-first
// matrix propagation, constraint solving, matrix normalization and view
// notification, with per-item callback isolation.
//
// [scene] - TOML scene manifests and JSON export of solved scenes.
//
// [render/dot] - Graphviz rendering of the item tree and of the
// variable/constraint graph.
//
// [quadtree] - Bucket quadtree used by [canvas.BoundsIndex] for spatial
// queries over solved item bounds.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/solver/...   # Specific package
//
// [solver]: https://pkg.go.dev/github.com/easelkit/easel/pkg/solver
// [constraint]: https://pkg.go.dev/github.com/easelkit/easel/pkg/constraint
// [item]: https://pkg.go.dev/github.com/easelkit/easel/pkg/item
// [canvas]: https://pkg.go.dev/github.com/easelkit/easel/pkg/canvas
// [scene]: https://pkg.go.dev/github.com/easelkit/easel/pkg/scene
// [render/dot]: https://pkg.go.dev/github.com/easelkit/easel/pkg/render/dot
// [quadtree]: https://pkg.go.dev/github.com/easelkit/easel/pkg/quadtree
// [geom]: https://pkg.go.dev/github.com/easelkit/easel/pkg/geom
// [errors]: https://pkg.go.dev/github.com/easelkit/easel/pkg/errors
// [observability]: https://pkg.go.dev/github.com/easelkit/easel/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/easelkit/easel/pkg/buildinfo
// [canvas.BoundsIndex]: https://pkg.go.dev/github.com/easelkit/easel/pkg/canvas#BoundsIndex
package pkg
