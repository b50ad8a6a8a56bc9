package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easelkit/easel/pkg/item"
	"github.com/easelkit/easel/pkg/scene"
)

// demoScene is the classic two-boxes-and-a-wire scene: the wire's ends are
// glued to facing edges, so moving either box drags the wire along.
var demoScene = scene.Scene{
	Name: "demo",
	Elements: []scene.Element{
		{Name: "a", Position: []float64{0, 0}, Width: 40, Height: 30},
		{Name: "b", Position: []float64{120, 60}, Width: 40, Height: 30},
	},
	Lines: []scene.Line{
		{Name: "wire", Points: [][]float64{{40, 15}, {120, 75}}},
	},
	Connections: []scene.Connection{
		{Line: "wire", Handle: 0, Item: "a", Port: 1},
		{Line: "wire", Handle: 1, Item: "b", Port: 3},
	},
}

// newDemoCmd creates the demo command: build the built-in scene, run an
// update cycle and print the solved geometry.
func newDemoCmd() *cobra.Command {
	var move []float64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Solve and print the built-in demo scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), move)
		},
	}

	cmd.Flags().Float64SliceVar(&move, "move-b", nil, "move box b by dx,dy and re-solve")
	return cmd
}

func runDemo(ctx context.Context, move []float64) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	b, err := scene.Build(ctx, &demoScene, logger)
	if err != nil {
		return err
	}

	if len(move) == 2 {
		it, _ := b.Item("b")
		boxB := it.(*item.Element)
		boxB.SetMatrix(boxB.Matrix().Translate(move[0], move[1]))
		b.Canvas.RequestMatrixUpdate(boxB)
		if err := b.Canvas.UpdateNow(ctx); err != nil {
			return err
		}
	}

	p.done(fmt.Sprintf("Solved %d items", len(b.Canvas.Items())))
	printNewline()
	printSuccess("demo scene")
	printScene(b)
	printDetail("%d constraints registered", b.Canvas.Solver().ConstraintCount())
	printNewline()
	printNextStep("Serve it over HTTP", "easel serve --demo")
	return nil
}

// printScene prints one line per item with its solved canvas geometry.
func printScene(b *scene.Built) {
	for _, it := range b.Canvas.Items() {
		i2c, err := b.Canvas.MatrixI2C(it)
		if err != nil {
			continue
		}
		name := b.Name(it)
		switch v := it.(type) {
		case *item.Element:
			x, y := i2c.TransformPoint(0, 0)
			printKeyValue(name, fmt.Sprintf("element %g x %g at (%g, %g)", v.Width(), v.Height(), x, y))
		case *item.Line:
			var pts string
			for i, h := range v.Handles() {
				x, y := i2c.TransformPoint(h.X.Value(), h.Y.Value())
				if i > 0 {
					pts += " " + iconArrow + " "
				}
				pts += fmt.Sprintf("(%g, %g)", x, y)
			}
			printKeyValue(name, "line "+pts)
		default:
			printKeyValue(name, "item")
		}
	}
}
