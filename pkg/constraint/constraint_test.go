package constraint

import (
	"math"
	"testing"

	"github.com/easelkit/easel/pkg/solver"
)

func TestWeakestPicksLowestStrength(t *testing.T) {
	a := solver.NewVariable(1, solver.Strong)
	b := solver.NewVariable(2, solver.Weak)
	c := NewEquals(a, b)

	if c.Weakest() != b {
		t.Error("weakest should be the lower-strength participant")
	}
}

func TestWeakestRotation(t *testing.T) {
	a := solver.NewVariable(1, solver.Normal)
	b := solver.NewVariable(2, solver.Normal)
	c := NewEquals(a, b)

	if c.Weakest() != a {
		t.Fatal("initial weakest should be the first participant")
	}

	// Writing the front participant rotates it to the back.
	c.MarkDirty(a)
	if c.Weakest() != b {
		t.Error("after marking a, weakest should be b")
	}

	// Marking a participant that is not at the front changes nothing.
	c.MarkDirty(a)
	if c.Weakest() != b {
		t.Error("marking a non-front participant should not rotate")
	}

	c.MarkDirty(b)
	if c.Weakest() != a {
		t.Error("after marking b, weakest should be a again")
	}
}

func TestRebuildWeakestAfterStrengthChange(t *testing.T) {
	a := solver.NewVariable(1, solver.Weak)
	b := solver.NewVariable(2, solver.Normal)
	c := NewEquals(a, b)

	if c.Weakest() != a {
		t.Fatal("weakest should be a")
	}

	a.SetStrength(solver.Strong)
	c.RebuildWeakest()
	if c.Weakest() != b {
		t.Error("after strengthening a, weakest should be b")
	}
}

func TestEqualsSolveFor(t *testing.T) {
	a := solver.NewVariable(3, solver.Normal)
	b := solver.NewVariable(7, solver.Normal)
	c := NewEquals(a, b)

	if err := c.SolveFor(a); err != nil {
		t.Fatalf("SolveFor(a): %v", err)
	}
	if a.Value() != 7 {
		t.Errorf("a = %g, want 7", a.Value())
	}

	b.SetValue(12)
	if err := c.SolveFor(b); err != nil {
		t.Fatalf("SolveFor(b): %v", err)
	}
	if b.Value() != 7 {
		t.Errorf("b = %g, want 7", b.Value())
	}
}

func TestEqualsUnknownVariable(t *testing.T) {
	a := solver.NewVariable(0, solver.Normal)
	b := solver.NewVariable(0, solver.Normal)
	other := solver.NewVariable(0, solver.Normal)
	c := NewEquals(a, b)

	if err := c.SolveFor(other); err != ErrUnknownVariable {
		t.Errorf("SolveFor(non-participant) = %v, want ErrUnknownVariable", err)
	}
}

func TestLessThanRestoresGap(t *testing.T) {
	tests := []struct {
		name                  string
		smaller, bigger       float64
		delta                 float64
		solveFor              string // "smaller" or "bigger"
		wantSmaller, wantBig  float64
	}{
		{"satisfied is a no-op", 1, 10, 2, "smaller", 1, 10},
		{"violation pushes bigger up", 8, 9, 5, "smaller", 8, 13},
		{"violation pulls smaller down", 8, 9, 5, "bigger", 4, 9},
		{"zero delta touching is fine", 5, 5, 0, "smaller", 5, 5},
		{"zero delta violated", 6, 5, 0, "bigger", 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			smaller := solver.NewVariable(tt.smaller, solver.Normal)
			bigger := solver.NewVariable(tt.bigger, solver.Normal)
			c := NewLessThan(smaller, bigger, tt.delta)

			v := solver.Var(smaller)
			if tt.solveFor == "bigger" {
				v = bigger
			}
			if err := c.SolveFor(v); err != nil {
				t.Fatalf("SolveFor: %v", err)
			}
			if smaller.Value() != tt.wantSmaller || bigger.Value() != tt.wantBig {
				t.Errorf("got (%g, %g), want (%g, %g)",
					smaller.Value(), bigger.Value(), tt.wantSmaller, tt.wantBig)
			}
		})
	}
}

func TestBalanceKeepsRatio(t *testing.T) {
	b1 := solver.NewVariable(0, solver.Strong)
	b2 := solver.NewVariable(10, solver.Strong)
	v := solver.NewVariable(2.5, solver.Normal)
	c := NewBalance(b1, b2, v)

	if c.Ratio() != 0.25 {
		t.Fatalf("ratio = %g, want 0.25", c.Ratio())
	}

	// Stretch the band; v keeps its relative position.
	b2.SetValue(40)
	if err := c.SolveFor(v); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if v.Value() != 10 {
		t.Errorf("v = %g, want 10", v.Value())
	}

	// Shift the whole band.
	b1.SetValue(100)
	b2.SetValue(140)
	if err := c.SolveFor(v); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if v.Value() != 110 {
		t.Errorf("v = %g, want 110", v.Value())
	}
}

func TestBalanceZeroWidthBand(t *testing.T) {
	b1 := solver.NewVariable(5, solver.Strong)
	b2 := solver.NewVariable(5, solver.Strong)
	v := solver.NewVariable(7, solver.Normal)
	c := NewBalance(b1, b2, v)

	if c.Ratio() != 0 {
		t.Errorf("zero-width band should capture ratio 0, got %g", c.Ratio())
	}
	if err := c.SolveFor(v); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if v.Value() != 5 {
		t.Errorf("v = %g, want 5 (collapsed onto the band)", v.Value())
	}
}

func TestEquationLinear(t *testing.T) {
	x := solver.NewVariable(3, solver.Strong)
	y := solver.NewVariable(0, solver.Normal)
	// x + y = 10
	c := NewEquation("sum", func(a []float64) float64 { return a[0] + a[1] - 10 }, x, y)

	if err := c.SolveFor(y); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if math.Abs(y.Value()-7) > 1e-6 {
		t.Errorf("y = %g, want 7", y.Value())
	}
}

func TestEquationNonlinear(t *testing.T) {
	x := solver.NewVariable(2, solver.Normal)
	// x^2 = 9, starting from 2 the secant converges on the positive root.
	c := NewEquation("square", func(a []float64) float64 { return a[0]*a[0] - 9 }, x)

	if err := c.SolveFor(x); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if math.Abs(x.Value()-3) > 1e-6 {
		t.Errorf("x = %g, want 3", x.Value())
	}
}

func TestEquationZeroStart(t *testing.T) {
	x := solver.NewVariable(0, solver.Normal)
	// Starting exactly at 0 must not divide by zero when seeding the secant.
	c := NewEquation("offset", func(a []float64) float64 { return a[0] - 4 }, x)

	if err := c.SolveFor(x); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if math.Abs(x.Value()-4) > 1e-6 {
		t.Errorf("x = %g, want 4", x.Value())
	}
}

func TestPositionGluesPoint(t *testing.T) {
	ox := solver.NewVariable(3, solver.Strong)
	oy := solver.NewVariable(4, solver.Strong)
	px := solver.NewVariable(0, solver.Normal)
	py := solver.NewVariable(0, solver.Normal)
	c := NewPosition(Pos{ox, oy}, Pos{px, py})

	if err := c.SolveFor(px); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if px.Value() != 3 || py.Value() != 4 {
		t.Errorf("point = (%g, %g), want (3, 4)", px.Value(), py.Value())
	}
}

func TestLineFollowsSegment(t *testing.T) {
	sx := solver.NewVariable(0, solver.Strong)
	sy := solver.NewVariable(0, solver.Strong)
	ex := solver.NewVariable(10, solver.Strong)
	ey := solver.NewVariable(0, solver.Strong)
	// Point sits at 30% along the segment.
	px := solver.NewVariable(3, solver.Normal)
	py := solver.NewVariable(0, solver.Normal)
	c := NewLine(Pos{sx, sy}, Pos{ex, ey}, Pos{px, py})

	// Stretch the segment; the point keeps its parametric position.
	ex.SetValue(20)
	ey.SetValue(10)
	if err := c.SolveFor(px); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if math.Abs(px.Value()-6) > 1e-9 || math.Abs(py.Value()-0) > 1e-9 {
		t.Errorf("point = (%g, %g), want (6, 0)", px.Value(), py.Value())
	}
}

func TestLineUpdateRatio(t *testing.T) {
	sx := solver.NewVariable(0, solver.Strong)
	sy := solver.NewVariable(0, solver.Strong)
	ex := solver.NewVariable(10, solver.Strong)
	ey := solver.NewVariable(10, solver.Strong)
	px := solver.NewVariable(5, solver.Normal)
	py := solver.NewVariable(5, solver.Normal)
	c := NewLine(Pos{sx, sy}, Pos{ex, ey}, Pos{px, py})

	// Drag the point to a new position on the segment and recapture.
	px.SetValue(2)
	py.SetValue(2)
	c.UpdateRatio()

	ex.SetValue(20)
	ey.SetValue(20)
	if err := c.SolveFor(px); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if math.Abs(px.Value()-4) > 1e-9 || math.Abs(py.Value()-4) > 1e-9 {
		t.Errorf("point = (%g, %g), want (4, 4)", px.Value(), py.Value())
	}
}

func TestLineAlignMidpoint(t *testing.T) {
	sx := solver.NewVariable(0, solver.Strong)
	sy := solver.NewVariable(0, solver.Strong)
	ex := solver.NewVariable(10, solver.Strong)
	ey := solver.NewVariable(0, solver.Strong)
	px := solver.NewVariable(0, solver.Normal)
	py := solver.NewVariable(0, solver.Normal)
	c := NewLineAlign(Pos{sx, sy}, Pos{ex, ey}, Pos{px, py}, 0.5, 0)

	if err := c.SolveFor(px); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if math.Abs(px.Value()-5) > 1e-9 || math.Abs(py.Value()-0) > 1e-9 {
		t.Errorf("point = (%g, %g), want (5, 0)", px.Value(), py.Value())
	}
}

func TestLineAlignDelta(t *testing.T) {
	sx := solver.NewVariable(0, solver.Strong)
	sy := solver.NewVariable(0, solver.Strong)
	ex := solver.NewVariable(10, solver.Strong)
	ey := solver.NewVariable(0, solver.Strong)
	px := solver.NewVariable(0, solver.Normal)
	py := solver.NewVariable(0, solver.Normal)
	c := NewLineAlign(Pos{sx, sy}, Pos{ex, ey}, Pos{px, py}, 1.0, 2.0)

	// Delta extends past the end along the segment direction.
	if err := c.SolveFor(px); err != nil {
		t.Fatalf("SolveFor: %v", err)
	}
	if math.Abs(px.Value()-12) > 1e-9 {
		t.Errorf("px = %g, want 12", px.Value())
	}
}
