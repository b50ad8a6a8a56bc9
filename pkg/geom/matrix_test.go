package geom

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	x, y := m.TransformPoint(3, 7)
	if x != 3 || y != 7 {
		t.Errorf("Identity().TransformPoint(3, 7) = (%v, %v), want (3, 7)", x, y)
	}
	if !m.IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
}

func TestTranslationComposition(t *testing.T) {
	// A child translated (0, 8) under a parent translated (5, 0) ends up
	// composed at (5, 8).
	child := Translation(0, 8)
	parent := Translation(5, 0)
	composed := child.Multiply(parent)

	x, y := composed.TransformPoint(0, 0)
	if x != 5 || y != 8 {
		t.Errorf("composed origin = (%v, %v), want (5, 8)", x, y)
	}
}

func TestMultiplyOrder(t *testing.T) {
	// Multiply applies the receiver first. Scaling then translating is not
	// the same as translating then scaling.
	scaleThenMove := Scaling(2, 2).Multiply(Translation(10, 0))
	moveThenScale := Translation(10, 0).Multiply(Scaling(2, 2))

	x, _ := scaleThenMove.TransformPoint(1, 0)
	if x != 12 {
		t.Errorf("scale then translate: x = %v, want 12", x)
	}
	x, _ = moveThenScale.TransformPoint(1, 0)
	if x != 22 {
		t.Errorf("translate then scale: x = %v, want 22", x)
	}
}

func TestRotation(t *testing.T) {
	m := Rotation(math.Pi / 2)
	x, y := m.TransformPoint(1, 0)
	if math.Abs(x) > Epsilon || math.Abs(y-1) > Epsilon {
		t.Errorf("90° rotation of (1, 0) = (%v, %v), want (0, 1)", x, y)
	}
}

func TestInvert(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"translation", Translation(5, -3)},
		{"scaling", Scaling(2, 0.5)},
		{"rotation", Rotation(0.7)},
		{"mixed", Scaling(3, 2).Multiply(Rotation(1.1)).Multiply(Translation(-4, 9))},
	}

	for _, tt := range tests {
		inv, ok := tt.m.Invert()
		if !ok {
			t.Errorf("%s: Invert reported singular", tt.name)
			continue
		}
		if got := tt.m.Multiply(inv); !got.IsIdentity() {
			t.Errorf("%s: m * m⁻¹ = %v, want identity", tt.name, got)
		}
	}
}

func TestInvertSingular(t *testing.T) {
	m := Scaling(0, 0)
	inv, ok := m.Invert()
	if ok {
		t.Error("Invert of singular matrix reported success")
	}
	if !inv.IsIdentity() {
		t.Errorf("Invert of singular matrix = %v, want identity", inv)
	}
}

func TestTranslatePrepends(t *testing.T) {
	// Translate must apply before the existing transform, so that
	// normalizing an item's matrix keeps world positions stable.
	m := Scaling(2, 2).Translate(1, 0)
	x, y := m.TransformPoint(0, 0)
	if x != 2 || y != 0 {
		t.Errorf("Scaling(2,2).Translate(1,0) origin = (%v, %v), want (2, 0)", x, y)
	}
}

func TestTransformDistance(t *testing.T) {
	m := Translation(100, 100)
	dx, dy := m.TransformDistance(3, 4)
	if dx != 3 || dy != 4 {
		t.Errorf("TransformDistance ignores translation: got (%v, %v), want (3, 4)", dx, dy)
	}
}
