package geom

import (
	"math"
	"testing"
)

func TestDistanceLinePoint(t *testing.T) {
	tests := []struct {
		name       string
		start, end Point
		p          Point
		wantD      float64
		wantOn     Point
	}{
		{"on segment", Point{0, 0}, Point{10, 0}, Point{5, 0}, 0, Point{5, 0}},
		{"above middle", Point{0, 0}, Point{10, 0}, Point{5, 3}, 3, Point{5, 0}},
		{"beyond end", Point{0, 0}, Point{10, 0}, Point{14, 3}, 5, Point{10, 0}},
		{"before start", Point{0, 0}, Point{10, 0}, Point{-3, 4}, 5, Point{0, 0}},
		{"degenerate", Point{2, 2}, Point{2, 2}, Point{5, 6}, 5, Point{2, 2}},
	}

	for _, tt := range tests {
		d, on := DistanceLinePoint(tt.start, tt.end, tt.p)
		if math.Abs(d-tt.wantD) > Epsilon {
			t.Errorf("%s: distance = %v, want %v", tt.name, d, tt.wantD)
		}
		if on.Distance(tt.wantOn) > Epsilon {
			t.Errorf("%s: closest point = %v, want %v", tt.name, on, tt.wantOn)
		}
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{5, 5, 10, 10}
	u := a.Union(b)
	want := Rect{0, 0, 15, 15}
	if u != want {
		t.Errorf("Union = %+v, want %+v", u, want)
	}

	if got := a.Union(Rect{}); got != a {
		t.Errorf("Union with empty = %+v, want %+v", got, a)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{0, 0, 10, 10}
	if !r.Contains(0, 0) || !r.Contains(10, 10) || !r.Contains(5, 5) {
		t.Error("Contains should include boundary and interior points")
	}
	if r.Contains(11, 5) || r.Contains(5, -1) {
		t.Error("Contains should exclude outside points")
	}
}

func TestRectIntersects(t *testing.T) {
	r := Rect{0, 0, 10, 10}
	if !r.Intersects(Rect{5, 5, 10, 10}) {
		t.Error("overlapping rects should intersect")
	}
	if r.Intersects(Rect{20, 20, 5, 5}) {
		t.Error("disjoint rects should not intersect")
	}
}

func TestDistanceRectanglePoint(t *testing.T) {
	r := Rect{0, 0, 10, 10}
	if d := DistanceRectanglePoint(r, Point{5, 5}); d != 0 {
		t.Errorf("inside point distance = %v, want 0", d)
	}
	if d := DistanceRectanglePoint(r, Point{13, 14}); math.Abs(d-5) > Epsilon {
		t.Errorf("corner distance = %v, want 5", d)
	}
}
