package scene

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/easelkit/easel/pkg/errors"
	"github.com/easelkit/easel/pkg/item"
)

const demoManifest = `
name = "demo"

[[elements]]
name = "box"
position = [100.0, 0.0]
width = 30.0
height = 20.0

[[elements]]
name = "inner"
parent = "box"
width = 10.0
height = 10.0

[[lines]]
name = "wire"
points = [[105.0, 0.0], [105.0, 40.0]]

[[connections]]
line = "wire"
handle = 0
item = "box"
port = 0
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(demoManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "demo" {
		t.Errorf("Name = %q, want demo", s.Name)
	}
	if len(s.Elements) != 2 || len(s.Lines) != 1 || len(s.Connections) != 1 {
		t.Errorf("decoded %d elements, %d lines, %d connections",
			len(s.Elements), len(s.Lines), len(s.Connections))
	}
}

func TestParseRejectsInvalidScenes(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
	}{
		{"duplicate name", `
[[elements]]
name = "a"
[[elements]]
name = "a"
`},
		{"missing name", `
[[elements]]
width = 10.0
`},
		{"unknown parent", `
[[elements]]
name = "a"
parent = "ghost"
`},
		{"short line", `
[[lines]]
name = "l"
points = [[0.0, 0.0]]
`},
		{"bad point", `
[[lines]]
name = "l"
points = [[0.0, 0.0], [1.0]]
`},
		{"unknown constraint kind", `
[[elements]]
name = "a"
[[constraints]]
kind = "magnetize"
a = "a.nw.x"
b = "a.ne.x"
`},
		{"unknown connection target", `
[[lines]]
name = "l"
points = [[0.0, 0.0], [1.0, 1.0]]
[[connections]]
line = "l"
item = "ghost"
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.manifest))
			if err == nil {
				t.Fatal("want validation error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidScene) {
				t.Errorf("error code = %s, want INVALID_SCENE", errors.GetCode(err))
			}
		})
	}
}

func TestParseRejectsBadTOML(t *testing.T) {
	_, err := Parse([]byte(`[[elements` + "\n"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestBuild(t *testing.T) {
	s, err := Parse([]byte(demoManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Build(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	box := b.Items["box"].(*item.Element)
	if box.Width() != 30 || box.Height() != 20 {
		t.Errorf("box %gx%g, want 30x20", box.Width(), box.Height())
	}
	if b.Canvas.Parent(b.Items["inner"]) != box {
		t.Error("inner should be nested under box")
	}
	if b.Name(box) != "box" {
		t.Errorf("Name(box) = %q", b.Name(box))
	}

	// The glued line end sits on the box's top edge in canvas space.
	wire := b.Items["wire"].(*item.Line)
	i2c, err := b.Canvas.MatrixI2C(wire)
	if err != nil {
		t.Fatalf("MatrixI2C: %v", err)
	}
	x, y := i2c.TransformPoint(wire.Handles()[0].X.Value(), wire.Handles()[0].Y.Value())
	if x != 105 || y != 0 {
		t.Errorf("wire head at (%g, %g), want (105, 0)", x, y)
	}
	if wire.Handles()[0].ConnectedTo() != box {
		t.Error("wire head should be connected to box")
	}
}

func TestBuildRegistersConstraints(t *testing.T) {
	s, err := Parse([]byte(`
[[lines]]
name = "l"
points = [[0.0, 0.0], [5.0, 0.0], [20.0, 0.0]]

[[constraints]]
kind = "balance"
a = "l.0.x"
b = "l.2.x"
v = "l.1.x"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Build(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	mid := b.Items["l"].Handles()[1]
	if got := len(b.Canvas.Solver().ConstraintsWith(mid.X)); got != 1 {
		t.Errorf("constraints on middle handle = %d, want 1", got)
	}
}

func TestBuildRejectsBadVariableRef(t *testing.T) {
	cases := []string{"l", "l.0", "ghost.0.x", "l.9.x", "l.zz.x", "l.0.z"}
	for _, ref := range cases {
		s := &Scene{
			Lines: []Line{{Name: "l", Points: [][]float64{{0, 0}, {1, 1}}}},
			Constraints: []Constraint{
				{Kind: "equals", A: ref, B: "l.1.x"},
			},
		}
		if _, err := Build(context.Background(), s, nil); err == nil {
			t.Errorf("ref %q: want error", ref)
		}
	}
}

func TestConnectRejectsUnknownNames(t *testing.T) {
	s, err := Parse([]byte(demoManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Build(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Connect is also reached with unvalidated names (API requests), so it
	// must fail fast on lookups rather than assume manifest validation.
	cases := []Connection{
		{Line: "ghost", Handle: 0, Item: "box", Port: 0},
		{Line: "wire", Handle: 0, Item: "ghost", Port: 0},
	}
	for _, c := range cases {
		err := b.Connect(c)
		if !errors.Is(err, errors.ErrCodeItemNotFound) {
			t.Errorf("Connect(%+v) = %v, want ITEM_NOT_FOUND", c, err)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	s, err := Parse([]byte(demoManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Build(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := b.WriteJSON("demo", &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out struct {
		Name  string `json:"name"`
		Items []struct {
			ID      string       `json:"id"`
			Name    string       `json:"name"`
			Kind    string       `json:"kind"`
			Parent  string       `json:"parent"`
			Handles [][2]float64 `json:"handles"`
			Width   *float64     `json:"width"`
		} `json:"items"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Name != "demo" || len(out.Items) != 3 {
		t.Fatalf("exported %d items under %q", len(out.Items), out.Name)
	}

	byName := map[string]int{}
	for i, it := range out.Items {
		byName[it.Name] = i
	}
	box := out.Items[byName["box"]]
	if box.Kind != "element" || box.Width == nil || *box.Width != 30 {
		t.Errorf("box export = %+v", box)
	}
	if got := box.Handles[0]; got != ([2]float64{100, 0}) {
		t.Errorf("box origin handle at %v, want [100 0]", got)
	}
	inner := out.Items[byName["inner"]]
	if inner.Parent != box.ID {
		t.Errorf("inner parent = %q, want box id", inner.Parent)
	}
	wire := out.Items[byName["wire"]]
	if wire.Kind != "line" {
		t.Errorf("wire kind = %q", wire.Kind)
	}
	if got := wire.Handles[0]; got != ([2]float64{105, 0}) {
		t.Errorf("wire head at %v, want [105 0]", got)
	}
}
