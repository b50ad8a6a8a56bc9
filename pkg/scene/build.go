package scene

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/easelkit/easel/pkg/canvas"
	"github.com/easelkit/easel/pkg/constraint"
	"github.com/easelkit/easel/pkg/errors"
	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/item"
)

// Built is a live canvas constructed from a manifest, with the manifest
// names preserved for lookups and export.
type Built struct {
	Canvas *canvas.Canvas
	Items  map[string]item.Item

	names map[item.Item]string
}

// Name returns the manifest name of it, or "" for unknown items.
func (b *Built) Name(it item.Item) string { return b.names[it] }

// Build constructs a canvas from the scene and runs one full update cycle,
// so the returned canvas is solved and normalized. logger may be nil.
func Build(ctx context.Context, s *Scene, logger *log.Logger) (*Built, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	b := &Built{
		Canvas: canvas.New(),
		Items:  make(map[string]item.Item, len(s.Elements)+len(s.Lines)),
		names:  make(map[item.Item]string, len(s.Elements)+len(s.Lines)),
	}
	if logger != nil {
		b.Canvas.SetLogger(logger)
	}

	parents := make(map[string]string)
	for _, e := range s.Elements {
		el, err := buildElement(e)
		if err != nil {
			return nil, err
		}
		b.Items[e.Name] = el
		b.names[el] = e.Name
		parents[e.Name] = e.Parent
	}
	for _, l := range s.Lines {
		ln, err := buildLine(l)
		if err != nil {
			return nil, err
		}
		b.Items[l.Name] = ln
		b.names[ln] = l.Name
		parents[l.Name] = l.Parent
	}

	if err := b.addAll(parents); err != nil {
		return nil, err
	}

	// Orthogonality needs a bound solver, so it is switched on after Add.
	for _, l := range s.Lines {
		if !l.Orthogonal {
			continue
		}
		ln := b.Items[l.Name].(*item.Line)
		if l.Horizontal {
			if err := ln.SetHorizontal(true); err != nil {
				return nil, fmt.Errorf("line %s: %w", l.Name, err)
			}
		}
		if err := ln.SetOrthogonal(true); err != nil {
			return nil, fmt.Errorf("line %s: %w", l.Name, err)
		}
	}

	for i, c := range s.Constraints {
		if err := b.AddConstraint(c); err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	for i, c := range s.Connections {
		if err := b.Connect(c); err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
	}

	if err := b.Canvas.UpdateNow(ctx); err != nil {
		return nil, fmt.Errorf("solve scene: %w", err)
	}
	if logger != nil {
		logger.Debug("scene built",
			"elements", len(s.Elements),
			"lines", len(s.Lines),
			"constraints", len(s.Constraints),
			"connections", len(s.Connections))
	}
	return b, nil
}

func buildElement(e Element) (*item.Element, error) {
	el := item.NewElement(e.Width, e.Height)
	if len(e.Position) == 2 {
		el.SetMatrix(geom.Translation(e.Position[0], e.Position[1]))
	}
	if e.MinWidth != nil {
		if err := el.SetMinWidth(*e.MinWidth); err != nil {
			return nil, fmt.Errorf("element %s: %w", e.Name, err)
		}
	}
	if e.MinHeight != nil {
		if err := el.SetMinHeight(*e.MinHeight); err != nil {
			return nil, fmt.Errorf("element %s: %w", e.Name, err)
		}
	}
	return el, nil
}

func buildLine(l Line) (*item.Line, error) {
	ln := item.NewLine()
	if len(l.Points) > 2 {
		if _, err := ln.SplitSegment(0, len(l.Points)-1); err != nil {
			return nil, fmt.Errorf("line %s: %w", l.Name, err)
		}
	}
	for i, p := range l.Points {
		ln.Handles()[i].SetPos(geom.Point{X: p[0], Y: p[1]})
	}
	return ln, nil
}

// addAll adds items parents-first. The manifest may list a child before its
// parent, so unplaced items are retried until the set stops shrinking.
func (b *Built) addAll(parents map[string]string) error {
	pending := make(map[string]bool, len(b.Items))
	for name := range b.Items {
		pending[name] = true
	}
	for len(pending) > 0 {
		progress := false
		for name := range pending {
			parentName := parents[name]
			var parent item.Item
			if parentName != "" {
				if pending[parentName] {
					continue
				}
				parent = b.Items[parentName]
			}
			if err := b.Canvas.Add(b.Items[name], parent); err != nil {
				return fmt.Errorf("add %s: %w", name, err)
			}
			delete(pending, name)
			progress = true
		}
		if !progress {
			return errors.New(errors.ErrCodeInvalidScene, "parent cycle among %d items", len(pending))
		}
	}
	return nil
}

// AddElement builds an element from its manifest form and places it on the
// canvas.
func (b *Built) AddElement(e Element) (*item.Element, error) {
	if err := b.checkName(e.Name); err != nil {
		return nil, err
	}
	parent, err := b.lookupParent(e.Parent)
	if err != nil {
		return nil, err
	}
	el, err := buildElement(e)
	if err != nil {
		return nil, err
	}
	if err := b.Canvas.Add(el, parent); err != nil {
		return nil, err
	}
	b.Items[e.Name] = el
	b.names[el] = e.Name
	return el, nil
}

// AddLine builds a line from its manifest form and places it on the canvas.
func (b *Built) AddLine(l Line) (*item.Line, error) {
	if err := b.checkName(l.Name); err != nil {
		return nil, err
	}
	if len(l.Points) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidScene, "line %q needs at least 2 points", l.Name)
	}
	for i, p := range l.Points {
		if len(p) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidScene, "line %q: point %d needs [x, y]", l.Name, i)
		}
	}
	parent, err := b.lookupParent(l.Parent)
	if err != nil {
		return nil, err
	}
	ln, err := buildLine(l)
	if err != nil {
		return nil, err
	}
	if err := b.Canvas.Add(ln, parent); err != nil {
		return nil, err
	}
	if l.Orthogonal {
		if l.Horizontal {
			if err := ln.SetHorizontal(true); err != nil {
				return nil, err
			}
		}
		if err := ln.SetOrthogonal(true); err != nil {
			return nil, err
		}
	}
	b.Items[l.Name] = ln
	b.names[ln] = l.Name
	return ln, nil
}

// RemoveItem removes the named item and its nested children from the canvas.
func (b *Built) RemoveItem(name string) error {
	it, ok := b.Items[name]
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "no item %q", name)
	}
	doomed := append(b.Canvas.AllChildren(it), it)
	if err := b.Canvas.Remove(it); err != nil {
		return err
	}
	for _, d := range doomed {
		delete(b.Items, b.names[d])
		delete(b.names, d)
	}
	return nil
}

// Item returns the named item.
func (b *Built) Item(name string) (item.Item, bool) {
	it, ok := b.Items[name]
	return it, ok
}

func (b *Built) checkName(name string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidScene, "item without a name")
	}
	if _, ok := b.Items[name]; ok {
		return errors.New(errors.ErrCodeInvalidScene, "duplicate item name %q", name)
	}
	return nil
}

func (b *Built) lookupParent(name string) (item.Item, error) {
	if name == "" {
		return nil, nil
	}
	parent, ok := b.Items[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeItemNotFound, "unknown parent %q", name)
	}
	return parent, nil
}

// AddConstraint resolves a manifest constraint and registers it with the
// solver.
func (b *Built) AddConstraint(c Constraint) error {
	a, err := resolveVar(c.A, b.Items)
	if err != nil {
		return err
	}
	bb, err := resolveVar(c.B, b.Items)
	if err != nil {
		return err
	}
	switch c.Kind {
	case "equals":
		return b.Canvas.Solver().AddConstraint(constraint.NewEquals(a, bb))
	case "less_than":
		return b.Canvas.Solver().AddConstraint(constraint.NewLessThan(a, bb, c.Delta))
	case "balance":
		v, err := resolveVar(c.V, b.Items)
		if err != nil {
			return err
		}
		return b.Canvas.Solver().AddConstraint(constraint.NewBalance(a, bb, v))
	}
	return errors.New(errors.ErrCodeInvalidScene, "unknown kind %q", c.Kind)
}

// Connect glues a line handle to an item port per the manifest connection.
func (b *Built) Connect(c Connection) error {
	lineItem, ok := b.Items[c.Line]
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "no item %q", c.Line)
	}
	ln, ok := lineItem.(*item.Line)
	if !ok {
		return errors.New(errors.ErrCodeInvalidScene, "%q is not a line", c.Line)
	}
	if c.Handle < 0 || c.Handle >= len(ln.Handles()) {
		return errors.New(errors.ErrCodeInvalidScene, "line %q has no handle %d", c.Line, c.Handle)
	}
	target, ok := b.Items[c.Item]
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "no item %q", c.Item)
	}
	ports := target.Ports()
	if c.Port < 0 || c.Port >= len(ports) {
		return errors.New(errors.ErrCodeInvalidScene, "item %q has no port %d", c.Item, c.Port)
	}
	_, err := b.Canvas.Connect(ln, ln.Handles()[c.Handle], target, ports[c.Port])
	return err
}
