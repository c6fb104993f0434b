// Package handle implements the direct-manipulation handles of a camera
// marker: the body dot, the direction arrow, the FOV corner and the wedge
// itself. Handle positions are derived from committed camera attributes on
// every frame; only the drag in progress keeps state.
package handle

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/internal/geo"
	"github.com/sitesurvey/camplan/pkg/core"
)

// Marker dimensions in scene units.
const (
	BodyRadius    = 10.0
	CornerRadius  = 6.0
	ArrowFactor   = 0.8 // arrow length as a fraction of the FOV radius
	ArrowHitWidth = 4.0
	ArrowHeadSize = 10.0
	MinDragVector = 1e-6
)

// Kind identifies a handle.
type Kind int

const (
	None Kind = iota
	Body
	Arrow
	Corner
	Wedge
)

func (k Kind) String() string {
	switch k {
	case Body:
		return "body"
	case Arrow:
		return "arrow"
	case Corner:
		return "corner"
	case Wedge:
		return "wedge"
	default:
		return "none"
	}
}

// Layout is the derived handle geometry of one camera, in scene units.
type Layout struct {
	Key      string
	Wedge    geo.Wedge
	Body     geom.XY
	ArrowTip geom.XY
	Corner   geom.XY
}

// LayoutOf derives the handle positions for c.
func LayoutOf(c core.Camera) Layout {
	w := geo.WedgeOf(c)
	return Layout{
		Key:      c.Key,
		Wedge:    w,
		Body:     w.Origin,
		ArrowTip: w.PointAt(c.RotationDeg, c.FOVRadius*ArrowFactor),
		Corner:   w.PointAt(w.StartDeg+w.SweepDeg, w.Radius),
	}
}

// HitTest returns the handle under p, in paint order from the top: corner,
// body, arrow, wedge. slop widens every target and is given in scene units.
func (l Layout) HitTest(p geom.XY, slop float64) Kind {
	switch {
	case distance(p, l.Corner) <= CornerRadius+slop:
		return Corner
	case distance(p, l.Body) <= BodyRadius+slop:
		return Body
	case distanceToSegment(p, l.Body, l.ArrowTip) <= ArrowHitWidth+slop,
		distance(p, l.ArrowTip) <= ArrowHeadSize+slop:
		return Arrow
	case l.Wedge.Contains(p):
		return Wedge
	default:
		return None
	}
}

// HitTest finds the topmost camera handle under p. Later cameras are painted
// over earlier ones.
func HitTest(cameras []core.Camera, p geom.XY, slop float64) (string, Kind) {
	for i := len(cameras) - 1; i >= 0; i-- {
		if k := LayoutOf(cameras[i]).HitTest(p, slop); k != None {
			return cameras[i].Key, k
		}
	}
	return "", None
}

// Drag is an in-progress handle drag. The camera snapshot is taken at drag
// start; every Move is computed from the snapshot and the total pointer
// displacement so repeated ticks do not accumulate error.
type Drag struct {
	Key  string
	Kind Kind

	start  geom.XY
	camera core.Camera
	layout Layout
}

// Begin starts dragging kind on c at scene point pointer.
func Begin(c core.Camera, kind Kind, pointer geom.XY) *Drag {
	return &Drag{
		Key:    c.Key,
		Kind:   kind,
		start:  pointer,
		camera: c.Clone(),
		layout: LayoutOf(c),
	}
}

// Move converts the pointer position into an attribute patch. It reports
// false when the tick is degenerate and should be skipped.
func (d *Drag) Move(pointer geom.XY) (core.CameraPatch, bool) {
	delta := pointer.Sub(d.start)
	origin := d.layout.Body

	switch d.Kind {
	case Body:
		pos := origin.Add(delta)
		return core.MovePatch(pos.X, pos.Y), true

	case Arrow:
		tip := d.layout.ArrowTip.Add(delta).Sub(origin)
		if length(tip) < MinDragVector {
			return core.CameraPatch{}, false
		}
		return core.CameraPatch{RotationDeg: core.Float(geo.AngleDeg(tip))}, true

	case Wedge:
		local := pointer.Sub(origin)
		r := length(local)
		if r < MinDragVector {
			return core.CameraPatch{}, false
		}
		return core.CameraPatch{
			RotationDeg: core.Float(geo.AngleDeg(local)),
			FOVRadius:   core.Float(r),
		}.Clamped(), true

	case Corner:
		local := d.layout.Corner.Add(delta).Sub(origin)
		r := length(local)
		if r < MinDragVector {
			return core.CameraPatch{}, false
		}
		leading := d.camera.RotationDeg - d.camera.FOVAngleDeg/2
		angle := core.NormalizeRotation(geo.AngleDeg(local) - leading)
		return core.CameraPatch{
			FOVAngleDeg: core.Float(angle),
			FOVRadius:   core.Float(r),
		}.Clamped(), true
	}
	return core.CameraPatch{}, false
}

func length(v geom.XY) float64 {
	return math.Hypot(v.X, v.Y)
}

func distance(a, b geom.XY) float64 {
	return length(a.Sub(b))
}

func distanceToSegment(p, a, b geom.XY) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return distance(p, a)
	}
	ap := p.Sub(a)
	t := core.Clamp((ap.X*ab.X+ap.Y*ab.Y)/l2, 0, 1)
	return distance(p, a.Add(ab.Scale(t)))
}
