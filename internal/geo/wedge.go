package geo

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/pkg/core"
)

// ArcSegments is the default number of segments used to approximate the arc
// of a wedge polygon.
const ArcSegments = 32

// Wedge is the field-of-view sector of a camera, in scene units. Angles are
// degrees measured clockwise from +X, matching a y-down screen.
type Wedge struct {
	Origin   geom.XY
	StartDeg float64
	SweepDeg float64
	Radius   float64
}

// WedgeOf derives the sector from committed camera attributes.
func WedgeOf(c core.Camera) Wedge {
	return Wedge{
		Origin:   geom.XY{X: c.X, Y: c.Y},
		StartDeg: c.RotationDeg - c.FOVAngleDeg/2,
		SweepDeg: c.FOVAngleDeg,
		Radius:   c.FOVRadius,
	}
}

// PointAt returns the point at angle deg and distance r from the origin.
func (w Wedge) PointAt(deg, r float64) geom.XY {
	rad := deg * math.Pi / 180
	return geom.XY{X: w.Origin.X + r*math.Cos(rad), Y: w.Origin.Y + r*math.Sin(rad)}
}

// Contains reports whether p lies inside the sector, boundary included.
func (w Wedge) Contains(p geom.XY) bool {
	v := p.Sub(w.Origin)
	dist := math.Hypot(v.X, v.Y)
	if dist > w.Radius {
		return false
	}
	if dist == 0 {
		return true
	}
	rel := core.NormalizeRotation(AngleDeg(v) - w.StartDeg)
	return rel <= w.SweepDeg+1e-9
}

// Area is the exact sector area.
func (w Wedge) Area() float64 {
	return math.Pi * w.Radius * w.Radius * w.SweepDeg / 360
}

// Ring returns the closed outline: origin, arc points, origin. segments below
// one fall back to ArcSegments.
func (w Wedge) Ring(segments int) []geom.XY {
	if segments < 1 {
		segments = ArcSegments
	}
	ring := make([]geom.XY, 0, segments+3)
	ring = append(ring, w.Origin)
	for i := 0; i <= segments; i++ {
		deg := w.StartDeg + w.SweepDeg*float64(i)/float64(segments)
		ring = append(ring, w.PointAt(deg, w.Radius))
	}
	return append(ring, w.Origin)
}

// Polygon builds the wedge as a simple-features polygon, mapping every vertex
// through project (nil keeps scene coordinates).
func (w Wedge) Polygon(segments int, project func(geom.XY) geom.XY) (geom.Polygon, error) {
	ring := w.Ring(segments)
	flat := make([]float64, 0, len(ring)*2)
	for _, p := range ring {
		if project != nil {
			p = project(p)
		}
		flat = append(flat, p.X, p.Y)
	}
	ls := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	poly := geom.NewPolygon([]geom.LineString{ls})
	if err := poly.Validate(); err != nil {
		return geom.Polygon{}, fmt.Errorf("wedge polygon: %w", err)
	}
	return poly, nil
}

// AngleDeg returns the direction of v in degrees, normalized to [0,360).
func AngleDeg(v geom.XY) float64 {
	return core.NormalizeRotation(math.Atan2(v.Y, v.X) * 180 / math.Pi)
}

// CoverageArea returns the scene area covered by the union of all wedges.
// Overlapping cones are counted once.
func CoverageArea(cameras []core.Camera) (float64, error) {
	var union geom.Geometry
	for i, c := range cameras {
		poly, err := WedgeOf(c).Polygon(ArcSegments, nil)
		if err != nil {
			return 0, fmt.Errorf("camera %d: %w", i, err)
		}
		if i == 0 {
			union = poly.AsGeometry()
			continue
		}
		union, err = geom.Union(union, poly.AsGeometry())
		if err != nil {
			return 0, fmt.Errorf("union camera %d: %w", i, err)
		}
	}
	if len(cameras) == 0 {
		return 0, nil
	}
	return union.Area(), nil
}
