// Package gesture turns wheel, pinch and background-drag input into viewport
// changes.
package gesture

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/internal/viewport"
)

// ZoomStep is the relative scale change of one wheel event.
const ZoomStep = 0.1

// MinPinchDistance is the smallest anchor distance (screen px) that can be
// used as a ratio denominator.
const MinPinchDistance = 1e-3

// WheelDirection maps a wheel delta to a zoom direction: +1 zooms in, -1
// zooms out, 0 means no intent.
func WheelDirection(deltaY float64) int {
	switch {
	case deltaY < 0:
		return 1
	case deltaY > 0:
		return -1
	default:
		return 0
	}
}

type pinchAnchor struct {
	distance float64
	centroid geom.XY
}

// Controller owns the transient gesture state of one canvas. It is not safe
// for concurrent use.
type Controller struct {
	vp *viewport.Viewport

	anchor *pinchAnchor

	panning          bool
	panStartPointer  geom.XY
	panStartPosition geom.XY
}

// NewController returns a controller driving vp.
func NewController(vp *viewport.Viewport) *Controller {
	return &Controller{vp: vp}
}

// Viewport returns the driven viewport.
func (c *Controller) Viewport() *viewport.Viewport {
	return c.vp
}

// Wheel applies a single zoom step anchored at pointer. It reports whether
// the viewport changed.
func (c *Controller) Wheel(pointer geom.XY, deltaY float64) bool {
	dir := WheelDirection(deltaY)
	if dir == 0 || !viewport.Finite(pointer) {
		return false
	}
	target := viewport.ClampScale(c.vp.Scale * (1 + float64(dir)*ZoomStep))
	if target == c.vp.Scale {
		return false
	}
	c.vp.ZoomAt(pointer, target)
	return true
}

// Pinching reports whether a two-finger gesture is anchored.
func (c *Controller) Pinching() bool {
	return c.anchor != nil
}

// Touches feeds the current set of touch points. Entering exactly two
// touches anchors a pinch; each later update with two touches scales by the
// distance ratio, moves the anchored scene point under the new centroid and
// re-anchors. Any other touch count ends the pinch. A tick with a
// non-finite point is skipped and keeps the current anchor. It reports
// whether the viewport changed.
func (c *Controller) Touches(points []geom.XY) bool {
	if len(points) != 2 {
		c.anchor = nil
		return false
	}
	if !viewport.Finite(points[0]) || !viewport.Finite(points[1]) {
		return false
	}

	delta := points[0].Sub(points[1])
	d := math.Hypot(delta.X, delta.Y)
	centroid := points[0].Add(points[1]).Scale(0.5)
	if c.anchor == nil {
		c.anchor = &pinchAnchor{distance: d, centroid: centroid}
		c.panning = false
		return false
	}

	scale := c.vp.Scale
	if c.anchor.distance >= MinPinchDistance && d >= MinPinchDistance {
		scale *= d / c.anchor.distance
	}

	scenePoint := c.vp.ToScene(c.anchor.centroid)
	c.vp.Place(scenePoint, centroid, scale)
	c.anchor = &pinchAnchor{distance: d, centroid: centroid}
	return true
}

// EndTouches clears any pinch anchor.
func (c *Controller) EndTouches() {
	c.anchor = nil
}

// BeginPan starts a background drag at pointer.
func (c *Controller) BeginPan(pointer geom.XY) {
	if c.anchor != nil || !viewport.Finite(pointer) {
		return
	}
	c.panning = true
	c.panStartPointer = pointer
	c.panStartPosition = c.vp.Translation
}

// Panning reports whether a background drag is active.
func (c *Controller) Panning() bool {
	return c.panning
}

// MovePan sets the translation to the drag target: start translation plus
// pointer displacement, clamped.
func (c *Controller) MovePan(pointer geom.XY) bool {
	if !c.panning || c.anchor != nil || !viewport.Finite(pointer) {
		return false
	}
	c.vp.SetTranslation(c.panStartPosition.Add(pointer.Sub(c.panStartPointer)))
	return true
}

// EndPan finishes a background drag.
func (c *Controller) EndPan() {
	c.panning = false
}
