package viewport

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/pkg/core"
)

// Zoom bounds shared by every scale change.
const (
	MinScale = 0.2
	MaxScale = 5.0
)

// Size is a width/height pair in pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// ToScene maps a screen point to scene coordinates.
func ToScene(p geom.XY, scale float64, t geom.XY) geom.XY {
	return p.Sub(t).Scale(1 / scale)
}

// ToScreen maps a scene point to screen coordinates.
func ToScreen(p geom.XY, scale float64, t geom.XY) geom.XY {
	return p.Scale(scale).Add(t)
}

// Finite reports whether both coordinates of p are finite numbers.
func Finite(p geom.XY) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// ClampScale bounds s to [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	return core.Clamp(s, MinScale, MaxScale)
}

// ClampTranslation keeps the scaled image covering the container. An axis
// where the image fits is centered and the candidate is ignored; otherwise the
// candidate is bounded to [container-scaled, 0]. With no image the candidate
// is returned unchanged. A non-finite candidate is rejected: ok is false and
// t is returned as given.
func ClampTranslation(t geom.XY, scale float64, image *Size, container Size) (geom.XY, bool) {
	if !Finite(t) {
		return t, false
	}
	if image == nil || !image.Valid() {
		return t, true
	}
	return geom.XY{
		X: clampAxis(t.X, image.W*scale, container.W),
		Y: clampAxis(t.Y, image.H*scale, container.H),
	}, true
}

func clampAxis(candidate, scaled, container float64) float64 {
	if scaled <= container {
		return (container - scaled) / 2
	}
	return core.Clamp(candidate, container-scaled, 0)
}

// Viewport is the pan/zoom state of the canvas. Every mutator leaves Scale
// within bounds and Translation clamped.
type Viewport struct {
	Scale       float64
	Translation geom.XY
	Container   Size
	Image       *Size
}

// New returns an identity viewport for the given container.
func New(container Size) *Viewport {
	return &Viewport{Scale: 1, Container: container}
}

// ToScene maps a screen point through the current transform.
func (v *Viewport) ToScene(p geom.XY) geom.XY {
	return ToScene(p, v.Scale, v.Translation)
}

// ToScreen maps a scene point through the current transform.
func (v *Viewport) ToScreen(p geom.XY) geom.XY {
	return ToScreen(p, v.Scale, v.Translation)
}

// SetImage records the natural image size and fits it into the container,
// centered. An empty size clears the image.
func (v *Viewport) SetImage(img Size) {
	if !img.Valid() {
		v.ClearImage()
		return
	}
	v.Image = &img
	v.Fit()
}

// ClearImage forgets the image; clamping becomes a no-op.
func (v *Viewport) ClearImage() {
	v.Image = nil
}

// Fit scales the image to fit the container and centers it.
func (v *Viewport) Fit() {
	if v.Image == nil || !v.Container.Valid() {
		return
	}
	v.Scale = ClampScale(math.Min(v.Container.W/v.Image.W, v.Container.H/v.Image.H))
	v.SetTranslation(geom.XY{
		X: (v.Container.W - v.Image.W*v.Scale) / 2,
		Y: (v.Container.H - v.Image.H*v.Scale) / 2,
	})
}

// Resize updates the container and re-clamps.
func (v *Viewport) Resize(container Size) {
	v.Container = container
	v.SetTranslation(v.Translation)
}

// SetTranslation applies a candidate translation through the clamper. A
// non-finite candidate leaves the current translation in place, re-clamped.
func (v *Viewport) SetTranslation(t geom.XY) {
	clamped, ok := ClampTranslation(t, v.Scale, v.Image, v.Container)
	if !ok {
		clamped, _ = ClampTranslation(v.Translation, v.Scale, v.Image, v.Container)
	}
	v.Translation = clamped
}

// ZoomAt changes the scale while keeping the scene point under pointer fixed,
// as far as clamping allows.
func (v *Viewport) ZoomAt(pointer geom.XY, scale float64) {
	v.Place(v.ToScene(pointer), pointer, scale)
}

// Place sets the scale and moves scenePoint under screenPoint. Non-finite
// input is ignored.
func (v *Viewport) Place(scenePoint, screenPoint geom.XY, scale float64) {
	if !Finite(scenePoint) || !Finite(screenPoint) || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return
	}
	v.Scale = ClampScale(scale)
	v.SetTranslation(screenPoint.Sub(scenePoint.Scale(v.Scale)))
}
