// pkg/core/camera.go
package core

import (
	"math"
	"slices"

	"github.com/google/uuid"
)

// Camera defaults applied on creation.
const (
	DefaultCameraName  = "Camera"
	DefaultRotationDeg = 0.0
	DefaultFOVAngleDeg = 70.0
	DefaultFOVRadius   = 220.0
)

// Attribute ranges. Rotation is normalized into [0,360) instead of clamped.
const (
	MinFOVAngleDeg = 10.0
	MaxFOVAngleDeg = 180.0
	MinFOVRadius   = 40.0
	MaxFOVRadius   = 1000.0
)

// Camera is a surveyed camera placed on the floor plan. X and Y are scene
// (floor-plan pixel) units.
//
// Key is the local identity used for selection and rendering and never
// changes. RemoteID is assigned by the repository once creation is confirmed.
type Camera struct {
	Key         string   `json:"-"`
	RemoteID    string   `json:"id"`
	Name        string   `json:"name"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	RotationDeg float64  `json:"rotationDeg"`
	FOVAngleDeg float64  `json:"fovAngleDeg"`
	FOVRadius   float64  `json:"fovRadius"`
	Status      *string  `json:"status"`
	Analyses    Analyses `json:"analyses"`
}

// NewCamera builds a camera at (x, y) with the default attributes. status is
// the first configured status, or nil when the vocabulary is empty.
func NewCamera(x, y float64, statuses []string) Camera {
	c := Camera{
		Key:         NewKey(),
		Name:        DefaultCameraName,
		X:           x,
		Y:           y,
		RotationDeg: DefaultRotationDeg,
		FOVAngleDeg: DefaultFOVAngleDeg,
		FOVRadius:   DefaultFOVRadius,
		Analyses:    Analyses{},
	}
	if len(statuses) > 0 {
		s := statuses[0]
		c.Status = &s
	}
	return c
}

// NewKey returns a fresh local camera key.
func NewKey() string {
	return uuid.NewString()
}

// Normalize enforces the attribute invariants in place.
func (c *Camera) Normalize() {
	c.RotationDeg = NormalizeRotation(c.RotationDeg)
	c.FOVAngleDeg = ClampFOVAngle(c.FOVAngleDeg)
	c.FOVRadius = ClampFOVRadius(c.FOVRadius)
	c.Analyses = c.Analyses.Dedup()
}

// Clone returns a deep copy.
func (c Camera) Clone() Camera {
	out := c
	if c.Status != nil {
		s := *c.Status
		out.Status = &s
	}
	out.Analyses = slices.Clone(c.Analyses)
	if out.Analyses == nil {
		out.Analyses = Analyses{}
	}
	return out
}

// StatusLabel returns the status text, or "" when unset.
func (c Camera) StatusLabel() string {
	if c.Status == nil {
		return ""
	}
	return *c.Status
}

// NormalizeRotation maps any finite angle in degrees into [0,360).
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	// tiny negative inputs round up to 360 after the shift
	if r >= 360 {
		r = 0
	}
	return r
}

// ClampFOVAngle clamps a cone angle into [MinFOVAngleDeg, MaxFOVAngleDeg].
func ClampFOVAngle(deg float64) float64 {
	if math.IsNaN(deg) {
		return DefaultFOVAngleDeg
	}
	return Clamp(deg, MinFOVAngleDeg, MaxFOVAngleDeg)
}

// ClampFOVRadius clamps a coverage radius into [MinFOVRadius, MaxFOVRadius].
func ClampFOVRadius(r float64) float64 {
	if math.IsNaN(r) {
		return DefaultFOVRadius
	}
	return Clamp(r, MinFOVRadius, MaxFOVRadius)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Analyses is the set of analysis types enabled on a camera. Insertion order
// is kept for display; equality ignores order.
type Analyses []string

// Contains reports whether a is enabled.
func (a Analyses) Contains(name string) bool {
	return slices.Contains(a, name)
}

// Toggle returns a copy with name added when absent or removed when present.
func (a Analyses) Toggle(name string) Analyses {
	if a.Contains(name) {
		out := make(Analyses, 0, len(a))
		for _, v := range a {
			if v != name {
				out = append(out, v)
			}
		}
		return out
	}
	out := slices.Clone(a)
	return append(out, name)
}

// Dedup returns a copy without duplicates, keeping first occurrences.
func (a Analyses) Dedup() Analyses {
	out := make(Analyses, 0, len(a))
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Equal compares as sets.
func (a Analyses) Equal(b Analyses) bool {
	x, y := a.Dedup(), b.Dedup()
	if len(x) != len(y) {
		return false
	}
	for _, v := range x {
		if !y.Contains(v) {
			return false
		}
	}
	return true
}
