// pkg/core/patch.go
package core

import (
	"encoding/json"
	"fmt"
	"slices"
)

// CameraPatch is a partial camera update. Nil fields are left untouched.
// Status is tri-state: StatusSet false leaves it alone, StatusSet with a nil
// Status clears it.
type CameraPatch struct {
	Name        *string
	X           *float64
	Y           *float64
	RotationDeg *float64
	FOVAngleDeg *float64
	FOVRadius   *float64
	StatusSet   bool
	Status      *string
	Analyses    Analyses // nil means unchanged
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// MovePatch sets the camera position.
func MovePatch(x, y float64) CameraPatch {
	return CameraPatch{X: Float(x), Y: Float(y)}
}

// StatusPatch sets the status; "" clears it.
func StatusPatch(status string) CameraPatch {
	p := CameraPatch{StatusSet: true}
	if status != "" {
		p.Status = String(status)
	}
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p CameraPatch) IsEmpty() bool {
	return p.Name == nil && p.X == nil && p.Y == nil && p.RotationDeg == nil &&
		p.FOVAngleDeg == nil && p.FOVRadius == nil && !p.StatusSet && p.Analyses == nil
}

// Clamped returns a copy with every present value normalized.
func (p CameraPatch) Clamped() CameraPatch {
	out := p
	if p.RotationDeg != nil {
		out.RotationDeg = Float(NormalizeRotation(*p.RotationDeg))
	}
	if p.FOVAngleDeg != nil {
		out.FOVAngleDeg = Float(ClampFOVAngle(*p.FOVAngleDeg))
	}
	if p.FOVRadius != nil {
		out.FOVRadius = Float(ClampFOVRadius(*p.FOVRadius))
	}
	if p.Analyses != nil {
		out.Analyses = p.Analyses.Dedup()
	}
	return out
}

// Apply merges the patch into c after clamping.
func (p CameraPatch) Apply(c *Camera) {
	p = p.Clamped()
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.X != nil {
		c.X = *p.X
	}
	if p.Y != nil {
		c.Y = *p.Y
	}
	if p.RotationDeg != nil {
		c.RotationDeg = *p.RotationDeg
	}
	if p.FOVAngleDeg != nil {
		c.FOVAngleDeg = *p.FOVAngleDeg
	}
	if p.FOVRadius != nil {
		c.FOVRadius = *p.FOVRadius
	}
	if p.StatusSet {
		if p.Status == nil {
			c.Status = nil
		} else {
			s := *p.Status
			c.Status = &s
		}
	}
	if p.Analyses != nil {
		c.Analyses = slices.Clone(p.Analyses)
	}
}

// MarshalJSON writes only the present fields; a cleared status is written as null.
func (p CameraPatch) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 8)
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.X != nil {
		m["x"] = *p.X
	}
	if p.Y != nil {
		m["y"] = *p.Y
	}
	if p.RotationDeg != nil {
		m["rotationDeg"] = *p.RotationDeg
	}
	if p.FOVAngleDeg != nil {
		m["fovAngleDeg"] = *p.FOVAngleDeg
	}
	if p.FOVRadius != nil {
		m["fovRadius"] = *p.FOVRadius
	}
	if p.StatusSet {
		m["status"] = p.Status
	}
	if p.Analyses != nil {
		m["analyses"] = p.Analyses
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a partial camera object. Unknown keys are ignored.
func (p *CameraPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = CameraPatch{}

	floats := map[string]**float64{
		"x":           &p.X,
		"y":           &p.Y,
		"rotationDeg": &p.RotationDeg,
		"fovAngleDeg": &p.FOVAngleDeg,
		"fovRadius":   &p.FOVRadius,
	}
	for key, dst := range floats {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		*dst = &f
	}

	if v, ok := raw["name"]; ok && string(v) != "null" {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("field name: %w", err)
		}
		p.Name = &s
	}
	if v, ok := raw["status"]; ok {
		p.StatusSet = true
		if err := json.Unmarshal(v, &p.Status); err != nil {
			return fmt.Errorf("field status: %w", err)
		}
	}
	if v, ok := raw["analyses"]; ok && string(v) != "null" {
		var a Analyses
		if err := json.Unmarshal(v, &a); err != nil {
			return fmt.Errorf("field analyses: %w", err)
		}
		if a == nil {
			a = Analyses{}
		}
		p.Analyses = a
	}
	return nil
}

// PatchFromCamera builds a patch that sets every attribute of c.
func PatchFromCamera(c Camera) CameraPatch {
	p := CameraPatch{
		Name:        String(c.Name),
		X:           Float(c.X),
		Y:           Float(c.Y),
		RotationDeg: Float(c.RotationDeg),
		FOVAngleDeg: Float(c.FOVAngleDeg),
		FOVRadius:   Float(c.FOVRadius),
		StatusSet:   true,
		Analyses:    slices.Clone(c.Analyses),
	}
	if c.Status != nil {
		p.Status = String(*c.Status)
	}
	if p.Analyses == nil {
		p.Analyses = Analyses{}
	}
	return p
}
