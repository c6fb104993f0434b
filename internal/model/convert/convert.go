// Package convert provides functions to convert GORM models to core models
package convert

import (
	"encoding/json"

	"github.com/sitesurvey/camplan/internal/model"
	"github.com/sitesurvey/camplan/pkg/core"
)

// jsonToStrings decodes a JSON string array. Invalid or empty data yields
// nil so callers can fall back to defaults.
func jsonToStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// ProjectToCore converts a GORM Project and its config to a core.Project.
// Empty option lists are filled from defaults.
func ProjectToCore(p model.Project, cfg model.ProjectConfig, defaults core.Vocabulary) core.Project {
	return core.Project{
		ID:           p.ID,
		Name:         p.Name,
		FloorplanURL: p.FloorplanURL,
		Vocabulary: core.Vocabulary{
			Statuses:      jsonToStrings(cfg.Statuses),
			AnalysisTypes: jsonToStrings(cfg.AnalysisTypes),
		}.WithFallback(defaults),
	}
}

// CameraToCore converts a GORM Camera to a core.Camera.
// GORM Camera.ID maps to core Camera.RemoteID; the local key is left empty.
func CameraToCore(c model.Camera) core.Camera {
	out := core.Camera{
		RemoteID:    c.ID,
		Name:        c.Name,
		X:           c.X,
		Y:           c.Y,
		RotationDeg: c.RotationDeg,
		FOVAngleDeg: c.FOVAngleDeg,
		FOVRadius:   c.FOVRadius,
		Analyses:    core.Analyses(jsonToStrings(c.Analyses)),
	}
	if c.Status.Valid {
		s := c.Status.String
		out.Status = &s
	}
	if out.Analyses == nil {
		out.Analyses = core.Analyses{}
	}
	out.Normalize()
	return out
}

// CamerasToCore converts a slice of GORM cameras.
func CamerasToCore(cams []model.Camera) []core.Camera {
	out := make([]core.Camera, len(cams))
	for i, c := range cams {
		out[i] = CameraToCore(c)
	}
	return out
}
