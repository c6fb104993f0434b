// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"github.com/sitesurvey/camplan/internal/model"
	"github.com/sitesurvey/camplan/pkg/core"
	"gorm.io/datatypes"
)

// stringsToJSON converts a []string to datatypes.JSON for DB storage.
func stringsToJSON(items []string) datatypes.JSON {
	if len(items) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(items)
	return datatypes.JSON(data)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CoreToCamera converts a core.Camera to a GORM model.Camera owned by
// projectID. The caller assigns the ID.
func CoreToCamera(projectID string, c core.Camera) model.Camera {
	c.Normalize()
	return model.Camera{
		ID:          c.RemoteID,
		ProjectID:   projectID,
		Name:        c.Name,
		X:           c.X,
		Y:           c.Y,
		RotationDeg: c.RotationDeg,
		FOVAngleDeg: c.FOVAngleDeg,
		FOVRadius:   c.FOVRadius,
		Status:      nullString(c.Status),
		Analyses:    stringsToJSON(c.Analyses),
	}
}

// VocabularyToConfig converts option lists to a GORM model.ProjectConfig.
func VocabularyToConfig(projectID string, v core.Vocabulary) model.ProjectConfig {
	return model.ProjectConfig{
		ProjectID:     projectID,
		Statuses:      stringsToJSON(v.Statuses),
		AnalysisTypes: stringsToJSON(v.AnalysisTypes),
	}
}

// CameraPatchToUpdates converts a clamped patch to a column map for
// gorm's Updates. Only present fields are included; a cleared status maps
// to NULL.
func CameraPatchToUpdates(p core.CameraPatch) map[string]any {
	p = p.Clamped()
	updates := make(map[string]any)
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.X != nil {
		updates["x"] = *p.X
	}
	if p.Y != nil {
		updates["y"] = *p.Y
	}
	if p.RotationDeg != nil {
		updates["rotation_deg"] = *p.RotationDeg
	}
	if p.FOVAngleDeg != nil {
		updates["fov_angle_deg"] = *p.FOVAngleDeg
	}
	if p.FOVRadius != nil {
		updates["fov_radius"] = *p.FOVRadius
	}
	if p.StatusSet {
		updates["status"] = nullString(p.Status)
	}
	if p.Analyses != nil {
		updates["analyses"] = stringsToJSON(p.Analyses)
	}
	return updates
}

// ProjectPatchToUpdates converts a project patch to a column map.
func ProjectPatchToUpdates(p core.ProjectPatch) map[string]any {
	updates := make(map[string]any)
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.FloorplanURL != nil {
		updates["floorplan_url"] = *p.FloorplanURL
	}
	return updates
}

// VocabularyPatchToUpdates converts a config patch to a column map.
func VocabularyPatchToUpdates(p core.VocabularyPatch) map[string]any {
	updates := make(map[string]any)
	if p.Statuses != nil {
		updates["statuses"] = stringsToJSON(p.Statuses)
	}
	if p.AnalysisTypes != nil {
		updates["analysis_types"] = stringsToJSON(p.AnalysisTypes)
	}
	return updates
}
