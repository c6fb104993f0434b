package convert

import (
	"database/sql"
	"testing"

	"github.com/sitesurvey/camplan/internal/model"
	"github.com/sitesurvey/camplan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestJSONToStrings(t *testing.T) {
	assert.Nil(t, jsonToStrings(nil))
	assert.Nil(t, jsonToStrings([]byte("not json")))
	assert.Equal(t, []string{}, jsonToStrings([]byte("[]")))
	assert.Equal(t, []string{"a", "b"}, jsonToStrings([]byte(`["a","b"]`)))
}

func TestProjectToCore(t *testing.T) {
	defaults := core.Vocabulary{Statuses: []string{"Clear"}, AnalysisTypes: []string{"Smoking"}}

	p := model.Project{ID: "p1", Name: "Warehouse", FloorplanURL: "/uploads/a.png"}
	cfg := model.ProjectConfig{
		ProjectID:     "p1",
		Statuses:      datatypes.JSON(`["Online","Offline"]`),
		AnalysisTypes: datatypes.JSON(`[]`),
	}

	got := ProjectToCore(p, cfg, defaults)

	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "Warehouse", got.Name)
	assert.Equal(t, "/uploads/a.png", got.FloorplanURL)
	assert.Equal(t, []string{"Online", "Offline"}, got.Statuses)
	assert.Equal(t, []string{"Smoking"}, got.AnalysisTypes)
}

func TestCameraToCore(t *testing.T) {
	m := model.Camera{
		ID:          "c1",
		ProjectID:   "p1",
		Name:        "Lobby",
		X:           12,
		Y:           34,
		RotationDeg: 370,
		FOVAngleDeg: 5,
		FOVRadius:   220,
		Status:      sql.NullString{String: "Blurry", Valid: true},
		Analyses:    datatypes.JSON(`["Smoking","Smoking","Rodents"]`),
	}

	c := CameraToCore(m)

	assert.Equal(t, "c1", c.RemoteID)
	assert.Empty(t, c.Key)
	assert.Equal(t, "Lobby", c.Name)
	assert.InDelta(t, 10, c.RotationDeg, 1e-9)
	assert.Equal(t, core.MinFOVAngleDeg, c.FOVAngleDeg)
	require.NotNil(t, c.Status)
	assert.Equal(t, "Blurry", *c.Status)
	assert.Equal(t, core.Analyses{"Smoking", "Rodents"}, c.Analyses)
}

func TestCameraToCore_NullStatusAndAnalyses(t *testing.T) {
	c := CameraToCore(model.Camera{ID: "c2", FOVAngleDeg: 70, FOVRadius: 220})

	assert.Nil(t, c.Status)
	assert.NotNil(t, c.Analyses)
	assert.Empty(t, c.Analyses)
}

func TestCamerasToCore(t *testing.T) {
	got := CamerasToCore([]model.Camera{{ID: "a"}, {ID: "b"}})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].RemoteID)
	assert.Equal(t, "b", got[1].RemoteID)
}
