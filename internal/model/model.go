package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Project{},
	&ProjectConfig{},
	&Camera{},
}

////////////////////////
// PROJECT MODELS
////////////////////////

// Project is a floor plan and the cameras placed on it
type Project struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Name         string    `json:"name" gorm:"size:200"`
	FloorplanURL string    `json:"floorplanUrl" gorm:"size:2048"`
}

func (*Project) TableName() string {
	return "projects"
}

// ProjectConfig holds the option lists offered by the camera editor.
// Both lists are JSON string arrays.
type ProjectConfig struct {
	ProjectID     string         `json:"projectId" gorm:"primaryKey;size:64"`
	Project       Project        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:ProjectID;"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Statuses      datatypes.JSON `json:"statuses"`
	AnalysisTypes datatypes.JSON `json:"analysisTypes"`
}

func (*ProjectConfig) TableName() string {
	return "project_configs"
}

////////////////////////
// CAMERA MODELS
////////////////////////

// Camera is a placed camera with its field of view
type Camera struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_camera_created_at"`
	UpdatedAt time.Time `json:"updatedAt"`
	ProjectID string    `json:"projectId" gorm:"size:64;index:idx_camera_project_id"`
	Project   Project   `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:ProjectID;"`

	Name        string         `json:"name" gorm:"size:200"`
	X           float64        `json:"x"`           // scene units, floor plan pixels
	Y           float64        `json:"y"`           // scene units, y down
	RotationDeg float64        `json:"rotationDeg"` // 0 = +X, clockwise on screen
	FOVAngleDeg float64        `json:"fovAngleDeg"`
	FOVRadius   float64        `json:"fovRadius"`
	Status      sql.NullString `json:"status" gorm:"size:128"`
	Analyses    datatypes.JSON `json:"analyses"`
}

func (*Camera) TableName() string {
	return "cameras"
}
