// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/sitesurvey/camplan/pkg/core"
)

// ErrNotFound is returned when a camera id does not exist.
var ErrNotFound = errors.New("not found")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Project management. GetProject creates the project with the default
	// vocabulary on first access.
	GetProject(ctx context.Context, id string) (core.Project, error)
	UpdateProject(ctx context.Context, id string, p core.ProjectPatch) error
	UpdateConfig(ctx context.Context, id string, p core.VocabularyPatch) error

	// Cameras. CreateCamera returns the id assigned by the repository;
	// UpdateCamera returns ErrNotFound for an unknown id.
	ListCameras(ctx context.Context, projectID string) ([]core.Camera, error)
	CreateCamera(ctx context.Context, projectID string, c core.Camera) (string, error)
	UpdateCamera(ctx context.Context, id string, p core.CameraPatch) error
	DeleteCamera(ctx context.Context, id string) error
}

// Exportable is an optional interface for backends that keep their data in
// a file that can be handed to the user.
type Exportable interface {
	GetExportedFilePath() string
}
