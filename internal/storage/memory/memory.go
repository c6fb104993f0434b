// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/storage"
	"github.com/sitesurvey/camplan/pkg/core"
)

// ProjectRecord groups a project with its cameras in insertion order
type ProjectRecord struct {
	Project core.Project
	Cameras []core.Camera
}

// Backend keeps projects in memory and snapshots them to a JSON file on Close
type Backend struct {
	cfg      config.MemoryConfig
	defaults core.Vocabulary

	projects map[string]*ProjectRecord
	owner    map[string]string // camera id -> project id

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend. Empty defaults fall back to the built-in
// vocabulary.
func New(cfg config.MemoryConfig, defaults core.Vocabulary) *Backend {
	return &Backend{
		cfg:      cfg,
		defaults: defaults.WithFallback(core.DefaultVocabulary()),
		projects: make(map[string]*ProjectRecord),
		owner:    make(map[string]string),
	}
}

// Init loads the previous snapshot when one exists
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadSnapshot()
}

// Close writes the snapshot
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exportJSON()
}

// ensure returns the record for id, creating it with defaults. Caller holds the write lock.
func (b *Backend) ensure(id string) *ProjectRecord {
	rec, ok := b.projects[id]
	if !ok {
		rec = &ProjectRecord{
			Project: core.Project{
				ID:         id,
				Name:       core.DefaultProjectName,
				Vocabulary: b.defaults.WithFallback(core.Vocabulary{}),
			},
			Cameras: []core.Camera{},
		}
		b.projects[id] = rec
	}
	return rec
}

// GetProject returns the project, creating it on first access
func (b *Backend) GetProject(ctx context.Context, id string) (core.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.ensure(id).Project
	p.Vocabulary = p.Vocabulary.WithFallback(core.Vocabulary{})
	return p, nil
}

// UpdateProject applies a metadata patch
func (b *Backend) UpdateProject(ctx context.Context, id string, p core.ProjectPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.Apply(&b.ensure(id).Project)
	return nil
}

// UpdateConfig applies a vocabulary patch
func (b *Backend) UpdateConfig(ctx context.Context, id string, p core.VocabularyPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.Apply(&b.ensure(id).Project.Vocabulary)
	return nil
}

// ListCameras returns copies of the project's cameras
func (b *Backend) ListCameras(ctx context.Context, projectID string) ([]core.Camera, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec := b.ensure(projectID)
	out := make([]core.Camera, len(rec.Cameras))
	for i, c := range rec.Cameras {
		out[i] = c.Clone()
	}
	return out, nil
}

// CreateCamera stores a camera and assigns its id
func (b *Backend) CreateCamera(ctx context.Context, projectID string, c core.Camera) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.ensure(projectID)
	c = c.Clone()
	c.Key = ""
	c.RemoteID = uuid.NewString()
	c.Normalize()
	rec.Cameras = append(rec.Cameras, c)
	b.owner[c.RemoteID] = projectID
	return c.RemoteID, nil
}

// UpdateCamera merges a patch into a stored camera
func (b *Backend) UpdateCamera(ctx context.Context, id string, p core.CameraPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, i := b.find(id)
	if i < 0 {
		return fmt.Errorf("camera %s: %w", id, storage.ErrNotFound)
	}
	p.Apply(&rec.Cameras[i])
	return nil
}

// DeleteCamera removes a camera; unknown ids are ignored
func (b *Backend) DeleteCamera(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, i := b.find(id)
	if i < 0 {
		return nil
	}
	rec.Cameras = slices.Delete(rec.Cameras, i, i+1)
	delete(b.owner, id)
	return nil
}

func (b *Backend) find(id string) (*ProjectRecord, int) {
	pid, ok := b.owner[id]
	if !ok {
		return nil, -1
	}
	rec := b.projects[pid]
	i := slices.IndexFunc(rec.Cameras, func(c core.Camera) bool { return c.RemoteID == id })
	return rec, i
}
