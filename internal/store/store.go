// Package store holds the optimistic local state of the open project:
// cameras, selection, floor plan and vocabulary. Every mutation is applied
// locally first and then handed to a Syncer for fire-and-forget persistence.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/sitesurvey/camplan/internal/project"
	"github.com/sitesurvey/camplan/pkg/core"
)

// Syncer receives mutations for remote persistence. Implementations must not
// block; results come back through Store.Reconcile.
type Syncer interface {
	CreateCamera(key string, c core.Camera)
	UpdateCamera(key, remoteID string, p core.CameraPatch)
	DeleteCamera(key, remoteID string)
	UpdateConfig(p core.VocabularyPatch)
	UpdateProject(p core.ProjectPatch)
	// ResetIDs forgets key to id mappings once the cameras they belong to
	// have been replaced. Calls queued before it still see the old mappings.
	ResetIDs()
}

// Loader reads the persisted project. storage.Backend satisfies it.
type Loader interface {
	GetProject(ctx context.Context, id string) (core.Project, error)
	ListCameras(ctx context.Context, projectID string) ([]core.Camera, error)
}

// Options configures a Store.
type Options struct {
	Project  *project.Context
	Syncer   Syncer
	Defaults core.Vocabulary
	Logger   *slog.Logger
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	project  *project.Context
	cameras  []core.Camera
	selected string
	revision uint64

	sync     Syncer
	defaults core.Vocabulary
	log      *slog.Logger
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.Project == nil {
		opts.Project = project.NewContext("default")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Defaults.Statuses) == 0 && len(opts.Defaults.AnalysisTypes) == 0 {
		opts.Defaults = core.DefaultVocabulary()
	}
	s := &Store{
		project:  opts.Project,
		sync:     opts.Syncer,
		defaults: opts.Defaults,
		log:      opts.Logger,
	}
	s.project.Update(func(p *core.Project) {
		p.Vocabulary = p.Vocabulary.WithFallback(opts.Defaults)
	})
	return s
}

// SetSyncer replaces the syncer. nil disables remote persistence.
func (s *Store) SetSyncer(sy Syncer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync = sy
}

// Initialize replaces local state with the persisted project.
func (s *Store) Initialize(ctx context.Context, loader Loader, projectID string) error {
	p, err := loader.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading project %s: %w", projectID, err)
	}
	cams, err := loader.ListCameras(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading cameras of %s: %w", projectID, err)
	}

	local := make([]core.Camera, 0, len(cams))
	for _, c := range cams {
		c = c.Clone()
		c.Key = core.NewKey()
		c.Normalize()
		local = append(local, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.Set(p)
	s.cameras = local
	s.selected = ""
	s.revision++
	if s.sync != nil {
		s.sync.ResetIDs()
	}
	s.log.Info("project loaded", "project", p.ID, "cameras", len(local))
	return nil
}

// Revision increases on every local mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Project returns the open project metadata and vocabulary.
func (s *Store) Project() core.Project {
	return s.project.Get()
}

// Vocabulary returns the current option lists.
func (s *Store) Vocabulary() core.Vocabulary {
	return s.project.Get().Vocabulary
}

// Cameras returns a copy of all cameras in paint order.
func (s *Store) Cameras() []core.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Camera, len(s.cameras))
	for i, c := range s.cameras {
		out[i] = c.Clone()
	}
	return out
}

// Camera returns the camera with the given key.
func (s *Store) Camera(key string) (core.Camera, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(key)
	if i < 0 {
		return core.Camera{}, false
	}
	return s.cameras[i].Clone(), true
}

// SelectedKey returns the selected camera key, or "".
func (s *Store) SelectedKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Selected returns the selected camera.
func (s *Store) Selected() (core.Camera, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(s.selected)
	if i < 0 {
		return core.Camera{}, false
	}
	return s.cameras[i].Clone(), true
}

// Add inserts a default camera at scene point (x, y), selects it and
// schedules the remote create. It returns the local key.
func (s *Store) Add(x, y float64) string {
	c := core.NewCamera(x, y, s.Vocabulary().Statuses)

	s.mu.Lock()
	s.cameras = append(s.cameras, c)
	s.selected = c.Key
	s.revision++
	sy := s.sync
	s.mu.Unlock()

	if sy != nil {
		sy.CreateCamera(c.Key, c.Clone())
	}
	return c.Key
}

// Patch merges a clamped patch into the camera and schedules the remote
// update. It reports false for an unknown key or an empty patch.
func (s *Store) Patch(key string, p core.CameraPatch) bool {
	if p.IsEmpty() {
		return false
	}
	p = p.Clamped()

	s.mu.Lock()
	i := s.indexOf(key)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	p.Apply(&s.cameras[i])
	remoteID := s.cameras[i].RemoteID
	s.revision++
	sy := s.sync
	s.mu.Unlock()

	if sy != nil {
		sy.UpdateCamera(key, remoteID, p)
	}
	return true
}

// ToggleAnalysis adds or removes an analysis type on a camera.
func (s *Store) ToggleAnalysis(key, name string) bool {
	c, ok := s.Camera(key)
	if !ok {
		return false
	}
	return s.Patch(key, core.CameraPatch{Analyses: c.Analyses.Toggle(name)})
}

// Remove deletes the camera, clears the selection when it pointed at it and
// schedules the remote delete.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	i := s.indexOf(key)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	remoteID := s.cameras[i].RemoteID
	s.cameras = slices.Delete(s.cameras, i, i+1)
	if s.selected == key {
		s.selected = ""
	}
	s.revision++
	sy := s.sync
	s.mu.Unlock()

	if sy != nil {
		sy.DeleteCamera(key, remoteID)
	}
	return true
}

// Select marks key as selected; "" clears the selection. Unknown keys are
// rejected.
func (s *Store) Select(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" && s.indexOf(key) < 0 {
		return false
	}
	if s.selected != key {
		s.selected = key
		s.revision++
	}
	return true
}

// Reconcile records the repository id of a camera created optimistically.
// The local key, and therefore the selection, is unaffected. A camera that
// was removed in the meantime is ignored.
func (s *Store) Reconcile(key, remoteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(key)
	if i < 0 {
		return
	}
	s.cameras[i].RemoteID = remoteID
	s.revision++
}

// SetFloorplan records the floor plan URL and persists it on the project.
func (s *Store) SetFloorplan(url string) {
	s.project.Update(func(p *core.Project) { p.FloorplanURL = url })
	s.bump()
	if sy := s.syncer(); sy != nil {
		sy.UpdateProject(core.ProjectPatch{FloorplanURL: &url})
	}
}

// SetStatuses replaces the status vocabulary. Existing camera statuses are
// kept even when they are no longer listed.
func (s *Store) SetStatuses(items []string) {
	items = slices.Clone(items)
	s.project.Update(func(p *core.Project) { p.Statuses = items })
	s.bump()
	if sy := s.syncer(); sy != nil {
		sy.UpdateConfig(core.VocabularyPatch{Statuses: slices.Clone(items)})
	}
}

// SetAnalysisTypes replaces the analysis vocabulary.
func (s *Store) SetAnalysisTypes(items []string) {
	items = slices.Clone(items)
	s.project.Update(func(p *core.Project) { p.AnalysisTypes = items })
	s.bump()
	if sy := s.syncer(); sy != nil {
		sy.UpdateConfig(core.VocabularyPatch{AnalysisTypes: slices.Clone(items)})
	}
}

// Export snapshots the project as an import/export document.
func (s *Store) Export() core.ProjectData {
	p := s.project.Get()
	data := core.ProjectData{
		Cameras:       s.Cameras(),
		Statuses:      slices.Clone(p.Statuses),
		AnalysisTypes: slices.Clone(p.AnalysisTypes),
	}
	if data.Statuses == nil {
		data.Statuses = []string{}
	}
	if data.AnalysisTypes == nil {
		data.AnalysisTypes = []string{}
	}
	if p.FloorplanURL != "" {
		url := p.FloorplanURL
		data.FloorplanDataURL = &url
	}
	return data
}

// Import replaces the local project content with data. Empty vocabularies
// fall back to the defaults and the selection is cleared. The repository is
// brought in line: previous cameras are deleted, imported ones created.
func (s *Store) Import(data core.ProjectData) {
	vocab := core.Vocabulary{Statuses: data.Statuses, AnalysisTypes: data.AnalysisTypes}.WithFallback(s.defaults)

	imported := make([]core.Camera, 0, len(data.Cameras))
	for _, c := range data.Cameras {
		c = c.Clone()
		c.Key = core.NewKey()
		c.RemoteID = ""
		if c.Name == "" {
			c.Name = core.DefaultCameraName
		}
		c.Normalize()
		imported = append(imported, c)
	}

	url := ""
	if data.FloorplanDataURL != nil {
		url = *data.FloorplanDataURL
	}

	s.mu.Lock()
	previous := s.cameras
	s.cameras = imported
	s.selected = ""
	s.revision++
	sy := s.sync
	s.mu.Unlock()

	s.project.Update(func(p *core.Project) {
		p.FloorplanURL = url
		p.Vocabulary = vocab
	})

	if sy == nil {
		return
	}
	for _, c := range previous {
		sy.DeleteCamera(c.Key, c.RemoteID)
	}
	sy.ResetIDs()
	sy.UpdateConfig(core.VocabularyPatch{Statuses: vocab.Statuses, AnalysisTypes: vocab.AnalysisTypes})
	sy.UpdateProject(core.ProjectPatch{FloorplanURL: &url})
	for _, c := range imported {
		sy.CreateCamera(c.Key, c.Clone())
	}
	s.log.Info("project imported", "project", s.project.ID(), "cameras", len(imported), "replaced", len(previous))
}

func (s *Store) indexOf(key string) int {
	if key == "" {
		return -1
	}
	return slices.IndexFunc(s.cameras, func(c core.Camera) bool { return c.Key == key })
}

func (s *Store) bump() {
	s.mu.Lock()
	s.revision++
	s.mu.Unlock()
}

func (s *Store) syncer() Syncer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sync
}
