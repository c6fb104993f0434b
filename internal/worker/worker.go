// Package worker persists store mutations in the background. Mutations are
// queued on a single dispatcher lane so a camera's create always reaches the
// backend before its updates and deletes.
package worker

import (
	"log/slog"
	"time"

	"github.com/sitesurvey/camplan/internal/cache"
	"github.com/sitesurvey/camplan/internal/dispatcher"
	"github.com/sitesurvey/camplan/internal/logging"
	"github.com/sitesurvey/camplan/internal/project"
	"github.com/sitesurvey/camplan/internal/storage"
)

// DefaultCallTimeout bounds a single backend call.
const DefaultCallTimeout = 30 * time.Second

// Reconciler receives the repository id of an optimistically created
// camera. store.Store satisfies it.
type Reconciler interface {
	Reconcile(key, remoteID string)
}

// Recorder observes backend calls. influx.Manager satisfies it.
type Recorder interface {
	RecordSync(op string, d time.Duration, err error)
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	IDCache     *cache.IDCache
	LogManager  *logging.SlogManager
	Project     *project.Context
	Recorder    Recorder
	CallTimeout time.Duration
}

// Manager implements store.Syncer on top of a storage backend.
type Manager struct {
	deps       Dependencies
	backend    storage.Backend
	reconciler Reconciler
	dispatcher *dispatcher.Dispatcher
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.IDCache == nil {
		deps.IDCache = cache.NewIDCache()
	}
	if deps.Project == nil {
		deps.Project = project.NewContext("default")
	}
	if deps.CallTimeout <= 0 {
		deps.CallTimeout = DefaultCallTimeout
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// SetReconciler sets the receiver of assigned camera ids.
func (m *Manager) SetReconciler(r Reconciler) {
	m.reconciler = r
}

func (m *Manager) logger() *slog.Logger {
	if m.deps.LogManager == nil {
		return slog.Default()
	}
	return m.deps.LogManager.Logger()
}

func (m *Manager) record(op string, start time.Time, err error) {
	if m.deps.Recorder != nil {
		m.deps.Recorder.RecordSync(op, time.Since(start), err)
	}
}
