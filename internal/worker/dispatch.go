package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sitesurvey/camplan/internal/dispatcher"
	"github.com/sitesurvey/camplan/pkg/core"
)

// Dispatcher commands.
const (
	CmdSync          = "sync"
	CmdCreateCamera  = "camera:create"
	CmdUpdateCamera  = "camera:update"
	CmdDeleteCamera  = "camera:delete"
	CmdUpdateConfig  = "project:config"
	CmdUpdateProject = "project:update"
	CmdResetIDs      = "ids:reset"
)

// SyncBufferSize is the capacity of the sync lane.
const SyncBufferSize = 1000

// ErrNoRemoteID is returned when a camera is updated before its create was
// confirmed, usually because the create failed.
var ErrNoRemoteID = errors.New("camera has no remote id")

// CreateCameraOp creates a camera created locally under Key.
type CreateCameraOp struct {
	ProjectID string
	Key       string
	Camera    core.Camera
}

// UpdateCameraOp patches a camera. RemoteID may be empty while the create
// is still queued; it is then resolved from the id cache.
type UpdateCameraOp struct {
	Key      string
	RemoteID string
	Patch    core.CameraPatch
}

// DeleteCameraOp deletes a camera.
type DeleteCameraOp struct {
	Key      string
	RemoteID string
}

// ConfigOp updates the project vocabulary.
type ConfigOp struct {
	ProjectID string
	Patch     core.VocabularyPatch
}

// ProjectOp updates project metadata.
type ProjectOp struct {
	ProjectID string
	Patch     core.ProjectPatch
}

// RegisterHandlers registers the sync lane and the per-operation handlers
// with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.dispatcher = d

	// One lane keeps remote calls in issuance order; a full lane drops.
	d.Register(CmdSync, m.handleSync, dispatcher.Buffered(SyncBufferSize))

	d.Register(CmdCreateCamera, m.handleCreateCamera, dispatcher.Logged())
	d.Register(CmdUpdateCamera, m.handleUpdateCamera, dispatcher.Logged())
	d.Register(CmdDeleteCamera, m.handleDeleteCamera, dispatcher.Logged())
	d.Register(CmdUpdateConfig, m.handleUpdateConfig, dispatcher.Logged())
	d.Register(CmdUpdateProject, m.handleUpdateProject, dispatcher.Logged())
	d.Register(CmdResetIDs, m.handleResetIDs)
}

// CreateCamera queues a remote create.
func (m *Manager) CreateCamera(key string, c core.Camera) {
	m.enqueue(CmdCreateCamera, CreateCameraOp{ProjectID: m.deps.Project.ID(), Key: key, Camera: c})
}

// UpdateCamera queues a remote update.
func (m *Manager) UpdateCamera(key, remoteID string, p core.CameraPatch) {
	m.enqueue(CmdUpdateCamera, UpdateCameraOp{Key: key, RemoteID: remoteID, Patch: p})
}

// DeleteCamera queues a remote delete.
func (m *Manager) DeleteCamera(key, remoteID string) {
	m.enqueue(CmdDeleteCamera, DeleteCameraOp{Key: key, RemoteID: remoteID})
}

// UpdateConfig queues a vocabulary update.
func (m *Manager) UpdateConfig(p core.VocabularyPatch) {
	m.enqueue(CmdUpdateConfig, ConfigOp{ProjectID: m.deps.Project.ID(), Patch: p})
}

// UpdateProject queues a project metadata update.
func (m *Manager) UpdateProject(p core.ProjectPatch) {
	m.enqueue(CmdUpdateProject, ProjectOp{ProjectID: m.deps.Project.ID(), Patch: p})
}

// ResetIDs queues a reset of the id cache behind the calls already queued.
func (m *Manager) ResetIDs() {
	m.enqueue(CmdResetIDs, nil)
}

func (m *Manager) enqueue(command string, payload any) {
	if m.dispatcher == nil {
		m.logger().Warn("sync dropped, handlers not registered", "command", command)
		return
	}
	now := time.Now()
	_, err := m.dispatcher.Dispatch(dispatcher.Event{
		Command:   CmdSync,
		Payload:   dispatcher.Event{Command: command, Payload: payload, Timestamp: now},
		Timestamp: now,
	})
	if err != nil {
		m.logger().Warn("sync dropped", "command", command, "error", err)
	}
}

func (m *Manager) handleSync(e dispatcher.Event) (any, error) {
	inner, ok := e.Payload.(dispatcher.Event)
	if !ok {
		return nil, fmt.Errorf("unexpected sync payload %T", e.Payload)
	}
	return m.dispatcher.Dispatch(inner)
}

func (m *Manager) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.deps.CallTimeout)
}

// resolve returns the remote id for a camera, preferring the one captured
// at enqueue time.
func (m *Manager) resolve(key, remoteID string) (string, bool) {
	if remoteID != "" {
		return remoteID, true
	}
	return m.deps.IDCache.Get(key)
}

func (m *Manager) handleCreateCamera(e dispatcher.Event) (any, error) {
	op, ok := e.Payload.(CreateCameraOp)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}

	ctx, cancel := m.callContext()
	defer cancel()
	start := time.Now()
	id, err := m.backend.CreateCamera(ctx, op.ProjectID, op.Camera)
	m.record(CmdCreateCamera, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera %s: %w", op.Key, err)
	}

	m.deps.IDCache.Set(op.Key, id)
	if m.reconciler != nil {
		m.reconciler.Reconcile(op.Key, id)
	}
	return id, nil
}

func (m *Manager) handleUpdateCamera(e dispatcher.Event) (any, error) {
	op, ok := e.Payload.(UpdateCameraOp)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}
	id, ok := m.resolve(op.Key, op.RemoteID)
	if !ok {
		return nil, fmt.Errorf("failed to update camera %s: %w", op.Key, ErrNoRemoteID)
	}

	ctx, cancel := m.callContext()
	defer cancel()
	start := time.Now()
	err := m.backend.UpdateCamera(ctx, id, op.Patch)
	m.record(CmdUpdateCamera, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update camera %s: %w", id, err)
	}
	return nil, nil
}

func (m *Manager) handleDeleteCamera(e dispatcher.Event) (any, error) {
	op, ok := e.Payload.(DeleteCameraOp)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}
	id, ok := m.resolve(op.Key, op.RemoteID)
	if !ok {
		// never reached the repository
		return nil, nil
	}

	ctx, cancel := m.callContext()
	defer cancel()
	start := time.Now()
	err := m.backend.DeleteCamera(ctx, id)
	m.record(CmdDeleteCamera, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to delete camera %s: %w", id, err)
	}
	m.deps.IDCache.Delete(op.Key)
	return nil, nil
}

func (m *Manager) handleUpdateConfig(e dispatcher.Event) (any, error) {
	op, ok := e.Payload.(ConfigOp)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}

	ctx, cancel := m.callContext()
	defer cancel()
	start := time.Now()
	err := m.backend.UpdateConfig(ctx, op.ProjectID, op.Patch)
	m.record(CmdUpdateConfig, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update config of %s: %w", op.ProjectID, err)
	}
	return nil, nil
}

func (m *Manager) handleUpdateProject(e dispatcher.Event) (any, error) {
	op, ok := e.Payload.(ProjectOp)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}

	ctx, cancel := m.callContext()
	defer cancel()
	start := time.Now()
	err := m.backend.UpdateProject(ctx, op.ProjectID, op.Patch)
	m.record(CmdUpdateProject, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update project %s: %w", op.ProjectID, err)
	}
	return nil, nil
}

func (m *Manager) handleResetIDs(dispatcher.Event) (any, error) {
	cleared := m.deps.IDCache.Len()
	m.deps.IDCache.Reset()
	m.logger().Debug("id cache reset", "cleared", cleared)
	return cleared, nil
}
