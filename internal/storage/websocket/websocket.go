package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sitesurvey/camplan/internal/storage"
	"github.com/sitesurvey/camplan/pkg/core"
	"github.com/sitesurvey/camplan/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
	// Reader serves GetProject and ListCameras, usually an api.Client
	// pointed at the same server.
	Reader storage.Backend
}

// Backend streams camera writes over WebSocket to a camplan server. Creates
// wait for the server ack to learn the assigned id; every other write is
// fire-and-forget and rejected writes are logged.
type Backend struct {
	conn   *connection
	cfg    Config
	logger *slog.Logger
}

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	logger := slog.Default()
	b := &Backend{
		conn:   newConnection(logger),
		cfg:    cfg,
		logger: logger,
	}
	b.conn.onAck = b.logRejected
	return b
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	if b.cfg.Reader != nil {
		if err := b.cfg.Reader.Init(); err != nil {
			return fmt.Errorf("init reader: %w", err)
		}
	}
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	err := b.conn.close()
	if b.cfg.Reader != nil {
		err = errors.Join(err, b.cfg.Reader.Close())
	}
	return err
}

func (b *Backend) logRejected(ack streaming.AckMessage) {
	if ack.Error != "" {
		b.logger.Warn("Streamed write rejected", "for", ack.For, "ref", ack.Ref, "error", ack.Error)
	}
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := streaming.Marshal(msgType, b.conn.ref(), payload)
	if err != nil {
		return err
	}
	if !b.conn.send(data) {
		return fmt.Errorf("%s dropped: send buffer full", msgType)
	}
	return nil
}

func (b *Backend) reader() (storage.Backend, error) {
	if b.cfg.Reader == nil {
		return nil, errors.New("websocket backend has no reader configured")
	}
	return b.cfg.Reader, nil
}

func (b *Backend) GetProject(ctx context.Context, id string) (core.Project, error) {
	r, err := b.reader()
	if err != nil {
		return core.Project{}, err
	}
	return r.GetProject(ctx, id)
}

func (b *Backend) ListCameras(ctx context.Context, projectID string) ([]core.Camera, error) {
	r, err := b.reader()
	if err != nil {
		return nil, err
	}
	return r.ListCameras(ctx, projectID)
}

func (b *Backend) UpdateProject(_ context.Context, id string, p core.ProjectPatch) error {
	return b.sendEnvelope(streaming.TypeUpdateProject, streaming.UpdateProjectPayload{ProjectID: id, Patch: p})
}

func (b *Backend) UpdateConfig(_ context.Context, id string, p core.VocabularyPatch) error {
	return b.sendEnvelope(streaming.TypeUpdateConfig, streaming.UpdateConfigPayload{ProjectID: id, Config: p})
}

// CreateCamera sends the camera and waits for the ack carrying the id
// assigned by the server.
func (b *Backend) CreateCamera(ctx context.Context, projectID string, c core.Camera) (string, error) {
	c = c.Clone()
	c.RemoteID = ""
	ref := b.conn.ref()
	data, err := streaming.Marshal(streaming.TypeCreateCamera, ref, streaming.CreateCameraPayload{ProjectID: projectID, Camera: c})
	if err != nil {
		return "", err
	}

	timeout := ackTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	ack, err := b.conn.sendAndWait(data, ref, timeout)
	if err != nil {
		return "", err
	}
	if ack.ID == "" {
		return "", fmt.Errorf("create_camera ack for ref %s carried no id", ref)
	}
	return ack.ID, nil
}

func (b *Backend) UpdateCamera(_ context.Context, id string, p core.CameraPatch) error {
	return b.sendEnvelope(streaming.TypeUpdateCamera, streaming.UpdateCameraPayload{ID: id, Patch: p})
}

func (b *Backend) DeleteCamera(_ context.Context, id string) error {
	return b.sendEnvelope(streaming.TypeDeleteCamera, streaming.DeleteCameraPayload{ID: id})
}
