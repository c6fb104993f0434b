// Package streaming defines the WebSocket protocol used to stream camera
// writes to a camplan server. Project-scoped messages carry the project id
// in their payload so one connection can serve every project.
package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/sitesurvey/camplan/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeCreateCamera  = "create_camera"
	TypeUpdateCamera  = "update_camera"
	TypeDeleteCamera  = "delete_camera"
	TypeUpdateConfig  = "update_config"
	TypeUpdateProject = "update_project"
	TypeAck           = "ack"
)

// Envelope wraps all messages sent over the WebSocket. Ref is chosen by the
// sender and echoed in the ack.
type Envelope struct {
	Type    string          `json:"type"`
	Ref     string          `json:"ref,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response. Every envelope is
// acknowledged; Error is set when the write failed.
type AckMessage struct {
	Type  string `json:"type"` // always "ack"
	For   string `json:"for"`  // the message type being acknowledged
	Ref   string `json:"ref,omitempty"`
	ID    string `json:"id,omitempty"` // assigned camera id for create_camera
	Error string `json:"error,omitempty"`
}

// CreateCameraPayload carries a new camera. The server assigns the id.
type CreateCameraPayload struct {
	ProjectID string      `json:"projectId"`
	Camera    core.Camera `json:"camera"`
}

// UpdateCameraPayload carries a partial camera update.
type UpdateCameraPayload struct {
	ID    string           `json:"id"`
	Patch core.CameraPatch `json:"patch"`
}

// DeleteCameraPayload names the camera to delete.
type DeleteCameraPayload struct {
	ID string `json:"id"`
}

// UpdateConfigPayload replaces the option lists present in Config.
type UpdateConfigPayload struct {
	ProjectID string               `json:"projectId"`
	Config    core.VocabularyPatch `json:"config"`
}

// UpdateProjectPayload carries a project metadata patch.
type UpdateProjectPayload struct {
	ProjectID string            `json:"projectId"`
	Patch     core.ProjectPatch `json:"patch"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType, ref string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Ref: ref, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Decode unmarshals the envelope payload into the type matching env.Type.
func Decode(env Envelope) (any, error) {
	var (
		out any
		err error
	)
	switch env.Type {
	case TypeCreateCamera:
		var p CreateCameraPayload
		err = json.Unmarshal(env.Payload, &p)
		out = p
	case TypeUpdateCamera:
		var p UpdateCameraPayload
		err = json.Unmarshal(env.Payload, &p)
		out = p
	case TypeDeleteCamera:
		var p DeleteCameraPayload
		err = json.Unmarshal(env.Payload, &p)
		out = p
	case TypeUpdateConfig:
		var p UpdateConfigPayload
		err = json.Unmarshal(env.Payload, &p)
		out = p
	case TypeUpdateProject:
		var p UpdateProjectPayload
		err = json.Unmarshal(env.Payload, &p)
		out = p
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return out, nil
}
