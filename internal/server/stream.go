package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sitesurvey/camplan/pkg/streaming"
)

// handleStream applies streamed writes in arrival order and acknowledges each
// one with the sender's ref.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Stream upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	s.metrics.streamConnections.Inc()
	s.streamsOpen.Add(1)
	defer func() {
		s.metrics.streamConnections.Dec()
		s.streamsOpen.Add(-1)
	}()
	s.log.Info("Stream connected", "remote", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Stream closed", "remote", r.RemoteAddr, "error", err)
			} else {
				s.log.Info("Stream disconnected", "remote", r.RemoteAddr)
			}
			return
		}

		var env streaming.Envelope
		var ack streaming.AckMessage
		if err := json.Unmarshal(data, &env); err != nil {
			ack = streaming.AckMessage{Type: streaming.TypeAck, Error: fmt.Sprintf("invalid envelope: %v", err)}
		} else {
			ack = s.apply(ctx, env)
		}
		s.metrics.IncStreamMessage(env.Type, ack.Error == "")
		if ack.Error == "" {
			s.streamWrites.Add(1)
		} else {
			s.streamErrors.Add(1)
		}

		if err := conn.WriteJSON(ack); err != nil {
			s.log.Warn("Stream ack failed", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}

// apply executes one envelope against the backend.
func (s *Server) apply(ctx context.Context, env streaming.Envelope) streaming.AckMessage {
	ack := streaming.AckMessage{Type: streaming.TypeAck, For: env.Type, Ref: env.Ref}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	msg, err := streaming.Decode(env)
	if err == nil {
		switch m := msg.(type) {
		case streaming.CreateCameraPayload:
			ack.ID, err = s.createCamera(ctx, m.ProjectID, m.Camera)
		case streaming.UpdateCameraPayload:
			err = s.backend.UpdateCamera(ctx, m.ID, m.Patch.Clamped())
		case streaming.DeleteCameraPayload:
			err = s.backend.DeleteCamera(ctx, m.ID)
		case streaming.UpdateConfigPayload:
			err = s.backend.UpdateConfig(ctx, m.ProjectID, m.Config)
		case streaming.UpdateProjectPayload:
			err = s.backend.UpdateProject(ctx, m.ProjectID, m.Patch)
		}
	}
	if err != nil {
		s.log.Warn("Stream write rejected", "type", env.Type, "ref", env.Ref, "error", err)
		ack.Error = err.Error()
	}
	return ack
}
