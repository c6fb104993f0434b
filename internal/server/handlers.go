package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sitesurvey/camplan/internal/storage"
	"github.com/sitesurvey/camplan/pkg/core"
)

type okResponse struct {
	OK bool `json:"ok"`
}

type idResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// decodeBody reads a JSON request body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return false
	}
	return true
}

// fail maps a backend error to a response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) callContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), callTimeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.callContext(r)
	defer cancel()

	p, err := s.backend.GetProject(ctx, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var patch core.ProjectPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	ctx, cancel := s.callContext(r)
	defer cancel()

	if err := s.backend.UpdateProject(ctx, r.PathValue("id"), patch); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.callContext(r)
	defer cancel()

	p, err := s.backend.GetProject(ctx, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Vocabulary)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch core.VocabularyPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	ctx, cancel := s.callContext(r)
	defer cancel()

	if err := s.backend.UpdateConfig(ctx, r.PathValue("id"), patch); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleListCameras(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.callContext(r)
	defer cancel()

	cams, err := s.backend.ListCameras(ctx, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cams == nil {
		cams = []core.Camera{}
	}
	writeJSON(w, http.StatusOK, cams)
}

func (s *Server) handleCreateCamera(w http.ResponseWriter, r *http.Request) {
	var c core.Camera
	if !decodeBody(w, r, &c) {
		return
	}
	ctx, cancel := s.callContext(r)
	defer cancel()

	id, err := s.createCamera(ctx, r.PathValue("id"), c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// createCamera fills defaults and enforces the attribute ranges before the
// camera reaches the backend. Clients are not trusted to clamp.
func (s *Server) createCamera(ctx context.Context, projectID string, c core.Camera) (string, error) {
	c.Key = ""
	c.RemoteID = ""
	if c.Name == "" {
		c.Name = core.DefaultCameraName
	}
	if c.Analyses == nil {
		c.Analyses = core.Analyses{}
	}
	c.Normalize()
	return s.backend.CreateCamera(ctx, projectID, c)
}

func (s *Server) handleUpdateCamera(w http.ResponseWriter, r *http.Request) {
	var patch core.CameraPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	ctx, cancel := s.callContext(r)
	defer cancel()

	if err := s.backend.UpdateCamera(ctx, r.PathValue("id"), patch.Clamped()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "camera not found")
			return
		}
		s.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleDeleteCamera(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.callContext(r)
	defer cancel()

	if err := s.backend.DeleteCamera(ctx, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w)
}

// handleStatic serves the browser client from PublicDir. Unknown non-API
// paths fall back to index.html so client-side routes survive a reload.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	if p == "/api" || strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/uploads/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if (r.Method != http.MethodGet && r.Method != http.MethodHead) || s.cfg.PublicDir == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	file := filepath.Join(s.cfg.PublicDir, filepath.FromSlash(path.Clean("/"+p)))
	if isFile(file) {
		http.ServeFile(w, r, file)
		return
	}
	index := filepath.Join(s.cfg.PublicDir, "index.html")
	if isFile(index) {
		http.ServeFile(w, r, index)
		return
	}
	writeError(w, http.StatusNotFound, "Not found")
}

func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}
