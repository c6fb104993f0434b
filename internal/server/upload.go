package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// uploadName builds a collision-resistant file name that keeps the original
// extension when it looks sane.
func uploadName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !extPattern.MatchString(ext) {
		ext = ".bin"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, ext)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		default:
			writeError(w, http.StatusBadRequest, "no file")
		}
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.fail(w, r, fmt.Errorf("create upload dir: %w", err))
		return
	}

	name := uploadName(header.Filename, time.Now())
	dst, err := os.Create(filepath.Join(s.cfg.UploadDir, name))
	if err != nil {
		s.fail(w, r, fmt.Errorf("create upload: %w", err))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		s.fail(w, r, fmt.Errorf("write upload: %w", err))
		return
	}
	if err := dst.Close(); err != nil {
		s.fail(w, r, fmt.Errorf("close upload: %w", err))
		return
	}

	s.log.Info("Floor plan uploaded", "name", name, "size", header.Size)
	writeJSON(w, http.StatusOK, struct {
		URL string `json:"url"`
	}{URL: "/uploads/" + name})
}

func (s *Server) handleUploadedFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	file := filepath.Join(s.cfg.UploadDir, name)
	if !isFile(file) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	http.ServeFile(w, r, file)
}
