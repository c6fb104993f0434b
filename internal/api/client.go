// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitesurvey/camplan/internal/storage"
	"github.com/sitesurvey/camplan/pkg/core"
)

// KeyHeader carries the API key on every request.
const KeyHeader = "X-API-Key"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.Code)
}

// Unwrap maps 404 to storage.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return storage.ErrNotFound
	}
	return nil
}

// Client talks to a camplan server and implements storage.Backend over its
// REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTimeout changes the per-request timeout. Zero keeps the current one.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Init checks that the server is reachable.
func (c *Client) Init() error {
	return c.Healthcheck()
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

// Healthcheck checks if the camplan server is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/api/health")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// GetProject fetches project metadata and vocabulary.
func (c *Client) GetProject(ctx context.Context, id string) (core.Project, error) {
	var p core.Project
	err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), nil, &p)
	return p, err
}

// UpdateProject sends a metadata patch.
func (c *Client) UpdateProject(ctx context.Context, id string, patch core.ProjectPatch) error {
	return c.do(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(id), patch, nil)
}

// UpdateConfig sends a vocabulary patch.
func (c *Client) UpdateConfig(ctx context.Context, id string, patch core.VocabularyPatch) error {
	return c.do(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(id)+"/config", patch, nil)
}

// ListCameras fetches every camera of the project.
func (c *Client) ListCameras(ctx context.Context, projectID string) ([]core.Camera, error) {
	var cams []core.Camera
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(projectID)+"/cameras", nil, &cams); err != nil {
		return nil, err
	}
	if cams == nil {
		cams = []core.Camera{}
	}
	return cams, nil
}

// CreateCamera posts a camera and returns the id the server assigned.
func (c *Client) CreateCamera(ctx context.Context, projectID string, cam core.Camera) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	cam.RemoteID = ""
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+url.PathEscape(projectID)+"/cameras", cam, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("create camera: empty id in response")
	}
	return out.ID, nil
}

// UpdateCamera sends a partial camera patch.
func (c *Client) UpdateCamera(ctx context.Context, id string, patch core.CameraPatch) error {
	return c.do(ctx, http.MethodPut, "/api/cameras/"+url.PathEscape(id), patch, nil)
}

// DeleteCamera deletes a camera. A camera that is already gone is not an error.
func (c *Client) DeleteCamera(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/cameras/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// UploadFloorplan sends an image to the server and returns its public URL.
func (c *Client) UploadFloorplan(ctx context.Context, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Create multipart form
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	// Write the file in a goroutine
	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer writer.Close()

		part, err := writer.CreateFormFile("file", filepath.Base(filePath))
		if err != nil {
			errCh <- fmt.Errorf("failed to create form file: %w", err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			errCh <- fmt.Errorf("failed to copy file: %w", err)
			return
		}
		errCh <- nil
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check goroutine error
	if writeErr := <-errCh; writeErr != nil {
		return "", writeErr
	}

	if err := checkStatus(resp, http.MethodPost, "/api/upload"); err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return out.URL, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set(KeyHeader, c.apiKey)
	}
}

// do sends body as JSON and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, method, path); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func checkStatus(resp *http.Response, method, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: body.Error}
}
