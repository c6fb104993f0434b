// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sitesurvey/camplan/pkg/core"
)

// SnapshotVersion is written to every snapshot file.
const SnapshotVersion = 1

// Snapshot is the root JSON structure of the backend file
type Snapshot struct {
	Version  int               `json:"version"`
	Projects []ProjectSnapshot `json:"projects"`
}

// ProjectSnapshot is one project with its cameras
type ProjectSnapshot struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	FloorplanURL  string        `json:"floorplanUrl"`
	Statuses      []string      `json:"statuses"`
	AnalysisTypes []string      `json:"analysisTypes"`
	Cameras       []core.Camera `json:"cameras"`
}

// GetExportedFilePath returns the path of the last written snapshot
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func (b *Backend) snapshotPath() string {
	name := "camplan.json"
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	return filepath.Join(b.cfg.OutputDir, name)
}

func (b *Backend) buildSnapshot() Snapshot {
	ids := make([]string, 0, len(b.projects))
	for id := range b.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snap := Snapshot{Version: SnapshotVersion, Projects: make([]ProjectSnapshot, 0, len(ids))}
	for _, id := range ids {
		rec := b.projects[id]
		snap.Projects = append(snap.Projects, ProjectSnapshot{
			ID:            rec.Project.ID,
			Name:          rec.Project.Name,
			FloorplanURL:  rec.Project.FloorplanURL,
			Statuses:      nonNil(rec.Project.Statuses),
			AnalysisTypes: nonNil(rec.Project.AnalysisTypes),
			Cameras:       rec.Cameras,
		})
	}
	return snap
}

// exportJSON writes the snapshot, gzipped when configured
func (b *Backend) exportJSON() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := b.snapshotPath()
	snap := b.buildSnapshot()

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, snap)
	} else {
		err = writeJSON(outputPath, snap)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

// loadSnapshot restores state from the snapshot file; a missing file is not an error
func (b *Backend) loadSnapshot() error {
	f, err := os.Open(b.snapshotPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if b.cfg.CompressOutput {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open gzip snapshot: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	for _, ps := range snap.Projects {
		rec := &ProjectRecord{
			Project: core.Project{
				ID:           ps.ID,
				Name:         ps.Name,
				FloorplanURL: ps.FloorplanURL,
				Vocabulary:   core.Vocabulary{Statuses: ps.Statuses, AnalysisTypes: ps.AnalysisTypes},
			},
			Cameras: make([]core.Camera, 0, len(ps.Cameras)),
		}
		for _, c := range ps.Cameras {
			c.Normalize()
			rec.Cameras = append(rec.Cameras, c)
			b.owner[c.RemoteID] = ps.ID
		}
		b.projects[ps.ID] = rec
	}
	return nil
}

func writeJSON(path string, data Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
