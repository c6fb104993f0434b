// internal/storage/memory/export_test.go
package memory

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/pkg/core"
)

func seed(t *testing.T, b *Backend) string {
	t.Helper()
	ctx := context.Background()
	url := "/uploads/plan.png"
	if err := b.UpdateProject(ctx, "site", core.ProjectPatch{FloorplanURL: &url}); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}
	id, err := b.CreateCamera(ctx, "site", core.NewCamera(5, 6, []string{"Clear"}))
	if err != nil {
		t.Fatalf("CreateCamera failed: %v", err)
	}
	return id
}

func TestExportJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.MemoryConfig{OutputDir: dir}

	b := New(cfg, core.Vocabulary{})
	id := seed(t, b)
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	path := b.GetExportedFilePath()
	if path != filepath.Join(dir, "camplan.json") {
		t.Errorf("unexpected export path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snap.Version != SnapshotVersion || len(snap.Projects) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	restored := New(cfg, core.Vocabulary{})
	if err := restored.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	cams, _ := restored.ListCameras(context.Background(), "site")
	if len(cams) != 1 || cams[0].RemoteID != id {
		t.Fatalf("expected restored camera %s, got %+v", id, cams)
	}
	p, _ := restored.GetProject(context.Background(), "site")
	if p.FloorplanURL != "/uploads/plan.png" {
		t.Errorf("expected floor plan to survive, got %q", p.FloorplanURL)
	}

	// restored ids must stay addressable
	if err := restored.UpdateCamera(context.Background(), id, core.MovePatch(1, 1)); err != nil {
		t.Errorf("UpdateCamera after restore failed: %v", err)
	}
}

func TestExportJSON_Gzip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.MemoryConfig{OutputDir: dir, CompressOutput: true}

	b := New(cfg, core.Vocabulary{})
	seed(t, b)
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "camplan.json.gz"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("not gzip: %v", err)
	}
	var snap Snapshot
	if err := json.NewDecoder(gz).Decode(&snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(snap.Projects[0].Cameras) != 1 {
		t.Errorf("expected 1 camera, got %d", len(snap.Projects[0].Cameras))
	}
}

func TestLoadSnapshot_Missing(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()}, core.Vocabulary{})
	if err := b.Init(); err != nil {
		t.Errorf("missing snapshot should not fail: %v", err)
	}
}

func TestLoadSnapshot_BadVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "camplan.json"), []byte(`{"version": 99, "projects": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	b := New(config.MemoryConfig{OutputDir: dir}, core.Vocabulary{})
	if err := b.Init(); err == nil {
		t.Error("expected version error")
	}
}
