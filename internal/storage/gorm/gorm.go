// Package gormstorage implements storage.Backend on top of GORM. The sqlite
// and postgres backends embed it and only add connection handling.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sitesurvey/camplan/internal/database"
	"github.com/sitesurvey/camplan/internal/logging"
	"github.com/sitesurvey/camplan/internal/model"
	"github.com/sitesurvey/camplan/internal/model/convert"
	"github.com/sitesurvey/camplan/internal/storage"
	"github.com/sitesurvey/camplan/pkg/core"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
	// Defaults fill the option lists of projects created on first access.
	Defaults core.Vocabulary
}

// Backend implements storage.Backend with GORM.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	deps.Defaults = deps.Defaults.WithFallback(core.DefaultVocabulary())
	return &Backend{deps: deps}
}

// DB exposes the connection for embedding backends.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend: no database connection")
	}
	b.deps.LogManager.WriteLog("gorm:Init", "Migrating schema", "INFO")
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}
	b.deps.LogManager.WriteLog("gorm:Init", "Database setup complete", "INFO")
	return nil
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureProject returns the project row and its config, creating both with
// defaults on first access.
func (b *Backend) ensureProject(tx *gorm.DB, id string) (model.Project, model.ProjectConfig, error) {
	var p model.Project
	err := tx.Where(model.Project{ID: id}).
		Attrs(model.Project{Name: core.DefaultProjectName}).
		FirstOrCreate(&p).Error
	if err != nil {
		return p, model.ProjectConfig{}, fmt.Errorf("project %s: %w", id, err)
	}

	var cfg model.ProjectConfig
	err = tx.Where(model.ProjectConfig{ProjectID: id}).
		Attrs(convert.VocabularyToConfig(id, b.deps.Defaults)).
		FirstOrCreate(&cfg).Error
	if err != nil {
		return p, cfg, fmt.Errorf("project %s config: %w", id, err)
	}
	return p, cfg, nil
}

// GetProject returns the project, creating it on first access.
func (b *Backend) GetProject(ctx context.Context, id string) (core.Project, error) {
	p, cfg, err := b.ensureProject(b.deps.DB.WithContext(ctx), id)
	if err != nil {
		return core.Project{}, err
	}
	return convert.ProjectToCore(p, cfg, b.deps.Defaults), nil
}

// UpdateProject applies name and floor plan changes.
func (b *Backend) UpdateProject(ctx context.Context, id string, patch core.ProjectPatch) error {
	tx := b.deps.DB.WithContext(ctx)
	if _, _, err := b.ensureProject(tx, id); err != nil {
		return err
	}
	updates := convert.ProjectPatchToUpdates(patch)
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&model.Project{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateConfig replaces the option lists present in patch.
func (b *Backend) UpdateConfig(ctx context.Context, id string, patch core.VocabularyPatch) error {
	tx := b.deps.DB.WithContext(ctx)
	if _, _, err := b.ensureProject(tx, id); err != nil {
		return err
	}
	updates := convert.VocabularyPatchToUpdates(patch)
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&model.ProjectConfig{}).Where("project_id = ?", id).Updates(updates).Error
}

// ListCameras returns the cameras of a project in creation order.
func (b *Backend) ListCameras(ctx context.Context, projectID string) ([]core.Camera, error) {
	var rows []model.Camera
	err := b.deps.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list cameras of %s: %w", projectID, err)
	}
	return convert.CamerasToCore(rows), nil
}

// CreateCamera inserts c and returns the assigned id.
func (b *Backend) CreateCamera(ctx context.Context, projectID string, c core.Camera) (string, error) {
	tx := b.deps.DB.WithContext(ctx)
	if _, _, err := b.ensureProject(tx, projectID); err != nil {
		return "", err
	}
	c.RemoteID = uuid.NewString()
	row := convert.CoreToCamera(projectID, c)
	if err := tx.Omit("Project").Create(&row).Error; err != nil {
		return "", fmt.Errorf("create camera: %w", err)
	}
	return row.ID, nil
}

// UpdateCamera applies a partial patch. Missing cameras yield
// storage.ErrNotFound.
func (b *Backend) UpdateCamera(ctx context.Context, id string, patch core.CameraPatch) error {
	tx := b.deps.DB.WithContext(ctx)
	updates := convert.CameraPatchToUpdates(patch)

	var res *gorm.DB
	if len(updates) == 0 {
		res = tx.Model(&model.Camera{}).Where("id = ?", id).Limit(1).Find(&[]model.Camera{})
	} else {
		res = tx.Model(&model.Camera{}).Where("id = ?", id).Updates(updates)
	}
	if res.Error != nil {
		return fmt.Errorf("update camera %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("camera %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteCamera removes the camera. Unknown ids are ignored.
func (b *Backend) DeleteCamera(ctx context.Context, id string) error {
	if err := b.deps.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Camera{}).Error; err != nil {
		return fmt.Errorf("delete camera %s: %w", id, err)
	}
	return nil
}
