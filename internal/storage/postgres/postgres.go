// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/database"
	"github.com/sitesurvey/camplan/internal/logging"
	gormstorage "github.com/sitesurvey/camplan/internal/storage/gorm"
	"github.com/sitesurvey/camplan/pkg/core"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the PostgreSQL storage backend.
type Dependencies struct {
	// DB is used as is when set; otherwise Init connects with Config.
	DB         *gorm.DB
	Config     config.DBConfig
	Defaults   core.Vocabulary
	LogManager *logging.SlogManager
	Logger     zerolog.Logger
	// FallbackPath is the SQLite file used when PostgreSQL is unreachable.
	// Empty falls back to an in-memory database.
	FallbackPath string
}

// Backend implements storage.Backend on PostgreSQL. The CRUD methods come
// from the embedded GORM backend, which is available after Init.
type Backend struct {
	*gormstorage.Backend
	deps    Dependencies
	manager *database.Manager
}

// New creates a new PostgreSQL storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects, falling back to SQLite when PostgreSQL is unreachable, and
// migrates the schema.
func (b *Backend) Init() error {
	db := b.deps.DB
	if db == nil {
		b.manager = database.NewManager(b.deps.Logger, b.deps.Config)
		b.manager.SqliteFilePath = b.deps.FallbackPath
		if err := b.manager.Connect(); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		db = b.manager.DB
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: b.deps.LogManager,
		Defaults:   b.deps.Defaults,
	})
	if err := b.Backend.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close releases the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}

// UsingFallback reports whether Init fell back to SQLite.
func (b *Backend) UsingFallback() bool {
	return b.manager != nil && b.manager.ShouldSaveLocal
}
