// Package factory builds the storage backend selected by configuration.
package factory

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sitesurvey/camplan/internal/api"
	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/logging"
	"github.com/sitesurvey/camplan/internal/storage"
	"github.com/sitesurvey/camplan/internal/storage/memory"
	pgstorage "github.com/sitesurvey/camplan/internal/storage/postgres"
	sqlitestorage "github.com/sitesurvey/camplan/internal/storage/sqlite"
	wsstorage "github.com/sitesurvey/camplan/internal/storage/websocket"
	"github.com/sitesurvey/camplan/pkg/core"
)

// Backend type names accepted in storage.type.
const (
	TypeMemory    = "memory"
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeAPI       = "api"
	TypeWebSocket = "websocket"
)

// Options carries everything a backend may need.
type Options struct {
	Storage    config.StorageConfig
	DB         config.DBConfig
	API        config.APIConfig
	Defaults   core.Vocabulary
	LogManager *logging.SlogManager
	DBLogger   zerolog.Logger
	Logger     *slog.Logger
}

// New creates the backend named by opts.Storage.Type. The backend is not
// initialized.
func New(opts Options) (storage.Backend, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	storageCfg := opts.Storage

	switch storageCfg.Type {
	case TypePostgres:
		opts.Logger.Info("Postgres storage backend initialized", "host", opts.DB.Host, "database", opts.DB.Database)
		return pgstorage.New(pgstorage.Dependencies{
			Config:       opts.DB,
			Defaults:     opts.Defaults,
			LogManager:   opts.LogManager,
			Logger:       opts.DBLogger,
			FallbackPath: storageCfg.SQLite.Path,
		}), nil

	case TypeSQLite:
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path:         storageCfg.SQLite.Path,
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.DumpPath,
		}, opts.Defaults, opts.LogManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		opts.Logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case TypeAPI:
		opts.Logger.Info("API storage backend initialized", "url", opts.API.ServerURL)
		return newAPIClient(opts.API), nil

	case TypeWebSocket:
		wsURL := httpToWS(opts.API.ServerURL) + "/api/stream"
		opts.Logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: opts.API.APIKey,
			Reader: newAPIClient(opts.API),
		}), nil

	case TypeMemory, "":
		opts.Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory, opts.Defaults), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

func newAPIClient(cfg config.APIConfig) *api.Client {
	c := api.New(cfg.ServerURL, cfg.APIKey)
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return c
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
