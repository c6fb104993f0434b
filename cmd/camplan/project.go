package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	"github.com/sitesurvey/camplan/internal/cache"
	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/dispatcher"
	"github.com/sitesurvey/camplan/internal/logging"
	"github.com/sitesurvey/camplan/internal/project"
	"github.com/sitesurvey/camplan/internal/storage"
	"github.com/sitesurvey/camplan/internal/storage/factory"
	"github.com/sitesurvey/camplan/internal/store"
	"github.com/sitesurvey/camplan/internal/worker"
)

// workspace is an open project: the local store, the sync pipeline behind it
// and the backend it persists to.
type workspace struct {
	store   *store.Store
	backend storage.Backend
	events  *dispatcher.Dispatcher
	workers *worker.Manager
	logger  *slog.Logger
}

// openWorkspace connects to the configured backend and loads projectID.
func openWorkspace(ctx context.Context, projectID string, logs *logging.SlogManager) (*workspace, error) {
	logger := logs.Logger()
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().
		Level(zerolog.InfoLevel)

	storageCfg := config.GetStorageConfig()
	logs.Scope.Storage = func() string { return storageCfg.Type }
	logs.Scope.Project = func() string { return projectID }

	backend, err := factory.New(factory.Options{
		Storage:    storageCfg,
		DB:         config.GetDBConfig(),
		API:        config.GetAPIConfig(),
		Defaults:   config.GetVocabulary(),
		LogManager: logs,
		DBLogger:   zlog,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	events, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	proj := project.NewContext(projectID)
	workers := worker.NewManager(worker.Dependencies{
		IDCache:    cache.NewIDCache(),
		LogManager: logs,
		Project:    proj,
	}, backend)
	workers.RegisterHandlers(events)

	st := store.New(store.Options{
		Project:  proj,
		Syncer:   workers,
		Defaults: config.GetVocabulary(),
		Logger:   logger,
	})
	workers.SetReconciler(st)

	ws := &workspace{store: st, backend: backend, events: events, workers: workers, logger: logger}
	if err := st.Initialize(ctx, backend, projectID); err != nil {
		_ = ws.Close(ctx)
		return nil, err
	}
	return ws, nil
}

// Close waits for queued writes to reach the backend, then closes it.
func (w *workspace) Close(ctx context.Context) error {
	err := w.events.Close(ctx)
	if err != nil {
		err = fmt.Errorf("drain sync queue: %w", err)
	}
	return errors.Join(err, w.backend.Close())
}
