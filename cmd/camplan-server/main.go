package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/influx"
	"github.com/sitesurvey/camplan/internal/logging"
	"github.com/sitesurvey/camplan/internal/monitor"
	intOtel "github.com/sitesurvey/camplan/internal/otel"
	"github.com/sitesurvey/camplan/internal/server"
	"github.com/sitesurvey/camplan/internal/storage/factory"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const ServiceName = "camplan-server"

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Parse()

	if err := run(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", ServiceName, err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sessionStart := time.Now()

	slogManager := logging.NewSlogManager()
	slogManager.Setup(nil, "info", nil)
	logger := slogManager.Logger()

	if err := config.Load(configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config", "dir", configDir)
	}

	logsDir := config.GetString("logsDir")
	logFile, logPath, err := logging.OpenLogFile(logsDir, ServiceName, sessionStart)
	if err != nil {
		return err
	}
	defer logFile.Close()

	otelCfg := config.GetOTelConfig()
	var otelProvider *intOtel.Provider
	if otelCfg.Enabled {
		otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			logger.Error("Failed to initialize OTel provider", "error", err)
			otelProvider = nil
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if otelProvider != nil {
		otelLogProvider = otelProvider.LoggerProvider()
		defer shutdownOTel(otelProvider, logger)
	}
	slogManager.Setup(io.MultiWriter(os.Stdout, logFile), config.GetString("logLevel"), otelLogProvider)
	logger = slogManager.Logger()
	slog.SetDefault(logger)
	logger.Info("Starting", "service", ServiceName, "version", Version, "build", BuildDate, "log", logPath)

	zlog := zerolog.New(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout}, logFile)).
		With().Timestamp().Logger()

	storageCfg := config.GetStorageConfig()
	switch storageCfg.Type {
	case factory.TypeAPI, factory.TypeWebSocket:
		return fmt.Errorf("storage type %q forwards to a server and cannot back one", storageCfg.Type)
	}
	slogManager.Scope.Storage = func() string { return storageCfg.Type }

	backend, err := factory.New(factory.Options{
		Storage:    storageCfg,
		DB:         config.GetDBConfig(),
		API:        config.GetAPIConfig(),
		Defaults:   config.GetVocabulary(),
		LogManager: slogManager,
		DBLogger:   zlog,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	var recorder server.RequestRecorder
	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		m := influx.NewManager(zlog, influxCfg, filepath.Join(logsDir, "influx-backup.lp.gz"))
		if err := m.Connect(); err != nil {
			logger.Warn("InfluxDB disabled", "error", err)
		} else {
			recorder = m
			defer m.Close()
		}
	}

	srv, err := server.New(server.Options{
		Backend:     backend,
		Config:      config.GetServerConfig(),
		Logger:      logger,
		Recorder:    recorder,
		ServiceName: otelCfg.ServiceName,
	})
	if err != nil {
		return err
	}

	mon := monitor.NewService(monitor.Dependencies{
		LogManager:  slogManager,
		Source:      srv,
		StatusPath:  filepath.Join(logsDir, ServiceName+"-status.json"),
		StorageType: storageCfg.Type,
	})
	if err := mon.Start(); err != nil {
		logger.Warn("Status monitor disabled", "error", err)
	}
	defer mon.Stop()

	err = srv.ListenAndServe(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("Stopped", "uptime", time.Since(sessionStart).Round(time.Second))
	return err
}

func shutdownOTel(p *intOtel.Provider, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		logger.Warn("Failed to shut down OTel provider", "error", err)
	}
}
