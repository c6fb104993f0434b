// Package monitor keeps a status file of a running camplan server up to date.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/sitesurvey/camplan/internal/logging"
	"github.com/sitesurvey/camplan/internal/server"
)

// DefaultInterval is used when Dependencies.Interval is zero.
const DefaultInterval = 10 * time.Second

// Source provides the counters to report. *server.Server satisfies it.
type Source interface {
	Stats() server.Stats
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager  *logging.SlogManager
	Source      Source
	StatusPath  string
	StorageType string
	Interval    time.Duration
}

// Status is the document written to StatusPath.
type Status struct {
	Time       time.Time `json:"time"`
	Started    time.Time `json:"started"`
	Uptime     string    `json:"uptime"`
	Storage    string    `json:"storage"`
	Goroutines int       `json:"goroutines"`
	server.Stats
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	started   time.Time
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps:    deps,
		started: time.Now(),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot collects the current status.
func (s *Service) Snapshot() Status {
	now := time.Now()
	st := Status{
		Time:       now,
		Started:    s.started,
		Uptime:     now.Sub(s.started).Round(time.Second).String(),
		Storage:    s.deps.StorageType,
		Goroutines: runtime.NumGoroutine(),
	}
	if s.deps.Source != nil {
		st.Stats = s.deps.Source.Stats()
	}
	return st
}

// WriteStatus replaces the status file with the current snapshot.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	tmp := s.deps.StatusPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusPath)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.deps.StatusPath == "" {
		s.mu.Unlock()
		return fmt.Errorf("monitor: no status path")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor", "path", s.deps.StatusPath, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			if err := s.WriteStatus(); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the last write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
