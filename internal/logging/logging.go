// Package logging sets up the slog loggers used by camplan binaries and
// adapts zerolog for the dispatcher.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fileTimeLayout = "20060102_150405"

var serviceNameReplacer = strings.NewReplacer("/", "_", `\`, "_", " ", "_")

// LogFilePath names the log file of one run of service, for example
// logs/camplan-server.20260212_213836.log. Separators in service are
// replaced so the file always lands directly in logsDir.
func LogFilePath(logsDir, service string, started time.Time) string {
	name := serviceNameReplacer.Replace(service)
	if name == "" {
		name = "camplan"
	}
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", name, started.Format(fileTimeLayout)))
}

// OpenLogFile creates logsDir if needed and opens the run's log file for
// appending. It returns the file and its path.
func OpenLogFile(logsDir, service string, started time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create logs dir: %w", err)
	}
	path := LogFilePath(logsDir, service, started)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open log file: %w", err)
	}
	return f, path, nil
}
