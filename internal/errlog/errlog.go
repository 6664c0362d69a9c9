// Package errlog writes diagnostic records for failed tool invocations.
// Each failure gets its own timestamped file so users can attach it to a
// support request, and a persistent debug log captures structured traces.
package errlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logDirName is the error-log location relative to the user's home directory.
const logDirName = "ssb-project-cli/.error_logs"

// debugLogName is the rolling debug log file inside the error-log directory.
const debugLogName = "ssb-project-debug.log"

// Dir returns the error-log directory for the given home path.
func Dir(home string) string {
	return filepath.Join(home, logDirName)
}

// Write stores a diagnostic record in a new timestamped file named after
// the operation that failed (e.g. "poetry-install-error-1693216458.txt").
// It returns the path of the written file.
func Write(home, operation, content string) (string, error) {
	dir := Dir(home)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating error log directory: %w", err)
	}
	name := fmt.Sprintf("%s-error-%d.txt", operation, time.Now().Unix())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing error log: %w", err)
	}
	return path, nil
}

// NewLogger builds a zap logger backed by the debug log file. Verbose
// lowers the level to Debug so every subprocess invocation is traced.
// Falls back to a no-op logger if the log directory cannot be created,
// since logging must never block the lifecycle commands themselves.
func NewLogger(home string, verbose bool) *zap.Logger {
	dir := Dir(home)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(dir, debugLogName)}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
