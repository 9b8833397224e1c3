// Package logging is a small level-gated wrapper over the standard
// library logger, writing to $HOME/.metal-analyzer/metal-analyzer.log
// (spec.md ยง6's logging.level key). The teacher reaches for stdlib
// `log.Printf` directly wherever it logs at all
// (odvcencio-mane/web/server.go); this package generalizes that to a
// level-gated, file-backed logger without introducing a structured
// logging library no repo in the pack actually imports.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/metal-analyzer/metal-analyzer/internal/config"
)

// Logger gates stdlib *log.Logger output by a minimum level.
type Logger struct {
	level config.LogLevel
	std   *log.Logger
}

var levelRank = map[config.LogLevel]int{
	config.LogLevelError: 0,
	config.LogLevelWarn:  1,
	config.LogLevelInfo:  2,
	config.LogLevelDebug: 3,
	config.LogLevelTrace: 4,
}

// DefaultPath returns $HOME/.metal-analyzer/metal-analyzer.log, falling
// back to a temp file when HOME is unset.
func DefaultPath() string {
	if home, ok := os.LookupEnv("HOME"); ok && home != "" {
		return filepath.Join(home, ".metal-analyzer", "metal-analyzer.log")
	}
	return filepath.Join(os.TempDir(), "metal-analyzer.log")
}

// Open creates (or appends to) the log file at path and returns a
// Logger gated at level, plus a close function the caller should defer.
func Open(path string, level config.LogLevel) (*Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "logging: creating log directory")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "logging: opening log file")
	}
	return New(f, level), f.Close, nil
}

// New wraps an arbitrary writer (tests pass a bytes.Buffer).
func New(w io.Writer, level config.LogLevel) *Logger {
	return &Logger{level: level, std: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
}

func (l *Logger) enabled(level config.LogLevel) bool {
	rank, ok := levelRank[level]
	if !ok {
		rank = levelRank[config.LogLevelInfo]
	}
	min, ok := levelRank[l.level]
	if !ok {
		min = levelRank[config.LogLevelInfo]
	}
	return rank <= min
}

func (l *Logger) Errorf(format string, args ...any) {
	if l.enabled(config.LogLevelError) {
		l.std.Printf("[error] "+format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...any) {
	if l.enabled(config.LogLevelWarn) {
		l.std.Printf("[warn] "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	if l.enabled(config.LogLevelInfo) {
		l.std.Printf("[info] "+format, args...)
	}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.enabled(config.LogLevelDebug) {
		l.std.Printf("[debug] "+format, args...)
	}
}

func (l *Logger) Tracef(format string, args ...any) {
	if l.enabled(config.LogLevelTrace) {
		l.std.Printf("[trace] "+format, args...)
	}
}
