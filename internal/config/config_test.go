package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultIsAlreadyNormalized(t *testing.T) {
	s := Default()
	before := s
	s.Normalize()
	if !reflect.DeepEqual(s, before) {
		t.Fatalf("Default() settings changed under Normalize(): got %+v, want %+v", s, before)
	}
}

func TestNormalizeClampsOutOfRangeValues(t *testing.T) {
	s := Default()
	s.Diagnostics.DebounceMS = 1
	s.Indexing.Concurrency = 1000
	s.ThreadPool.WorkerThreads = -5
	s.Indexing.ProjectGraphDepth = 99

	s.Normalize()

	if s.Diagnostics.DebounceMS != minDiagnosticDebounceMS {
		t.Fatalf("DebounceMS = %d, want clamped to %d", s.Diagnostics.DebounceMS, minDiagnosticDebounceMS)
	}
	if s.Indexing.Concurrency != maxIndexingConcurrency {
		t.Fatalf("Concurrency = %d, want clamped to %d", s.Indexing.Concurrency, maxIndexingConcurrency)
	}
	if s.ThreadPool.WorkerThreads != minWorkerThreads {
		t.Fatalf("WorkerThreads = %d, want clamped to %d", s.ThreadPool.WorkerThreads, minWorkerThreads)
	}
	if s.Indexing.ProjectGraphDepth != maxProjectGraphDepth {
		t.Fatalf("ProjectGraphDepth = %d, want clamped to %d", s.Indexing.ProjectGraphDepth, maxProjectGraphDepth)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing file", err)
	}
	if !reflect.DeepEqual(got, Default()) {
		t.Fatalf("Load() on missing file = %+v, want Default()", got)
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metal-analyzer.yaml")
	const yaml = "logging:\n  level: debug\nindexing:\n  concurrency: 4\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Logging.Level != LogLevelDebug {
		t.Fatalf("Logging.Level = %q, want %q", got.Logging.Level, LogLevelDebug)
	}
	if got.Indexing.Concurrency != 4 {
		t.Fatalf("Indexing.Concurrency = %d, want 4", got.Indexing.Concurrency)
	}
	if got.Formatting.Command != Default().Formatting.Command {
		t.Fatalf("unrelated field Formatting.Command changed: got %q", got.Formatting.Command)
	}
}

func TestResolvedWorkerThreadsFallsBackToNumCPU(t *testing.T) {
	s := Default()
	s.ThreadPool.WorkerThreads = 0
	if got := s.ThreadPool.ResolvedWorkerThreads(8); got != 8 {
		t.Fatalf("ResolvedWorkerThreads(8) = %d, want 8 when unset", got)
	}
	s.ThreadPool.WorkerThreads = 3
	if got := s.ThreadPool.ResolvedWorkerThreads(8); got != 3 {
		t.Fatalf("ResolvedWorkerThreads(8) = %d, want the explicit 3", got)
	}
}

func TestLogLevelAllowsInfo(t *testing.T) {
	cases := map[LogLevel]bool{
		LogLevelError: false,
		LogLevelWarn:  false,
		LogLevelInfo:  true,
		LogLevelDebug: true,
		LogLevelTrace: true,
	}
	for level, want := range cases {
		if got := level.AllowsInfo(); got != want {
			t.Errorf("LogLevel(%q).AllowsInfo() = %v, want %v", level, got, want)
		}
	}
}

func TestSchemaReflectsSettings(t *testing.T) {
	schema := Schema()
	if schema == nil {
		t.Fatalf("Schema() returned nil")
	}
	if schema.Properties == nil || schema.Properties.Len() == 0 {
		// ExpandedStruct puts fields directly on the root schema.
		t.Fatalf("Schema() produced no properties")
	}
}
