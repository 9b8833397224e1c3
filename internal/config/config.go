// Package config is the declarative settings system (spec.md ยง6):
// one struct tree with defaults and clamping normalization, loaded
// from YAML and mergeable with an LSP `workspace/didChangeConfiguration`
// payload. Grounded on original_source/crates/metal-analyzer/src/config.rs,
// translated from serde patch-structs to Go's zero-value-means-absent
// YAML unmarshaling idiom.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	minDiagnosticDebounceMS = 50
	maxDiagnosticDebounceMS = 5000
	minIndexingConcurrency  = 1
	maxIndexingConcurrency  = 32
	minWorkerThreads        = 1
	maxWorkerThreads        = 64
	minFormattingThreads    = 1
	maxFormattingThreads    = 8
	minMaxFileSizeKB        = 16
	maxMaxFileSizeKB        = 1024 * 64
	minProjectGraphDepth    = 0
	maxProjectGraphDepth    = 8
	minProjectGraphMaxNodes = 16
	maxProjectGraphMaxNodes = 4096
)

// DiagnosticsScope selects which files get proactive diagnostics.
type DiagnosticsScope string

const (
	DiagnosticsScopeOpenFiles DiagnosticsScope = "openFiles"
	DiagnosticsScopeWorkspace DiagnosticsScope = "workspace"
)

// LogLevel orders logging verbosity, least to most chatty.
type LogLevel string

const (
	LogLevelError LogLevel = "error"
	LogLevelWarn  LogLevel = "warn"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
	LogLevelTrace LogLevel = "trace"
)

var logLevelRank = map[LogLevel]int{
	LogLevelError: 0,
	LogLevelWarn:  1,
	LogLevelInfo:  2,
	LogLevelDebug: 3,
	LogLevelTrace: 4,
}

// AllowsInfo reports whether l is at least as verbose as info level.
func (l LogLevel) AllowsInfo() bool {
	rank, ok := logLevelRank[l]
	if !ok {
		rank = logLevelRank[LogLevelInfo]
	}
	return rank >= logLevelRank[LogLevelInfo]
}

// Settings is the full configuration tree, one section per concern.
type Settings struct {
	Formatting FormattingSettings `yaml:"formatting" json:"formatting"`
	Diagnostics DiagnosticsSettings `yaml:"diagnostics" json:"diagnostics"`
	Indexing   IndexingSettings   `yaml:"indexing" json:"indexing"`
	Compiler   CompilerSettings   `yaml:"compiler" json:"compiler"`
	Logging    LoggingSettings    `yaml:"logging" json:"logging"`
	ThreadPool ThreadPoolSettings `yaml:"threadPool" json:"threadPool"`
}

// FormattingSettings configures the external clang-format invocation.
type FormattingSettings struct {
	Enable  bool     `yaml:"enable" json:"enable"`
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args" json:"args"`
}

// DiagnosticsSettings configures when and how broadly diagnostics run.
type DiagnosticsSettings struct {
	OnType     bool              `yaml:"onType" json:"onType"`
	OnSave     bool              `yaml:"onSave" json:"onSave"`
	DebounceMS int               `yaml:"debounceMs" json:"debounceMs"`
	Scope      DiagnosticsScope  `yaml:"scope" json:"scope"`
}

// IndexingSettings configures project-wide indexing breadth and cost
// bounds.
type IndexingSettings struct {
	Enable                bool     `yaml:"enable" json:"enable"`
	Concurrency           int      `yaml:"concurrency" json:"concurrency"`
	MaxFileSizeKB         int      `yaml:"maxFileSizeKb" json:"maxFileSizeKb"`
	ProjectGraphDepth     int      `yaml:"projectGraphDepth" json:"projectGraphDepth"`
	ProjectGraphMaxNodes  int      `yaml:"projectGraphMaxNodes" json:"projectGraphMaxNodes"`
	ExcludePaths          []string `yaml:"excludePaths" json:"excludePaths"`
}

// MaxFileSizeBytes converts the configured KB ceiling to bytes.
func (s IndexingSettings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeKB) * 1024
}

// CompilerSettings configures the xcrun metal frontend invocation.
type CompilerSettings struct {
	IncludePaths []string `yaml:"includePaths" json:"includePaths"`
	ExtraFlags   []string `yaml:"extraFlags" json:"extraFlags"`
	Platform     string   `yaml:"platform" json:"platform"`
}

// LoggingSettings configures server log verbosity.
type LoggingSettings struct {
	Level LogLevel `yaml:"level" json:"level"`
}

// ThreadPoolSettings configures background worker sizing; zero means
// "resolve from the runtime" at use time.
type ThreadPoolSettings struct {
	WorkerThreads     int `yaml:"workerThreads" json:"workerThreads"`
	FormattingThreads int `yaml:"formattingThreads" json:"formattingThreads"`
}

// ResolvedWorkerThreads returns the configured worker count, or
// runtime.NumCPU() when unset.
func (t ThreadPoolSettings) ResolvedWorkerThreads(numCPU int) int {
	if t.WorkerThreads == 0 {
		if numCPU < minWorkerThreads {
			return minWorkerThreads
		}
		return numCPU
	}
	return t.WorkerThreads
}

// ResolvedFormattingThreads returns the configured formatting thread
// count, defaulting to 1 when unset.
func (t ThreadPoolSettings) ResolvedFormattingThreads() int {
	if t.FormattingThreads == 0 {
		return minFormattingThreads
	}
	return t.FormattingThreads
}

// Default returns the settings tree's zero-configuration defaults.
func Default() Settings {
	return Settings{
		Formatting: FormattingSettings{
			Enable:  true,
			Command: "clang-format",
		},
		Diagnostics: DiagnosticsSettings{
			OnType:     true,
			OnSave:     true,
			DebounceMS: 500,
			Scope:      DiagnosticsScopeOpenFiles,
		},
		Indexing: IndexingSettings{
			Enable:               true,
			Concurrency:          1,
			MaxFileSizeKB:        512,
			ProjectGraphDepth:    3,
			ProjectGraphMaxNodes: 256,
		},
		Logging: LoggingSettings{
			Level: LogLevelInfo,
		},
		ThreadPool: ThreadPoolSettings{
			FormattingThreads: 1,
		},
	}
}

// Load reads and parses a YAML settings file, merging it over Default()
// and normalizing the result. A missing file returns the defaults
// unchanged.
func Load(path string) (Settings, error) {
	settings := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, errors.Wrap(err, "config: reading settings file")
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, errors.Wrap(err, "config: parsing settings YAML")
	}
	settings.Normalize()
	return settings, nil
}

// Normalize clamps every bounded field and trims/dedupes string lists,
// mirroring config.rs's per-section normalize() methods.
func (s *Settings) Normalize() {
	s.Formatting.normalize()
	s.Diagnostics.normalize()
	s.Indexing.normalize()
	s.Compiler.normalize()
	s.ThreadPool.normalize()
}

func (f *FormattingSettings) normalize() {
	f.Command = trimOrDefault(f.Command, "clang-format")
	f.Args = trimNonEmpty(f.Args)
}

func (d *DiagnosticsSettings) normalize() {
	d.DebounceMS = clamp(d.DebounceMS, minDiagnosticDebounceMS, maxDiagnosticDebounceMS)
	if d.Scope == "" {
		d.Scope = DiagnosticsScopeOpenFiles
	}
}

func (i *IndexingSettings) normalize() {
	i.Concurrency = clamp(i.Concurrency, minIndexingConcurrency, maxIndexingConcurrency)
	i.MaxFileSizeKB = clamp(i.MaxFileSizeKB, minMaxFileSizeKB, maxMaxFileSizeKB)
	i.ProjectGraphDepth = clamp(i.ProjectGraphDepth, minProjectGraphDepth, maxProjectGraphDepth)
	i.ProjectGraphMaxNodes = clamp(i.ProjectGraphMaxNodes, minProjectGraphMaxNodes, maxProjectGraphMaxNodes)
	i.ExcludePaths = dedupeNonEmpty(trimNonEmpty(i.ExcludePaths))
}

func (c *CompilerSettings) normalize() {
	c.IncludePaths = trimNonEmpty(c.IncludePaths)
	c.ExtraFlags = trimNonEmpty(c.ExtraFlags)
}

func (t *ThreadPoolSettings) normalize() {
	if t.WorkerThreads != 0 {
		t.WorkerThreads = clamp(t.WorkerThreads, minWorkerThreads, maxWorkerThreads)
	}
	if t.FormattingThreads == 0 {
		t.FormattingThreads = minFormattingThreads
	}
	t.FormattingThreads = clamp(t.FormattingThreads, minFormattingThreads, maxFormattingThreads)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func trimOrDefault(s, def string) string {
	s = trimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func trimNonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		s = trimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupeNonEmpty(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
