// Package compiler drives the `xcrun metal` frontend to obtain a JSON
// AST dump for one source file, the ground truth the indexer walks
// (spec.md ยง4.3). It owns the temp-directory lifecycle and include
// path plumbing; it never interprets the AST itself.
package compiler

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrTimeout is returned when the compiler invocation exceeds the
// configured timeout.
var ErrTimeout = errors.New("compiler: invocation timed out")

// Options configures a single compile-to-AST invocation.
type Options struct {
	// SDK selects the xcrun SDK (e.g. "macosx"); empty uses the xcrun
	// default.
	SDK string
	// IncludeDirs are extra -I search paths, e.g. the project root and
	// every ancestor directory of the source file (spec.md ยง4.3).
	IncludeDirs []string
	// LanguageStd is passed as -std=, e.g. "metal3.1"; empty omits it.
	LanguageStd string
	Timeout     time.Duration
}

// Result is the raw output of one invocation.
type Result struct {
	// ASTJSON is the captured stdout of -ast-dump=json. It may be
	// non-empty even when the process exits non-zero: metal tolerates
	// diagnostics and still emits a dump for a syntactically complete
	// unit (spec.md ยง6).
	ASTJSON  []byte
	Stderr   []byte
	ExitCode int
}

// Run invokes the compiler frontend against sourcePath and captures its
// AST JSON dump. A non-zero exit code is not itself an error: callers
// inspect Result.ExitCode and fall back to a best-effort parse of
// whatever ASTJSON was produced.
func Run(ctx context.Context, sourcePath string, opts Options) (*Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"metal"}
	if opts.SDK != "" {
		args = append([]string{"-sdk", opts.SDK}, args...)
	}
	args = append(args,
		"-Xclang", "-ast-dump=json",
		"-fsyntax-only",
		"-fno-color-diagnostics",
	)
	if opts.LanguageStd != "" {
		args = append(args, "-std="+opts.LanguageStd)
	}
	for _, dir := range opts.IncludeDirs {
		args = append(args, "-I", dir)
	}
	args = append(args, sourcePath)

	cmd := exec.CommandContext(runCtx, "xcrun", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, ErrTimeout
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, errors.Wrap(runErr, "compiler: failed to start xcrun metal")
		}
	}

	return &Result{
		ASTJSON:  stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}, nil
}

// Workspace manages a private temp directory used when a source buffer
// must be materialized on disk before compilation (e.g. unsaved editor
// content). Each call gets a fresh uuid-named subdirectory so
// concurrent builds for different URIs never collide (spec.md ยง4.3,
// ยง9 "per-file build mutex" operates above this at the orchestrator).
type Workspace struct {
	root string
}

// NewWorkspace creates the workspace root directory if it does not
// already exist.
func NewWorkspace(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "compiler: creating workspace root")
	}
	return &Workspace{root: root}, nil
}

// MaterializeBuffer writes text to a fresh temp file that preserves
// origName's extension (the compiler dispatches on file suffix), and
// returns its path plus a cleanup function.
func (w *Workspace) MaterializeBuffer(origName string, text []byte) (path string, cleanup func(), err error) {
	dir := filepath.Join(w.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, errors.Wrap(err, "compiler: creating scratch dir")
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	ext := filepath.Ext(origName)
	if ext == "" {
		ext = ".metal"
	}
	path = filepath.Join(dir, "source"+ext)
	if err := os.WriteFile(path, text, 0o644); err != nil {
		cleanup()
		return "", nil, errors.Wrap(err, "compiler: writing scratch source")
	}
	return path, cleanup, nil
}

// AncestorIncludeDirs returns sourcePath's directory plus every
// ancestor up to (and including) root, in nearest-first order, for use
// as -I search paths (spec.md ยง4.3's "ancestor-directory include
// paths").
func AncestorIncludeDirs(sourcePath, root string) []string {
	dir := filepath.Dir(sourcePath)
	root = filepath.Clean(root)
	var dirs []string
	for {
		dirs = append(dirs, dir)
		if dir == root || dir == "/" || dir == "." {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dirs
}
