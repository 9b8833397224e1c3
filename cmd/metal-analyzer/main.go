// Command metal-analyzer is the stdio language server entry point,
// plus a standalone "format" subcommand. CLI shape (flag package,
// subcommand dispatch, run/exit-code split) follows
// odvcencio-mane/main.go; the format subcommand and its
// clang-format-with-xcrun-fallback behavior are grounded on
// original_source/.../main.rs's run_format/run_clang_format_with_fallback,
// which the distilled spec.md doesn't mention but which
// config.FormattingSettings exists to serve.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/metal-analyzer/metal-analyzer/internal/cache"
	"github.com/metal-analyzer/metal-analyzer/internal/config"
	"github.com/metal-analyzer/metal-analyzer/internal/definition"
	"github.com/metal-analyzer/metal-analyzer/internal/document"
	"github.com/metal-analyzer/metal-analyzer/internal/lspwire"
	"github.com/metal-analyzer/metal-analyzer/internal/mcpbridge"
	"github.com/metal-analyzer/metal-analyzer/internal/navigation"
	"github.com/metal-analyzer/metal-analyzer/internal/orchestrator"
	"github.com/metal-analyzer/metal-analyzer/internal/progressws"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	logFile := flag.String("log-file", "", "log file path (default $HOME/.metal-analyzer/metal-analyzer.log)")
	configPath := flag.String("config", "", "path to a metal-analyzer.yaml settings file")
	webAddr := flag.String("web", "", "address to serve the debug/progress WebSocket bridge on (e.g. :8787)")
	mcpStdio := flag.Bool("mcp", false, "run as an MCP stdio server instead of an LSP server")
	flag.Parse()

	args := flag.Args()
	if len(args) > 0 && args[0] == "format" {
		os.Exit(runFormat(args[1:]))
	}

	if err := run(*verbose, *logFile, *configPath, *webAddr, *mcpStdio); err != nil {
		fmt.Fprintf(os.Stderr, "metal-analyzer: %v\n", err)
		os.Exit(1)
	}
}

func run(verbose bool, logFile, configPath, webAddr string, asMCP bool) error {
	settings := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		settings = loaded
	}
	settings.Normalize()
	if verbose {
		settings.Logging.Level = config.LogLevelDebug
	}

	orch := orchestrator.New(cache.DefaultDir(), orchestrator.CompilerConfig{
		LanguageStd: "metal3.0",
		Timeout:     30 * time.Second,
	})
	orch.IncludeDirs = settings.Compiler.IncludePaths
	orch.GraphDepth = settings.Indexing.ProjectGraphDepth
	orch.GraphMaxNodes = settings.Indexing.ProjectGraphMaxNodes

	if webAddr != "" {
		bridge := progressws.New(orch, nil)
		srv := &http.Server{Addr: webAddr, Handler: bridge}
		go func() {
			_ = srv.ListenAndServe()
		}()
	}

	if asMCP {
		mcpServer := mcpbridge.New(orch, "metal-analyzer", "0.1.0")
		return server.ServeStdio(mcpServer)
	}

	s := &lspServer{
		orch:     orch,
		settings: settings,
		reader:   lspwire.NewReader(os.Stdin),
		writer:   lspwire.NewWriter(os.Stdout),
	}
	return s.serve()
}

// lspServer dispatches Content-Length-framed JSON-RPC requests read
// from stdin against the orchestrator, writing responses to stdout.
type lspServer struct {
	orch     *orchestrator.Orchestrator
	settings config.Settings
	reader   *lspwire.Reader
	writer   *lspwire.Writer
	shutdown bool
}

func (s *lspServer) serve() error {
	for {
		req, err := s.reader.Read()
		if err != nil {
			return nil
		}
		if req.Method == "exit" {
			return nil
		}
		s.dispatch(req)
	}
}

func (s *lspServer) dispatch(req lspwire.Request) {
	switch req.Method {
	case "initialize":
		s.reply(req, map[string]any{
			"capabilities": map[string]any{
				"textDocumentSync":       1, // full-text sync
				"definitionProvider":     true,
				"declarationProvider":    true,
				"typeDefinitionProvider": true,
				"implementationProvider": true,
				"referencesProvider":     true,
				"hoverProvider":          true,
				"renameProvider":         map[string]any{"prepareProvider": true},
			},
		})
	case "initialized", "$/setTraceNotification":
		// no-op notifications
	case "shutdown":
		s.shutdown = true
		s.reply(req, nil)
	case "textDocument/didOpen":
		s.handleDidOpen(req)
	case "textDocument/didChange":
		s.handleDidChange(req)
	case "textDocument/didClose":
		s.handleDidClose(req)
	case "textDocument/definition":
		s.handlePosition(req, s.orch.Resolver().Provide)
	case "textDocument/declaration":
		s.handlePosition(req, s.orch.Resolver().GotoDeclaration)
	case "textDocument/typeDefinition":
		s.handlePosition(req, s.orch.Resolver().GotoTypeDefinition)
	case "textDocument/implementation":
		s.handlePosition(req, s.orch.Resolver().GotoImplementation)
	case "textDocument/references":
		s.handlePosition(req, func(r definition.Request) navigation.Target {
			return s.orch.Resolver().FindReferences(r, true)
		})
	case "textDocument/hover":
		s.handleHover(req)
	default:
		if !req.IsNotification() {
			s.writer.WriteError(req.ID, -32601, "method not found: "+req.Method)
		}
	}
}

func (s *lspServer) reply(req lspwire.Request, result any) {
	if req.IsNotification() {
		return
	}
	_ = s.writer.WriteResult(req.ID, result)
}

type textDocumentPositionParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position lspwire.Position `json:"position"`
}

func (s *lspServer) handleDidOpen(req lspwire.Request) {
	var p struct {
		TextDocument struct {
			URI     string `json:"uri"`
			Version int    `json:"version"`
			Text    string `json:"text"`
		} `json:"textDocument"`
	}
	if json.Unmarshal(req.Params, &p) != nil {
		return
	}
	s.orch.Documents.Open(p.TextDocument.URI, p.TextDocument.Text, p.TextDocument.Version)
}

func (s *lspServer) handleDidChange(req lspwire.Request) {
	var p struct {
		TextDocument struct {
			URI     string `json:"uri"`
			Version int    `json:"version"`
		} `json:"textDocument"`
		ContentChanges []struct {
			Text string `json:"text"`
		} `json:"contentChanges"`
	}
	if json.Unmarshal(req.Params, &p) != nil || len(p.ContentChanges) == 0 {
		return
	}
	last := p.ContentChanges[len(p.ContentChanges)-1]
	s.orch.Documents.Replace(p.TextDocument.URI, last.Text, p.TextDocument.Version)
	s.orch.Invalidate(uriToPath(p.TextDocument.URI))
}

func (s *lspServer) handleDidClose(req lspwire.Request) {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
	}
	if json.Unmarshal(req.Params, &p) != nil {
		return
	}
	s.orch.Documents.Close(p.TextDocument.URI)
}

func (s *lspServer) handlePosition(req lspwire.Request, resolve func(definition.Request) navigation.Target) {
	var p textDocumentPositionParams
	if json.Unmarshal(req.Params, &p) != nil {
		s.writer.WriteError(req.ID, -32602, "invalid params")
		return
	}
	path := uriToPath(p.TextDocument.URI)
	doc, ok := s.orch.OpenDocument(p.TextDocument.URI)
	if !ok {
		s.reply(req, nil)
		return
	}
	target := resolve(buildRequest(path, doc, s.orch.IncludePaths(path), p.Position))
	s.reply(req, lspwire.FromNavTarget(target, pathToURI))
}

func (s *lspServer) handleHover(req lspwire.Request) {
	var p textDocumentPositionParams
	if json.Unmarshal(req.Params, &p) != nil {
		s.writer.WriteError(req.ID, -32602, "invalid params")
		return
	}
	path := uriToPath(p.TextDocument.URI)
	doc, ok := s.orch.OpenDocument(p.TextDocument.URI)
	if !ok {
		s.reply(req, nil)
		return
	}
	target := s.orch.Resolver().Provide(buildRequest(path, doc, s.orch.IncludePaths(path), p.Position))
	if len(target) == 0 {
		s.reply(req, nil)
		return
	}
	s.reply(req, map[string]any{
		"contents": map[string]string{"kind": "markdown", "value": "see definition at " + target[0].File},
	})
}

func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func pathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}

func runFormat(args []string) int {
	fs := flag.NewFlagSet("format", flag.ExitOnError)
	check := fs.Bool("check", false, "check formatting without modifying files")
	command := fs.String("command", "clang-format", "formatting command")
	_ = fs.Parse(args)
	files := fs.Args()

	if len(files) == 0 {
		input, err := readAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		out, err := runClangFormatWithFallback(*command, []string{"-assume-filename=shader.metal"}, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		if *check {
			if out != input {
				return 1
			}
			return 0
		}
		fmt.Print(out)
		return 0
	}

	hasDiff, hasError := false, false
	for _, path := range files {
		input, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", path, err)
			hasError = true
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		out, err := runClangFormatWithFallback(*command, []string{"-assume-filename=" + abs}, string(input))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", path, err)
			hasError = true
			continue
		}
		if out == string(input) {
			continue
		}
		if *check {
			fmt.Println(path)
			hasDiff = true
			continue
		}
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", path, err)
			hasError = true
		}
	}
	switch {
	case hasError:
		return 1
	case hasDiff:
		return 1
	default:
		return 0
	}
}

// runClangFormatWithFallback mirrors main.rs's fallback to
// `xcrun clang-format`: whenever running a bare "clang-format" fails,
// for any reason (the command not being on PATH is the common case on
// a fresh macOS toolchain install), it retries through xcrun.
func runClangFormatWithFallback(command string, args []string, input string) (string, error) {
	out, err := runCommand(command, args, input)
	if err != nil && command == "clang-format" {
		xcrunArgs := append([]string{"clang-format"}, args...)
		return runCommand("xcrun", xcrunArgs, input)
	}
	return out, err
}

func runCommand(command string, args []string, input string) (string, error) {
	cmd := exec.CommandContext(context.Background(), command, args...)
	cmd.Stdin = strings.NewReader(input)
	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", command, err, out.String())
	}
	return out.String(), nil
}

func readAll(f *os.File) (string, error) {
	sc := bufio.NewReader(f)
	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := sc.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return b.String(), nil
}

func buildRequest(path string, doc *document.Document, includePaths []string, pos lspwire.Position) definition.Request {
	return definition.Request{
		FileKey:      path,
		Doc:          doc,
		IncludePaths: includePaths,
		Position:     document.Position{Line: pos.Line, Character: pos.Character},
	}
}
