// Package mcpbridge exposes navigation as MCP tools, so an
// agent (not just an LSP client) can ask "what does this symbol point
// to?" against an open project. Generalized from
// odvcencio-mane/mcptools/tools.go's ToolDef/Registry shape (name,
// description, JSON input schema, handler) onto the real
// github.com/mark3labs/mcp-go server instead of the teacher's
// hand-rolled registry, since that library is a genuine teacher
// dependency with no other direct call site in the pack.
package mcpbridge

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/metal-analyzer/metal-analyzer/internal/definition"
	"github.com/metal-analyzer/metal-analyzer/internal/document"
	"github.com/metal-analyzer/metal-analyzer/internal/hover"
)

// Workspace is the subset of orchestrator behavior the bridge needs,
// kept as an interface so this package doesn't import internal/orchestrator
// directly (avoids a dependency cycle: orchestrator wires the resolver
// this bridge calls into).
type Workspace interface {
	OpenDocument(uri string) (*document.Document, bool)
	IncludePaths(uri string) []string
	Resolver() *definition.Resolver
}

// New builds an MCP server exposing the metal_goto_definition and
// metal_find_references tools backed by ws.
func New(ws Workspace, name, version string) *server.MCPServer {
	s := server.NewMCPServer(name, version)

	s.AddTool(gotoDefinitionTool(), gotoDefinitionHandler(ws))
	s.AddTool(findReferencesTool(), findReferencesHandler(ws))

	return s
}

func positionParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("path", mcp.Required(), mcp.Description("File path to query, relative to the project root.")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("Zero-based line number.")),
		mcp.WithNumber("character", mcp.Required(), mcp.Description("Zero-based UTF-16 character offset.")),
	}
}

func gotoDefinitionTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Resolve the symbol at a position to its definition location."),
	}, positionParams()...)
	return mcp.NewTool("metal_goto_definition", opts...)
}

type positionArgs struct {
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
}

func parsePositionArgs(req mcp.CallToolRequest) (positionArgs, error) {
	var args positionArgs
	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return args, errors.Wrap(err, "mcpbridge: re-marshaling tool arguments")
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, errors.Wrap(err, "mcpbridge: parsing tool arguments")
	}
	if args.Path == "" {
		return args, errors.New("mcpbridge: path is required")
	}
	return args, nil
}

func gotoDefinitionHandler(ws Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := parsePositionArgs(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doc, ok := ws.OpenDocument(args.Path)
		if !ok {
			return mcp.NewToolResultError("mcpbridge: document not open: " + args.Path), nil
		}
		target := ws.Resolver().Provide(definition.Request{
			FileKey:      args.Path,
			Doc:          doc,
			IncludePaths: ws.IncludePaths(args.Path),
			Position:     document.Position{Line: args.Line, Character: args.Character},
		})
		if len(target) == 0 {
			return mcp.NewToolResultText("no definition found"), nil
		}
		data, err := json.Marshal(target)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func findReferencesTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("List every reference site to the symbol at a position."),
	}, positionParams()...)
	return mcp.NewTool("metal_find_references", opts...)
}

func findReferencesHandler(ws Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := parsePositionArgs(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doc, ok := ws.OpenDocument(args.Path)
		if !ok {
			return mcp.NewToolResultError("mcpbridge: document not open: " + args.Path), nil
		}
		target := ws.Resolver().FindReferences(definition.Request{
			FileKey:      args.Path,
			Doc:          doc,
			IncludePaths: ws.IncludePaths(args.Path),
			Position:     document.Position{Line: args.Line, Character: args.Character},
		}, false)
		data, err := json.Marshal(target)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// renderHoverSummary is a thin seam kept separate from the handler
// closures above so the hover package stays wired even before a
// dedicated metal_hover tool lands.
func renderHoverSummary(h hover.Hover) string {
	return h.Markdown
}
