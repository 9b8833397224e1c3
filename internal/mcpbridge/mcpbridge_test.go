package mcpbridge

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestGotoDefinitionToolIsNamed(t *testing.T) {
	tool := gotoDefinitionTool()
	if tool.Name != "metal_goto_definition" {
		t.Fatalf("Name = %q, want metal_goto_definition", tool.Name)
	}
}

func TestFindReferencesToolIsNamed(t *testing.T) {
	tool := findReferencesTool()
	if tool.Name != "metal_find_references" {
		t.Fatalf("Name = %q, want metal_find_references", tool.Name)
	}
}

func TestParsePositionArgsRoundTrips(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"path": "shaders/a.metal", "line": 4, "character": 9})
	if err != nil {
		t.Fatalf("marshaling fixture args: %v", err)
	}
	req := mcp.CallToolRequest{}
	if err := json.Unmarshal(raw, &req.Params.Arguments); err != nil {
		t.Fatalf("unmarshaling into request arguments: %v", err)
	}

	args, err := parsePositionArgs(req)
	if err != nil {
		t.Fatalf("parsePositionArgs() error = %v", err)
	}
	if args.Path != "shaders/a.metal" || args.Line != 4 || args.Character != 9 {
		t.Fatalf("parsePositionArgs() = %+v, want path=shaders/a.metal line=4 character=9", args)
	}
}

func TestParsePositionArgsRequiresPath(t *testing.T) {
	req := mcp.CallToolRequest{}
	if err := json.Unmarshal([]byte(`{"line":1,"character":2}`), &req.Params.Arguments); err != nil {
		t.Fatalf("unmarshaling fixture args: %v", err)
	}
	if _, err := parsePositionArgs(req); err == nil {
		t.Fatalf("parsePositionArgs() error = nil, want an error when path is missing")
	}
}
