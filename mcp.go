package posview

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/posview/kit"
)

// RegisterMCP registers the posview tools on an MCP server.
func (e Endpoints) RegisterMCP(srv *mcp.Server) {
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "posview_get_mode",
		Description: "Return the current POS item view mode (grid or list) and whether the toggle is active on the POS screen.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, e.GetMode, kit.DecodeArgs[emptyRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "posview_set_mode",
		Description: "Store the POS item view mode and apply it to the open POS screen.",
		InputSchema: inputSchema(map[string]any{
			"mode": map[string]any{"type": "string", "description": "View mode: grid or list"},
		}, []string{"mode"}),
	}, e.SetMode, kit.DecodeArgs[modeRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "posview_toggle_mode",
		Description: "Flip the POS item view between grid and list.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, e.Toggle, kit.DecodeArgs[emptyRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "posview_status",
		Description: "Session state: screen, activation, last pass counts, stale patches and preference tiers.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, e.Status, kit.DecodeArgs[emptyRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "posview_inspect",
		Description: "Classify the POS page without changing it: items container, rows, thumbnails and scored container candidates.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, e.Inspect, kit.DecodeArgs[emptyRequest])
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
