package docpipe

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/scribe/kit"
)

// RegisterMCP registers docpipe tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerDetectTool(srv)
	p.registerFormatsTool(srv)
	p.registerMarkdownTool(srv)
}

// --- detect ---

func (p *Pipeline) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        IntentDetect,
		Description: "Classify a file path as plain text (txt) or Word container (docx).",
		InputSchema: kit.InputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "File path to classify"},
		}, []string{"path"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*pathReq)
		return map[string]any{"format": string(p.Detect(r.Path))}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, kit.DecodeJSON[pathReq]())
}

// --- formats ---

func (p *Pipeline) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docpipe_formats",
		Description: "List all supported document formats.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"formats": SupportedFormats()}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- markdown ---

func (p *Pipeline) registerMarkdownTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        IntentMarkdown,
		Description: "Load a txt or docx document and render its content as Markdown.",
		InputSchema: kit.InputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "File path to render"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pathReq)
		md, err := p.markdownFile(ctx, r.Path)
		if err != nil {
			return nil, err
		}
		return map[string]any{"path": r.Path, "markdown": md}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, kit.DecodeJSON[pathReq]())
}
