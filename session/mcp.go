package session

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/scribe/kit"
)

// RegisterMCP registers the session intents as MCP tools. Tool errors are
// prefixed with their kind, e.g. "NoActiveDocumentError: ...".
func (s *Session) RegisterMCP(srv *mcp.Server) {
	for _, in := range s.intents() {
		tool := &mcp.Tool{
			Name:        in.name,
			Description: in.description,
			InputSchema: kit.InputSchema(orEmpty(in.properties), in.required),
		}
		decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args, err := decodeArgs(in, req.Params.Arguments)
			if err != nil {
				return nil, err
			}
			return &kit.MCPDecodeResult{Request: args}, nil
		}
		kit.RegisterMCPTool(srv, tool, withKind(in.endpoint), decode)
	}
}

func withKind(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		resp, err := next(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrorKind(err), err)
		}
		return resp, nil
	}
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
