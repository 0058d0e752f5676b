package recent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/scribe/connectivity"
	"github.com/hazyhaar/scribe/kit"
)

// Intent names served by the store.
const (
	IntentList  = "recent_list"
	IntentClear = "recent_clear"
)

// Intents is the allow-list of recent-document intents.
var Intents = []string{IntentList, IntentClear}

type listRequest struct {
	Limit int `json:"limit"`
}

func (s *Store) listEndpoint(ctx context.Context, req any) (any, error) {
	var limit int
	if r, ok := req.(*listRequest); ok && r != nil {
		limit = r.Limit
	}
	entries, err := s.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"entries": entries}, nil
}

func (s *Store) clearEndpoint(ctx context.Context, _ any) (any, error) {
	if err := s.Clear(ctx); err != nil {
		return nil, err
	}
	return map[string]any{}, nil
}

// RegisterConnectivity registers the store on a connectivity Router.
//
//	recent_list  {limit} → {entries}
//	recent_clear         → {}
func (s *Store) RegisterConnectivity(router *connectivity.Router) {
	router.RegisterLocal(IntentList, func(ctx context.Context, payload []byte) ([]byte, error) {
		var req listRequest
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("decode: %w", err)
			}
		}
		resp, err := s.listEndpoint(ctx, &req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
	router.RegisterLocal(IntentClear, func(ctx context.Context, _ []byte) ([]byte, error) {
		resp, err := s.clearEndpoint(ctx, nil)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
}

// RegisterMCP registers the store as MCP tools.
func (s *Store) RegisterMCP(srv *mcp.Server) {
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        IntentList,
		Description: "List recently opened documents, newest first.",
		InputSchema: kit.InputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Maximum entries (default: configured limit)"},
		}, nil),
	}, s.listEndpoint, kit.DecodeJSON[listRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        IntentClear,
		Description: "Forget all recently opened documents.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}, s.clearEndpoint, kit.DecodeJSON[struct{}]())
}
