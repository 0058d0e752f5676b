package session

import (
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hazyhaar/scribe/kit"
)

// Intent names accepted from the embedding host.
const (
	IntentCreate = "document_create"
	IntentOpen   = "document_open"
	IntentUpdate = "document_update"
	IntentState  = "document_state"
	IntentFlush  = "document_flush"
	IntentClose  = "document_close"
)

// Intents is the allow-list of session intents.
var Intents = []string{IntentCreate, IntentOpen, IntentUpdate, IntentState, IntentFlush, IntentClose}

type createRequest struct {
	Path string `json:"path"`
}

type openRequest struct {
	Path string `json:"path"`
}

// Validate bounds the path length only. An empty path reaches Open, which
// reports it as a ReadError on every transport.
func (r *openRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Length(0, 4096)),
	)
}

type updateRequest struct {
	Content string `json:"content"`
}

// intent binds a name to its endpoint and argument shape. The same table
// feeds every transport.
type intent struct {
	name        string
	description string
	properties  map[string]any
	required    []string
	newReq      func() any // nil when the intent takes no arguments
	endpoint    kit.Endpoint
}

func (s *Session) intents() []intent {
	mw := kit.Chain(s.tagSession, s.logCall)
	return []intent{
		{
			name:        IntentCreate,
			description: "Create or truncate a file and make it the active document. An empty path is a no-op.",
			properties:  map[string]any{"path": map[string]any{"type": "string", "description": "Target file path"}},
			newReq:      func() any { return &createRequest{} },
			endpoint: mw(func(ctx context.Context, req any) (any, error) {
				path, err := s.Create(ctx, req.(*createRequest).Path)
				if err != nil {
					return nil, err
				}
				return map[string]any{"path": path}, nil
			}),
		},
		{
			name:        IntentOpen,
			description: "Open a txt or docx file and return its renderable content.",
			properties:  map[string]any{"path": map[string]any{"type": "string", "description": "File path to open"}},
			newReq:      func() any { return &openRequest{} },
			endpoint: mw(func(ctx context.Context, req any) (any, error) {
				return s.Open(ctx, req.(*openRequest).Path)
			}),
		},
		{
			name:        IntentUpdate,
			description: "Replace the active document content. The save runs in the background.",
			properties:  map[string]any{"content": map[string]any{"type": "string", "description": "Full document text or markup"}},
			required:    []string{"content"},
			newReq:      func() any { return &updateRequest{} },
			endpoint: mw(func(ctx context.Context, req any) (any, error) {
				if err := s.UpdateContent(ctx, req.(*updateRequest).Content); err != nil {
					return nil, err
				}
				return map[string]any{}, nil
			}),
		},
		{
			name:        IntentState,
			description: "Report the active document, its format and save status.",
			endpoint: mw(func(_ context.Context, _ any) (any, error) {
				return s.State(), nil
			}),
		},
		{
			name:        IntentFlush,
			description: "Wait for pending saves and report the last save error.",
			endpoint: mw(func(ctx context.Context, _ any) (any, error) {
				if err := s.Flush(ctx); err != nil {
					return nil, err
				}
				return s.State(), nil
			}),
		},
		{
			name:        IntentClose,
			description: "Write pending saves and close the active document.",
			endpoint: mw(func(ctx context.Context, _ any) (any, error) {
				if err := s.Close(ctx); err != nil {
					return nil, err
				}
				return map[string]any{}, nil
			}),
		},
	}
}

// decodeArgs unmarshals raw JSON arguments for in. Empty input is allowed
// and leaves the zero request.
func decodeArgs(in intent, raw []byte) (any, error) {
	if in.newReq == nil {
		return nil, nil
	}
	req := in.newReq()
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	if v, ok := req.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return req, nil
}

func (s *Session) tagSession(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		return next(kit.WithSessionID(ctx, s.id), req)
	}
}

func (s *Session) logCall(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		resp, err := next(ctx, req)
		if err != nil {
			s.logger.DebugContext(ctx, "intent failed",
				"transport", kit.GetTransport(ctx),
				"request_id", kit.GetRequestID(ctx),
				"kind", ErrorKind(err),
				"error", err)
		}
		return resp, err
	}
}
