package docpipe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/scribe/connectivity"
)

// Intent names served by the pipeline.
const (
	IntentDetect   = "docpipe_detect"
	IntentMarkdown = "docpipe_markdown"
)

// Intents is the allow-list of pipeline intents.
var Intents = []string{IntentDetect, IntentMarkdown}

// RegisterConnectivity registers docpipe service handlers on a connectivity Router.
//
// Registered services:
//
//	docpipe_detect     classify a path
//	docpipe_markdown   load a document and render it as Markdown
func (p *Pipeline) RegisterConnectivity(router *connectivity.Router) {
	router.RegisterLocal(IntentDetect, p.handleDetect)
	router.RegisterLocal(IntentMarkdown, p.handleMarkdown)
}

type pathReq struct {
	Path string `json:"path"`
}

func decodePathReq(payload []byte) (pathReq, error) {
	var req pathReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, fmt.Errorf("decode: %w", err)
	}
	if req.Path == "" {
		return req, fmt.Errorf("decode: path is required")
	}
	return req, nil
}

func (p *Pipeline) handleDetect(_ context.Context, payload []byte) ([]byte, error) {
	req, err := decodePathReq(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"format": string(p.Detect(req.Path))})
}

func (p *Pipeline) handleMarkdown(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := decodePathReq(payload)
	if err != nil {
		return nil, err
	}
	md, err := p.markdownFile(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"path": req.Path, "markdown": md})
}

func (p *Pipeline) markdownFile(ctx context.Context, path string) (string, error) {
	doc, err := p.Load(ctx, path)
	if err != nil {
		return "", err
	}
	return p.ToMarkdown(doc)
}
