package session

import (
	"context"
	"encoding/json"

	"github.com/hazyhaar/scribe/connectivity"
)

// RegisterConnectivity registers the session intents on a connectivity
// Router. Payloads and responses are JSON.
//
//	document_create {path}    → {path}
//	document_open   {path}    → {path, format, title, content}
//	document_update {content} → {}
//	document_state            → Snapshot
//	document_flush            → Snapshot
//	document_close            → {}
func (s *Session) RegisterConnectivity(router *connectivity.Router) {
	for _, in := range s.intents() {
		router.RegisterLocal(in.name, connectivity.Recovery(s.logger)(s.handler(in)))
	}
}

func (s *Session) handler(in intent) connectivity.Handler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		req, err := decodeArgs(in, payload)
		if err != nil {
			return nil, err
		}
		resp, err := in.endpoint(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	}
}
