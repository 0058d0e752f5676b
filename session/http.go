package session

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/scribe/kit"
)

// maxRequestBody bounds JSON request bodies (128 MiB).
const maxRequestBody int64 = 128 << 20

// Routes mounts the session on r:
//
//	POST   /document/create   {path}    → 201 {path} (200 {path:""} when cancelled)
//	POST   /document/open     {path}    → 200 Opened
//	PUT    /document/content  {content} → 202 {}
//	POST   /document/flush              → 200 Snapshot
//	GET    /document                    → 200 Snapshot
//	DELETE /document                    → 200 {}
//
// Failures are JSON {"error": kind, "message": text}.
func (s *Session) Routes(r chi.Router) {
	byName := make(map[string]intent)
	for _, in := range s.intents() {
		byName[in.name] = in
	}

	r.Post("/document/create", s.serve(byName[IntentCreate], func(resp any) int {
		if m, ok := resp.(map[string]any); ok && m["path"] == "" {
			return http.StatusOK
		}
		return http.StatusCreated
	}))
	r.Post("/document/open", s.serve(byName[IntentOpen], nil))
	r.Put("/document/content", s.serve(byName[IntentUpdate], func(any) int { return http.StatusAccepted }))
	r.Post("/document/flush", s.serve(byName[IntentFlush], nil))
	r.Get("/document", s.serve(byName[IntentState], nil))
	r.Delete("/document", s.serve(byName[IntentClose], nil))
}

func (s *Session) serve(in intent, status func(resp any) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = kit.WithRequestID(ctx, id)
		}

		var body []byte
		if in.newReq != nil {
			var err error
			body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
			if err != nil {
				writeError(w, errors.Join(ErrInvalidRequest, err))
				return
			}
		}
		req, err := decodeArgs(in, body)
		if err != nil {
			writeError(w, err)
			return
		}
		resp, err := in.endpoint(ctx, req)
		if err != nil {
			writeError(w, err)
			return
		}

		code := http.StatusOK
		if status != nil {
			code = status(resp)
		}
		writeJSON(w, code, resp)
	}
}

// HTTPStatus maps a session error to its HTTP status code.
func HTTPStatus(err error) int {
	kind := ErrorKind(err)
	if (kind == KindRead || kind == KindWrite) && errors.Is(err, fs.ErrPermission) {
		return http.StatusForbidden
	}
	switch kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindRead:
		if errors.Is(err, fs.ErrNotExist) {
			return http.StatusNotFound
		}
		return http.StatusUnprocessableEntity
	case KindNoActiveDocument:
		return http.StatusConflict
	case KindDecode, KindEncode, KindEncoding:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, HTTPStatus(err), map[string]string{
		"error":   string(ErrorKind(err)),
		"message": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
