package connectivity

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/scribe/kit"
)

// maxIntentBody caps request payloads accepted over HTTP (128 MiB), enough
// for a full document body encoded as JSON.
const maxIntentBody int64 = 128 << 20

// Routes mounts the router on mux:
//
//	GET  /intents              list registered intents
//	POST /intents/{service}    call an intent with the request body as payload
func (r *Router) Routes(mux chi.Router) {
	mux.Get("/intents", r.handleList)
	mux.Post("/intents/{service}", r.handleCall)
}

func (r *Router) handleList(w http.ResponseWriter, _ *http.Request) {
	var out []ServiceInfo
	for info := range r.ListServices() {
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{"intents": out})
}

func (r *Router) handleCall(w http.ResponseWriter, req *http.Request) {
	service := chi.URLParam(req, "service")
	payload, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxIntentBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}

	ctx := kit.WithTransport(req.Context(), "http")
	if id := middleware.GetReqID(ctx); id != "" {
		ctx = kit.WithRequestID(ctx, id)
	}

	resp, err := r.Call(ctx, service, payload)
	if err != nil {
		writeJSON(w, callStatus(err), map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(resp) == 0 {
		resp = []byte("{}")
	}
	_, _ = w.Write(resp)
}

func callStatus(err error) int {
	var notAllowed *ErrNotAllowed
	var notFound *ErrServiceNotFound
	var panicked *ErrPanic
	switch {
	case errors.As(err, &notAllowed):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &panicked):
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
