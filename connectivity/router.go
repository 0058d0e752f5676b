// Package connectivity dispatches named intents to in-process handlers.
//
// An embedding host talks to the editor through intents: small JSON
// requests such as "document_open" whose handlers are registered by the
// packages that own them.
//
//	router := connectivity.New(connectivity.WithAllowList(session.Intents...))
//	sess.RegisterConnectivity(router)
//
//	resp, err := router.Call(ctx, "document_open", []byte(`{"path":"a.docx"}`))
//
// When an allow-list is set, any intent outside it is rejected before its
// handler runs, even if one is registered.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
)

// Handler is a transport-agnostic service function: bytes in, bytes out.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// Router dispatches intent calls to registered handlers.
// Thread-safe: calls use RLock, registration uses full Lock.
type Router struct {
	mu            sync.RWMutex
	localHandlers map[string]Handler
	allowed       map[string]bool // nil means every registered intent is callable
	middleware    []HandlerMiddleware
	logger        *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets a custom logger for the router.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithAllowList restricts Call to the named intents.
func WithAllowList(intents ...string) Option {
	return func(r *Router) {
		r.allowed = make(map[string]bool, len(intents))
		for _, name := range intents {
			r.allowed[name] = true
		}
	}
}

// WithMiddleware wraps every handler at call time. The first middleware is
// the outermost.
func WithMiddleware(mws ...HandlerMiddleware) Option {
	return func(r *Router) { r.middleware = append(r.middleware, mws...) }
}

// New creates a Router with no handlers.
func New(opts ...Option) *Router {
	r := &Router{
		localHandlers: make(map[string]Handler),
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RegisterLocal registers an in-memory handler for an intent, replacing any
// previous one.
func (r *Router) RegisterLocal(service string, h Handler) {
	r.mu.Lock()
	r.localHandlers[service] = h
	r.mu.Unlock()
}

// Unregister removes the handler for an intent.
func (r *Router) Unregister(service string) {
	r.mu.Lock()
	delete(r.localHandlers, service)
	r.mu.Unlock()
}

// Allowed reports whether the allow-list admits service.
func (r *Router) Allowed(service string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allowedLocked(service)
}

func (r *Router) allowedLocked(service string) bool {
	return r.allowed == nil || r.allowed[service]
}

// Call dispatches an intent. The resolution order is:
//  1. Allow-list: intents outside it fail with ErrNotAllowed.
//  2. Local handler: wrapped in the router middleware.
//  3. Error: ErrServiceNotFound.
func (r *Router) Call(ctx context.Context, service string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	allowed := r.allowedLocked(service)
	h := r.localHandlers[service]
	mws := r.middleware
	r.mu.RUnlock()

	if !allowed {
		r.logger.WarnContext(ctx, "intent rejected", "service", service)
		return nil, &ErrNotAllowed{Service: service}
	}
	if h == nil {
		return nil, &ErrServiceNotFound{Service: service}
	}

	r.logger.DebugContext(ctx, "routing local", "service", service)
	if len(mws) > 0 {
		h = Chain(mws...)(h)
	}
	return h(ctx, payload)
}
