// Package editor wires the conversion pipeline, the recent-documents store
// and document sessions into one application.
//
//	ed, err := editor.New(cfg, logger)
//	defer ed.Close(ctx)
//	ed.Session().Open(ctx, "notes.docx")
//
// The primary session answers the document_* intents on the editor's
// router; NewSession mints independent sessions for additional windows.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/scribe/connectivity"
	"github.com/hazyhaar/scribe/docpipe"
	"github.com/hazyhaar/scribe/pathguard"
	"github.com/hazyhaar/scribe/recent"
	"github.com/hazyhaar/scribe/session"
)

// Editor is the composition root.
type Editor struct {
	cfg    Config
	logger *slog.Logger
	pipe   *docpipe.Pipeline
	recent *recent.Store
	router *connectivity.Router
	main   *session.Session
	guard  *pathguard.Guard

	mu       sync.Mutex
	sessions map[string]*session.Session
	closed   bool
}

// Intents returns the allow-list of every intent the editor serves.
func Intents() []string {
	return slices.Concat(session.Intents, recent.Intents, docpipe.Intents)
}

// New validates cfg, opens the recent-documents store and creates the
// primary session.
func New(cfg Config, logger *slog.Logger) (*Editor, error) {
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("editor: config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var guard *pathguard.Guard
	if cfg.Root != "" {
		g, err := pathguard.New(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("editor: %w", err)
		}
		guard = g
	}

	store, err := recent.Open(cfg.RecentDB, recent.Config{Limit: cfg.RecentLimit, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("editor: recent: %w", err)
	}

	pipeCfg := docpipe.Config{
		MaxFileSize: cfg.MaxFileSize,
		Docx:        cfg.Docx,
		Logger:      logger,
	}
	if guard != nil {
		pipeCfg.Resolve = guard.Resolve
	}

	e := &Editor{
		cfg:      cfg,
		logger:   logger,
		pipe:     docpipe.New(pipeCfg),
		recent:   store,
		guard:    guard,
		sessions: make(map[string]*session.Session),
	}
	e.router = connectivity.New(
		connectivity.WithLogger(logger),
		connectivity.WithAllowList(Intents()...),
		connectivity.WithMiddleware(
			connectivity.Logging(logger),
			connectivity.Timeout(cfg.CallTimeout),
		),
	)

	e.main = e.NewSession()
	e.main.RegisterConnectivity(e.router)
	e.pipe.RegisterConnectivity(e.router)
	e.recent.RegisterConnectivity(e.router)

	logger.Info("editor ready", "recent_db", cfg.RecentDB, "session", e.main.ID())
	return e, nil
}

// NewSession creates a session bound to the editor's pipeline and recent
// store. Close closes it.
func (e *Editor) NewSession() *session.Session {
	opts := session.Options{
		Logger:  e.logger,
		Recents: e.recent,
	}
	if e.guard != nil {
		opts.Resolve = e.guard.Resolve
	}
	s := session.New(e.pipe, opts)
	e.mu.Lock()
	e.sessions[s.ID()] = s
	e.mu.Unlock()
	return s
}

// Lookup returns the session with the given ID.
func (e *Editor) Lookup(id string) (*session.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	return s, ok
}

// Session returns the primary session.
func (e *Editor) Session() *session.Session { return e.main }

// Pipeline returns the shared conversion pipeline.
func (e *Editor) Pipeline() *docpipe.Pipeline { return e.pipe }

// Recent returns the recent-documents store.
func (e *Editor) Recent() *recent.Store { return e.recent }

// Router returns the intent router.
func (e *Editor) Router() *connectivity.Router { return e.router }

// Config returns the defaulted configuration.
func (e *Editor) Config() Config { return e.cfg }

// RegisterMCP exposes the primary session, the pipeline and the recent
// store as MCP tools.
func (e *Editor) RegisterMCP(srv *mcp.Server) {
	e.main.RegisterMCP(srv)
	e.pipe.RegisterMCP(srv)
	e.recent.RegisterMCP(srv)
}

// Routes mounts the document REST routes of the primary session and the
// generic intent routes.
func (e *Editor) Routes(r chi.Router) {
	e.main.Routes(r)
	e.router.Routes(r)
}

// Close closes every session, writing pending saves, then the recent store.
// Save errors are joined into the result.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	sessions := make([]*session.Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID(), err))
		}
	}
	if err := e.recent.Close(); err != nil {
		errs = append(errs, fmt.Errorf("recent: %w", err))
	}
	return errors.Join(errs...)
}
