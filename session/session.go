// Package session tracks the single active document of an editing window.
//
// A Session is Empty until Create or Open makes a file Active. Content
// updates are handed to a per-session save queue that converts and writes
// in the background, keeping only the latest pending content, so callers
// never wait on container serialization.
//
//	sess := session.New(pipe, session.Options{Recents: store})
//	opened, err := sess.Open(ctx, "/home/me/report.docx")
//	err = sess.UpdateContent(ctx, "<p>edited</p>")
//	err = sess.Flush(ctx) // wait for the save and get its error
//
// Every failed call leaves the session in the state it was in before.
package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hazyhaar/scribe/docpipe"
	"github.com/hazyhaar/scribe/idgen"
)

// State is the lifecycle position of a Session.
type State int

const (
	Empty State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "empty"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Recents records successfully opened paths, most recent first.
type Recents interface {
	Add(ctx context.Context, path string) error
}

// Options configures a Session.
type Options struct {
	// Logger for session events (default: slog.Default()).
	Logger *slog.Logger

	// Recents is notified after each successful Open. Failures are logged.
	Recents Recents

	// OnSave is called from the save goroutine after every save attempt.
	// It must not call back into the session.
	OnSave func(SaveResult)

	// NewID generates the session identifier (default: "ses_" + UUIDv7).
	NewID idgen.Generator

	// Resolve maps a caller-supplied path to the absolute path used on
	// disk (default: filepath.Abs). A pathguard.Guard confines it to a root.
	Resolve func(path string) (string, error)
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.NewID == nil {
		o.NewID = idgen.Prefixed("ses_", idgen.Default)
	}
	if o.Resolve == nil {
		o.Resolve = filepath.Abs
	}
}

// Opened is the renderable result of a successful Open.
type Opened struct {
	Path    string         `json:"path"`
	Format  docpipe.Format `json:"format"`
	Title   string         `json:"title,omitempty"`
	Content string         `json:"content"`
}

// Snapshot is a point-in-time view of a Session.
type Snapshot struct {
	ID            string         `json:"id"`
	State         State          `json:"state"`
	Path          string         `json:"path,omitempty"`
	Format        docpipe.Format `json:"format,omitempty"`
	Dirty         bool           `json:"dirty"`
	LastSaved     time.Time      `json:"last_saved,omitzero"`
	LastError     string         `json:"last_error,omitempty"`
	LastErrorKind Kind           `json:"last_error_kind,omitempty"`
}

// Session is the active-document record of one editing window. Sessions
// share no mutable state; run one per window.
type Session struct {
	id     string
	pipe   *docpipe.Pipeline
	opts   Options
	logger *slog.Logger

	// opMu serializes Create, Open, Close and UpdateContent, so an update
	// is queued for the document that was active when it was accepted.
	opMu sync.Mutex

	mu        sync.Mutex
	state     State
	path      string
	format    docpipe.Format
	queue     *saveQueue
	enqSeq    uint64
	savedSeq  uint64
	lastSaved time.Time
	lastErr   error
}

// New creates an Empty session converting through pipe.
func New(pipe *docpipe.Pipeline, opts Options) *Session {
	opts.defaults()
	id := opts.NewID()
	return &Session{
		id:     id,
		pipe:   pipe,
		opts:   opts,
		logger: opts.Logger.With("session", id),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Create truncates or creates the file at path and makes it active. An
// empty path means the caller cancelled the file choice: nothing happens
// and ("", nil) is returned. Pending saves of the previous document are
// written before the switch.
func (s *Session) Create(ctx context.Context, path string) (string, error) {
	if path == "" {
		s.logger.DebugContext(ctx, "create cancelled")
		return "", nil
	}
	abs, err := s.opts.Resolve(path)
	if err != nil {
		return "", &WriteError{Path: path, Cause: err}
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.drain(ctx); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, nil, 0o644); err != nil {
		s.logger.WarnContext(ctx, "create failed", "path", abs, "error", err)
		return "", &WriteError{Path: abs, Cause: err}
	}

	format := docpipe.Classify(abs)
	s.activate(abs, format)
	s.logger.InfoContext(ctx, "document created", "path", abs, "format", format)
	return abs, nil
}

// Open reads and decodes the file at path and makes it active. On failure
// the session keeps its previous document. A zero-length file opens as an
// empty document of its classified format.
func (s *Session) Open(ctx context.Context, path string) (*Opened, error) {
	if path == "" {
		return nil, &ReadError{Path: path, Cause: errors.New("empty path")}
	}
	abs, err := s.opts.Resolve(path)
	if err != nil {
		return nil, &ReadError{Path: path, Cause: err}
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	// Reopening the active path must read what the queue still holds.
	if err := s.drain(ctx); err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, abs)
	if err != nil {
		s.logger.WarnContext(ctx, "open failed", "path", abs, "error", err)
		return nil, err
	}

	s.activate(abs, doc.Format)
	s.logger.InfoContext(ctx, "document opened", "path", abs, "format", doc.Format, "bytes", len(doc.Content))

	if s.opts.Recents != nil {
		if err := s.opts.Recents.Add(ctx, abs); err != nil {
			s.logger.WarnContext(ctx, "recent list update failed", "path", abs, "error", err)
		}
	}
	return &Opened{Path: abs, Format: doc.Format, Title: doc.Title, Content: doc.Content}, nil
}

func (s *Session) load(ctx context.Context, path string) (*docpipe.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ReadError{Path: path, Cause: err}
	}
	if info.IsDir() {
		return nil, &ReadError{Path: path, Cause: errors.New("is a directory")}
	}
	doc, err := s.pipe.Load(ctx, path)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, docpipe.ErrDecode), errors.Is(err, docpipe.ErrEncoding),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, &ReadError{Path: path, Cause: err}
	}
}

// UpdateContent schedules content to replace the active file and returns
// without waiting for the write. A document switch in progress delays it;
// a save in progress does not. It fails with ErrNoActiveDocument while
// Empty. Conversion and write failures are reported through Options.OnSave,
// Flush and State.
func (s *Session) UpdateContent(ctx context.Context, content string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		s.logger.WarnContext(ctx, "update rejected: no active document")
		return ErrNoActiveDocument
	}
	seq, err := s.queue.enqueue(saveJob{
		ctx:     context.WithoutCancel(ctx),
		path:    s.path,
		format:  s.format,
		content: content,
	})
	if err != nil {
		return err
	}
	s.enqSeq = seq
	return nil
}

// Flush waits for pending saves and returns the error of the last one, if
// it failed.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return nil
	}
	res, err := q.flush(ctx)
	if err != nil {
		return err
	}
	return res.Err
}

// Close writes pending saves, stops the save queue and returns the session
// to Empty. If ctx ends before pending saves are written the session stays
// Active and ctx's error is returned. A failed final save is returned after
// teardown.
func (s *Session) Close(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return nil
	}
	res, err := q.flush(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	path := s.path
	s.state = Empty
	s.path = ""
	s.format = ""
	s.queue = nil
	s.mu.Unlock()

	q.close()

	s.logger.InfoContext(ctx, "document closed", "path", path)
	return res.Err
}

// State returns a snapshot of the session.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		Path:      s.path,
		Format:    s.format,
		Dirty:     s.state == Active && s.savedSeq < s.enqSeq,
		LastSaved: s.lastSaved,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
		snap.LastErrorKind = ErrorKind(s.lastErr)
	}
	return snap
}

// drain waits for pending saves of the current document. Save failures were
// already reported; only ctx errors stop the caller.
func (s *Session) drain(ctx context.Context) error {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return nil
	}
	_, err := q.flush(ctx)
	return err
}

// activate switches path and format together.
func (s *Session) activate(path string, format docpipe.Format) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		s.queue = newSaveQueue(s.pipe, s.logger, s.saved)
		s.enqSeq = 0
	} else {
		s.queue.forget()
	}
	s.state = Active
	s.path = path
	s.format = format
	s.savedSeq = s.enqSeq
	s.lastSaved = time.Time{}
	s.lastErr = nil
}

func (s *Session) saved(res SaveResult) {
	s.mu.Lock()
	if res.Path == s.path {
		if res.Err != nil {
			s.lastErr = res.Err
		} else {
			s.lastErr = nil
			s.lastSaved = time.Now()
			s.savedSeq = max(s.savedSeq, res.Seq)
		}
	}
	s.mu.Unlock()

	if s.opts.OnSave != nil {
		s.opts.OnSave(res)
	}
}
