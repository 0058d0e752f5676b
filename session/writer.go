package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hazyhaar/scribe/docpipe"
)

var errQueueClosed = errors.New("session: save queue closed")

// SaveResult reports one completed save.
type SaveResult struct {
	Path     string
	Format   docpipe.Format
	Seq      uint64 // position of the saved content in the update sequence
	Bytes    int
	Duration time.Duration
	Err      error
}

type saveJob struct {
	ctx     context.Context
	path    string
	format  docpipe.Format
	content string
	seq     uint64
}

// saveQueue is a single-writer coalescing queue. It holds at most one
// pending job: a newer update replaces the pending one, and the job being
// written always completes before the next starts.
type saveQueue struct {
	pipe   *docpipe.Pipeline
	logger *slog.Logger
	done   func(SaveResult)

	mu      sync.Mutex
	pending *saveJob
	seq     uint64
	idle    chan struct{} // closed while nothing is pending or in flight
	idleNow bool
	closed  bool
	last    SaveResult

	wake   chan struct{}
	stop   chan struct{}
	exited chan struct{}
}

func newSaveQueue(pipe *docpipe.Pipeline, logger *slog.Logger, done func(SaveResult)) *saveQueue {
	q := &saveQueue{
		pipe:    pipe,
		logger:  logger,
		done:    done,
		idle:    make(chan struct{}),
		idleNow: true,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	close(q.idle)
	go q.loop()
	return q
}

// enqueue stores job as the pending save and returns its sequence number.
// It never blocks on I/O.
func (q *saveQueue) enqueue(job saveJob) (uint64, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, errQueueClosed
	}
	q.seq++
	job.seq = q.seq
	if q.pending != nil {
		q.logger.DebugContext(job.ctx, "pending save replaced", "path", job.path, "seq", job.seq)
	}
	q.pending = &job
	if q.idleNow {
		q.idle = make(chan struct{})
		q.idleNow = false
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return job.seq, nil
}

func (q *saveQueue) loop() {
	defer close(q.exited)
	for {
		select {
		case <-q.wake:
		case <-q.stop:
			return
		}
		for {
			q.mu.Lock()
			job := q.pending
			q.pending = nil
			if job == nil {
				if !q.idleNow {
					close(q.idle)
					q.idleNow = true
				}
				q.mu.Unlock()
				break
			}
			q.mu.Unlock()

			res := q.save(job)

			q.mu.Lock()
			q.last = res
			q.mu.Unlock()
			if q.done != nil {
				q.done(res)
			}
		}
	}
}

func (q *saveQueue) save(job *saveJob) SaveResult {
	start := time.Now()
	res := SaveResult{Path: job.path, Format: job.format, Seq: job.seq}

	data, err := q.pipe.Encode(job.ctx, job.format, job.content)
	if err == nil {
		err = writeFileAtomic(job.path, data)
		if err != nil {
			err = &WriteError{Path: job.path, Cause: err}
		}
	}
	res.Bytes = len(data)
	res.Duration = time.Since(start)
	res.Err = err

	if err != nil {
		q.logger.ErrorContext(job.ctx, "save failed",
			"path", job.path, "format", job.format, "seq", job.seq, "error", err)
	} else {
		q.logger.DebugContext(job.ctx, "saved",
			"path", job.path, "format", job.format, "seq", job.seq,
			"bytes", len(data), "duration_ms", res.Duration.Milliseconds())
	}
	return res
}

// flush waits until nothing is pending or in flight and returns the last
// completed save.
func (q *saveQueue) flush(ctx context.Context) (SaveResult, error) {
	q.mu.Lock()
	ch := q.idle
	q.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		return SaveResult{}, ctx.Err()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last, nil
}

// forget drops the last result so a flush for the next document does not
// report the previous one's error. Callers drain first.
func (q *saveQueue) forget() {
	q.mu.Lock()
	q.last = SaveResult{}
	q.mu.Unlock()
}

// close stops the worker. Pending work must be flushed first.
func (q *saveQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.stop)
	<-q.exited
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory, so a reader sees either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod tmp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
