package session

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/scribe/docpipe"
)

// Sentinels matched by errors.Is.
var (
	ErrNoActiveDocument = errors.New("session: no active document")
	ErrRead             = errors.New("session: read failed")
	ErrWrite            = errors.New("session: write failed")
	ErrInvalidRequest   = errors.New("session: invalid request")
)

// ReadError is returned when the file to open is missing or unreadable.
type ReadError struct {
	Path  string
	Cause error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("session: read %s: %v", e.Path, e.Cause)
}

func (e *ReadError) Unwrap() error { return e.Cause }

func (e *ReadError) Is(target error) bool { return target == ErrRead }

// WriteError is returned when persisting to disk fails.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("session: write %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// Kind names a failure class as reported across the transport boundary.
type Kind string

const (
	KindRead             Kind = "ReadError"
	KindWrite            Kind = "WriteError"
	KindDecode           Kind = "DecodeError"
	KindEncode           Kind = "EncodeError"
	KindEncoding         Kind = "EncodingError"
	KindNoActiveDocument Kind = "NoActiveDocumentError"
	KindInvalidRequest   Kind = "InvalidRequestError"
	KindInternal         Kind = "InternalError"
)

// ErrorKind classifies err. It returns "" for nil.
//
// EncodeError is checked before EncodingError because an encode failure may
// wrap an encoding failure.
func ErrorKind(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrNoActiveDocument):
		return KindNoActiveDocument
	case errors.Is(err, ErrRead):
		return KindRead
	case errors.Is(err, ErrWrite):
		return KindWrite
	case errors.Is(err, docpipe.ErrEncode):
		return KindEncode
	case errors.Is(err, docpipe.ErrDecode):
		return KindDecode
	case errors.Is(err, docpipe.ErrEncoding):
		return KindEncoding
	}
	return KindInternal
}
