package docpipe

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrEncoding = errors.New("docpipe: invalid text encoding")
	ErrDecode   = errors.New("docpipe: decode failed")
	ErrEncode   = errors.New("docpipe: encode failed")
)

// EncodingError is returned when text content is not valid UTF-8.
type EncodingError struct {
	Offset int // byte offset of the first invalid sequence
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("docpipe: invalid UTF-8 at byte %d", e.Offset)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// DecodeError is returned when persisted bytes are not a well-formed
// container of the expected format.
type DecodeError struct {
	Format Format
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("docpipe: decode %s: %v", e.Format, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// EncodeError is returned when sanitized content cannot be serialized.
type EncodeError struct {
	Format Format
	Cause  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("docpipe: encode %s: %v", e.Format, e.Cause)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }
