// Package docpipe converts documents between their persisted bytes and the
// in-memory form an editor works on.
//
// Supported formats:
//   - .docx: Word container (archive/zip → word/document.xml ↔ sanitized markup)
//   - .txt: Plain UTF-8 text (identity in both directions)
//
// Any other extension is treated as plain text so that arbitrary file names
// stay editable.
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	doc, err := pipe.Decode(ctx, docpipe.Classify(path), data)
//	out, err := pipe.Encode(ctx, doc.Format, doc.Content)
//
// Container decoding is lossy: page geometry and complex styles are dropped.
// What holds is recoverability: anything Decode returns can be encoded, and
// anything Encode returns decodes again.
package docpipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/hazyhaar/scribe/sanitize"
)

// Pipeline is the conversion engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	md     *converter.Converter
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
		md:     newMarkdownConverter(),
	}
}

// Classify returns the format for path based on its extension. It never
// fails: unknown or missing extensions are plain text.
func Classify(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return FormatRich
	default:
		return FormatText
	}
}

// Detect is the method form of Classify.
func (p *Pipeline) Detect(path string) Format {
	return Classify(path)
}

// Policy returns the sanitization policy applied to rich content.
func (p *Pipeline) Policy() *sanitize.Policy {
	return p.cfg.Policy
}

// MaxFileSize returns the largest input Decode accepts.
func (p *Pipeline) MaxFileSize() int64 {
	return p.cfg.MaxFileSize
}

// Load reads and decodes the file at path. A zero-length file is an empty
// document of its classified format, which is what a freshly created file
// holds. Errors that are not conversion errors (ErrDecode, ErrEncoding)
// come from the filesystem.
func (p *Pipeline) Load(ctx context.Context, path string) (*Document, error) {
	path, err := p.cfg.Resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}
	format := Classify(path)
	if info.Size() == 0 {
		p.logger.DebugContext(ctx, "empty document", "path", path, "format", format)
		return &Document{Format: format}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "loading document", "path", path, "format", format)
	return p.Decode(ctx, format, data)
}

// Decode turns persisted bytes into renderable content.
func (p *Pipeline) Decode(ctx context.Context, format Format, data []byte) (*Document, error) {
	res, err := p.Convert(ctx, Request{Direction: Decode, Format: format, Data: data})
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

// Encode turns editable content into persisted bytes. Rich content is
// sanitized first; there is no path that skips it.
func (p *Pipeline) Encode(ctx context.Context, format Format, content string) ([]byte, error) {
	res, err := p.Convert(ctx, Request{Direction: Encode, Format: format, Content: content})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Convert runs a single conversion request. It is the only place where a
// format selects its converter pair.
func (p *Pipeline) Convert(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	start := time.Now()

	var (
		res Result
		err error
	)
	switch req.Format {
	case FormatText:
		res, err = p.convertText(req)
	case FormatRich:
		res, err = p.convertDocx(req)
	default:
		return Result{}, fmt.Errorf("docpipe: no converter for format %q", req.Format)
	}
	if err != nil {
		p.logger.DebugContext(ctx, "conversion failed",
			"direction", req.Direction, "format", req.Format, "error", err)
		return Result{}, err
	}

	p.logger.DebugContext(ctx, "conversion done",
		"direction", req.Direction, "format", req.Format,
		"bytes", len(req.Data)+len(res.Data),
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (p *Pipeline) convertText(req Request) (Result, error) {
	switch req.Direction {
	case Decode:
		text, err := decodeText(req.Data)
		if err != nil {
			return Result{}, err
		}
		return Result{Document: &Document{Format: FormatText, Title: firstLine(text), Content: text}}, nil
	case Encode:
		data, err := encodeText(req.Content)
		if err != nil {
			return Result{}, err
		}
		return Result{Data: data}, nil
	}
	return Result{}, fmt.Errorf("docpipe: unknown direction %d", req.Direction)
}

func (p *Pipeline) convertDocx(req Request) (Result, error) {
	switch req.Direction {
	case Decode:
		if int64(len(req.Data)) > p.cfg.MaxFileSize {
			return Result{}, &DecodeError{Format: FormatRich,
				Cause: fmt.Errorf("container too large: %d bytes (max %d)", len(req.Data), p.cfg.MaxFileSize)}
		}
		title, markup, err := decodeDocx(req.Data)
		if err != nil {
			return Result{}, &DecodeError{Format: FormatRich, Cause: err}
		}
		return Result{Document: &Document{
			Format:  FormatRich,
			Title:   title,
			Content: p.cfg.Policy.Sanitize(markup),
		}}, nil
	case Encode:
		if !utf8.ValidString(req.Content) {
			return Result{}, &EncodeError{Format: FormatRich, Cause: &EncodingError{Offset: invalidOffset([]byte(req.Content))}}
		}
		clean := p.cfg.Policy.Sanitize(req.Content)
		data, err := encodeDocx(clean, p.cfg.Docx)
		if err != nil {
			return Result{}, &EncodeError{Format: FormatRich, Cause: err}
		}
		return Result{Data: data}, nil
	}
	return Result{}, fmt.Errorf("docpipe: unknown direction %d", req.Direction)
}

// SupportedFormats returns all supported format extensions.
func SupportedFormats() []string {
	return []string{string(FormatText), string(FormatRich)}
}
