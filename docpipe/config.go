package docpipe

import (
	"log/slog"

	"github.com/hazyhaar/scribe/sanitize"
)

// Config configures the conversion pipeline.
type Config struct {
	// MaxFileSize is the largest container accepted by Decode (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Docx tunes the container writer.
	Docx DocxOptions `json:"docx" yaml:"docx"`

	// Policy sanitizes rich markup on both decode and encode
	// (default: sanitize.Default()).
	Policy *sanitize.Policy `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`

	// Resolve maps a path given to Load before it is read, e.g. to confine
	// it to a workspace root (default: unchanged).
	Resolve func(path string) (string, error) `json:"-" yaml:"-"`
}

// DocxOptions controls the document shell and container metadata written on
// Encode.
type DocxOptions struct {
	// DefaultFont is declared in the shell and in styles.xml (default: Calibri).
	DefaultFont string `json:"default_font" yaml:"default_font"`

	// FontSizePt is the body font size in points (default: 11).
	FontSizePt int `json:"font_size_pt" yaml:"font_size_pt"`

	// Footer adds a centered page-number footer. Nil means enabled.
	Footer *bool `json:"footer,omitempty" yaml:"footer,omitempty"`

	// Title is written to docProps/core.xml when set; otherwise the first
	// heading is used.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// FooterEnabled reports whether the page-number footer is written.
func (o DocxOptions) FooterEnabled() bool {
	return o.Footer == nil || *o.Footer
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Docx.DefaultFont == "" {
		c.Docx.DefaultFont = "Calibri"
	}
	if c.Docx.FontSizePt <= 0 {
		c.Docx.FontSizePt = 11
	}
	if c.Policy == nil {
		c.Policy = sanitize.Default()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Resolve == nil {
		c.Resolve = func(path string) (string, error) { return path, nil }
	}
}
