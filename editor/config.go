package editor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/scribe/docpipe"
)

// Config holds all editor configuration.
type Config struct {
	// RecentDB is the SQLite file backing the recent-documents list.
	RecentDB string `json:"recent_db" yaml:"recent_db"`

	// RecentLimit is the number of recent documents remembered.
	RecentLimit int `json:"recent_limit" yaml:"recent_limit"`

	// MaxFileSize is the largest file Open accepts, in bytes.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	Docx docpipe.DocxOptions `json:"docx" yaml:"docx"`

	// HTTPAddr is the listen address of `scribe serve`.
	HTTPAddr string `json:"http_addr" yaml:"http_addr"`

	// CallTimeout bounds every intent call made through the router.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// Root, when set, confines every document path to this directory.
	// Relative paths are taken from it.
	Root string `json:"root" yaml:"root"`
}

func (c *Config) defaults() {
	if c.RecentDB == "" {
		c.RecentDB = "scribe.db"
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = 10
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Docx.DefaultFont == "" {
		c.Docx.DefaultFont = "Calibri"
	}
	if c.Docx.FontSizePt <= 0 {
		c.Docx.FontSizePt = 11
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = "127.0.0.1:8086"
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 2 * time.Minute
	}
}

// Validate checks a defaulted config.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RecentDB, validation.Required),
		validation.Field(&c.RecentLimit, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.MaxFileSize, validation.Min(int64(1))),
		validation.Field(&c.Docx, validation.By(validateDocx)),
		validation.Field(&c.HTTPAddr, validation.Required, validation.By(validateHostPort)),
		validation.Field(&c.CallTimeout, validation.Min(time.Second)),
	)
}

func validateDocx(v any) error {
	o, _ := v.(docpipe.DocxOptions)
	return validation.ValidateStruct(&o,
		validation.Field(&o.DefaultFont, validation.Required, validation.Length(1, 64)),
		validation.Field(&o.FontSizePt, validation.Min(1), validation.Max(400)),
		validation.Field(&o.Title, validation.Length(0, 512)),
	)
}

func validateHostPort(v any) error {
	s, _ := v.(string)
	if _, _, err := net.SplitHostPort(s); err != nil {
		return errors.New("must be host:port")
	}
	return nil
}

// LoadConfigFile reads a YAML config file, applies defaults and validates
// the result. Unknown keys are rejected.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
