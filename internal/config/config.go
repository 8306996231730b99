// Package config loads export configuration documents.
//
// A document names a base path and an ordered list of export directives,
// plus optional external converters. XML (the CAD add-on's
// layout), JSON, HCL and TOML are accepted, chosen by file extension.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/agentic-research/neutralizer/api"
	"github.com/agentic-research/neutralizer/internal/directive"
	"github.com/agentic-research/neutralizer/internal/pathtmpl"
)

// ErrUnsupportedFormat is returned for unknown document extensions.
var ErrUnsupportedFormat = errors.New("unsupported configuration format")

// ConfigurationError is a fatal problem with the configuration document.
// It is always reported before any file is touched.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Converter is a validated api.Converter.
type Converter struct {
	Format  directive.Format
	Command string
	Timeout time.Duration
}

// Config is a loaded, validated configuration.
type Config struct {
	// Path is the document that was loaded.
	Path string
	// Anchor is the directory a relative base path was resolved against.
	Anchor string
	// Base is the absolute export root, resolved once at load.
	Base       string
	Directives []directive.Directive
	Converters []Converter
	// Document is the decoded document before validation turned it into
	// directives.
	Document *api.Config
}

type options struct {
	anchor string
}

// Option configures Load.
type Option func(*options)

// WithAnchor resolves a relative base path against dir instead of the
// directory containing the document.
func WithAnchor(dir string) Option {
	return func(o *options) { o.anchor = dir }
}

// Load reads, validates and builds the configuration at path.
// Every failure is a *ConfigurationError.
func Load(path string, opts ...Option) (*Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := Decode(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	if err := validate(doc); err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	anchor := o.anchor
	if anchor == "" {
		anchor = filepath.Dir(path)
	}
	base, err := ResolveBase(doc.BasePath, anchor)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	directives, err := buildDirectives(doc)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	converters, err := buildConverters(doc)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	abs, err := filepath.Abs(anchor)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	return &Config{
		Path:       path,
		Anchor:     abs,
		Base:       base,
		Directives: directives,
		Converters: converters,
		Document:   doc,
	}, nil
}

// Decode parses the document at path without validating it.
func Decode(path string) (*api.Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return decodeXML(data)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return decodeJSON(data)
	case ".hcl":
		return decodeHCL(path)
	case ".toml":
		return decodeTOML(path)
	default:
		return nil, fmt.Errorf("%w %q (want .xml, .json, .hcl or .toml)", ErrUnsupportedFormat, ext)
	}
}

func decodeJSON(data []byte) (*api.Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc api.Config
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &doc, nil
}

func decodeHCL(path string) (*api.Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl: %w", diags)
	}
	var doc api.Config
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("decode hcl: %w", diags)
	}
	return &doc, nil
}

func decodeTOML(path string) (*api.Config, error) {
	var doc api.Config
	md, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("decode toml: unknown keys %s", strings.Join(keys, ", "))
	}
	return &doc, nil
}

// ResolveBase returns base as an absolute clean path. An empty base means
// "."; a relative base is joined to anchor, itself made absolute against the
// working directory.
func ResolveBase(base, anchor string) (string, error) {
	if base == "" {
		base = "."
	}
	base = filepath.FromSlash(base)
	if filepath.IsAbs(base) {
		return filepath.Clean(base), nil
	}
	abs, err := filepath.Abs(filepath.Join(anchor, base))
	if err != nil {
		return "", fmt.Errorf("resolve base path %q: %w", base, err)
	}
	return abs, nil
}

func enabled(b *bool) bool {
	return b == nil || *b
}

func buildDirectives(doc *api.Config) ([]directive.Directive, error) {
	renderer := pathtmpl.Renderer{PreserveSpaces: doc.PreserveSpaces}
	out := make([]directive.Directive, 0, len(doc.Directives))
	for i, d := range doc.Directives {
		format, err := directive.ParseFormat(d.Type)
		if err != nil {
			return nil, fmt.Errorf("directives[%d]: %w", i, err)
		}
		built, err := directive.New(format, d.RelativeExportPath,
			directive.WithPurge(d.PurgeDirectory),
			directive.WithKinds(
				enabled(d.EnableRootAssemblyExport),
				enabled(d.EnableSubassemblyExport),
				enabled(d.EnablePartExport),
			),
			directive.WithRenderer(renderer),
		)
		if err != nil {
			return nil, fmt.Errorf("directives[%d]: %w", i, err)
		}
		out = append(out, built)
	}
	return out, nil
}

func buildConverters(doc *api.Config) ([]Converter, error) {
	seen := map[directive.Format]bool{}
	out := make([]Converter, 0, len(doc.Converters))
	for i, c := range doc.Converters {
		format, err := directive.ParseFormat(c.Format)
		if err != nil {
			return nil, fmt.Errorf("converters[%d]: %w", i, err)
		}
		if seen[format] {
			return nil, fmt.Errorf("converters[%d]: second converter for %s", i, format)
		}
		seen[format] = true

		var timeout time.Duration
		if c.Timeout != "" {
			if timeout, err = time.ParseDuration(c.Timeout); err != nil {
				return nil, fmt.Errorf("converters[%d].timeout: %w", i, err)
			}
		}
		out = append(out, Converter{Format: format, Command: c.Command, Timeout: timeout})
	}
	return out, nil
}
