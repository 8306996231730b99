// Package exporter turns one component into one file on disk.
//
// Geometry conversion belongs to the CAD host; this package defines the
// contract the engine calls and ships the exporters that can run without
// it: component metadata as CSV, and an external converter command.
package exporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/directive"
)

var ErrUnsupportedFormat = errors.New("no exporter for format")

// Exporter writes exactly one file for c at dest. The containing directory
// already exists. Failures are returned, never panicked.
type Exporter interface {
	Export(ctx context.Context, c assembly.Component, format directive.Format, dest string) error
}

// Func adapts a function to Exporter.
type Func func(ctx context.Context, c assembly.Component, format directive.Format, dest string) error

func (f Func) Export(ctx context.Context, c assembly.Component, format directive.Format, dest string) error {
	return f(ctx, c, format, dest)
}

// Failure is an export of one (component, directive) pair that did not
// produce its file.
type Failure struct {
	Identity string
	Format   directive.Format
	Dest     string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("export %s to %s (%s): %v", f.Identity, f.Format.DisplayName(), f.Dest, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Router dispatches to a per-format exporter.
type Router struct {
	routes map[directive.Format]Exporter
}

// NewRouter copies routes; later Handle calls do not affect the caller's map.
func NewRouter(routes map[directive.Format]Exporter) *Router {
	r := &Router{routes: make(map[directive.Format]Exporter, len(routes))}
	for f, e := range routes {
		r.routes[f] = e
	}
	return r
}

// Handle registers e for format, replacing any previous exporter.
func (r *Router) Handle(format directive.Format, e Exporter) {
	r.routes[format] = e
}

// Supports reports whether an exporter is registered for format.
func (r *Router) Supports(format directive.Format) bool {
	_, ok := r.routes[format]
	return ok
}

func (r *Router) Export(ctx context.Context, c assembly.Component, format directive.Format, dest string) error {
	e, ok := r.routes[format]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnsupportedFormat, format)
	}
	return e.Export(ctx, c, format, dest)
}
