// Package directive defines export directives: one output format, a path
// template, inclusion flags per component kind and an optional purge subtree.
package directive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/pathtmpl"
)

// Directive is immutable once built with New.
type Directive struct {
	format       Format
	template     string
	purgeSubtree string
	includeRoot  bool
	includeSub   bool
	includePart  bool
	renderer     pathtmpl.Renderer
}

// Option configures a Directive in New.
type Option func(*Directive)

// WithPurge sets the subtree, relative to the export base, purged of this
// format's files before a run.
func WithPurge(subtree string) Option {
	return func(d *Directive) { d.purgeSubtree = subtree }
}

// WithKinds sets the inclusion flags. All kinds are included by default.
func WithKinds(root, subassembly, part bool) Option {
	return func(d *Directive) {
		d.includeRoot = root
		d.includeSub = subassembly
		d.includePart = part
	}
}

// WithRenderer overrides the path renderer.
func WithRenderer(r pathtmpl.Renderer) Option {
	return func(d *Directive) { d.renderer = r }
}

// New builds a directive.
func New(format Format, template string, opts ...Option) (Directive, error) {
	if !format.Valid() {
		return Directive{}, fmt.Errorf("invalid export format %v", format)
	}
	if strings.TrimSpace(template) == "" {
		return Directive{}, fmt.Errorf("%s: empty export path template", format)
	}
	d := Directive{
		format:      format,
		template:    template,
		includeRoot: true,
		includeSub:  true,
		includePart: true,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d, nil
}

func (d Directive) Format() Format       { return d.format }
func (d Directive) Template() string     { return d.template }
func (d Directive) PurgeSubtree() string { return d.purgeSubtree }

// AppliesTo reports whether the inclusion flag for c's kind is set.
func (d Directive) AppliesTo(c assembly.Component) bool {
	switch c.Kind() {
	case assembly.RootAssembly:
		return d.includeRoot
	case assembly.Subassembly:
		return d.includeSub
	case assembly.Part:
		return d.includePart
	default:
		return false
	}
}

// ExtensionsToPurge is empty unless a purge subtree is configured.
func (d Directive) ExtensionsToPurge() []string {
	if d.purgeSubtree == "" {
		return nil
	}
	return d.format.Extensions()
}

// ExportPath renders the relative, sanitized destination for c. Leading
// separators are dropped. A rendered path that still leaves the export base,
// such as one built from a "../" metadata value, is a TemplateError.
func (d Directive) ExportPath(c assembly.Component) (string, error) {
	rel, err := d.renderer.Render(d.template, c)
	if err != nil {
		return "", err
	}
	rel = strings.TrimLeft(rel, string(filepath.Separator))
	if rel == "" || rel == "." || !filepath.IsLocal(rel) {
		return "", &pathtmpl.TemplateError{
			Template: d.template,
			Reason:   fmt.Sprintf("rendered path %q is outside the export base", rel),
		}
	}
	return rel, nil
}

func (d Directive) String() string {
	return fmt.Sprintf("%s:%s", d.format, d.template)
}
