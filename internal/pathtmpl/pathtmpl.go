// Package pathtmpl renders relative export paths from templates such as
// "{Number}_{Name}.stp" against a component's metadata.
//
// Rendering is pure: every registered field resolves either to the
// component's value or to the field's "Undefined ..." placeholder, the result
// is normalised for the host platform, and every character outside the path
// whitelist is replaced with '_'.
package pathtmpl

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/agentic-research/neutralizer/internal/fields"
)

// Metadata is the read side of a component used for rendering.
type Metadata interface {
	// Get returns the raw value of a registered field. ok is false when the
	// component has no value at all.
	Get(field string) (value string, ok bool)
}

// TemplateError reports a template that cannot be rendered.
type TemplateError struct {
	Template string
	Field    string // unknown placeholder, empty for syntax errors
	Reason   string
}

func (e *TemplateError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("template %q: unknown field {%s}", e.Template, e.Field)
	}
	return fmt.Sprintf("template %q: %s", e.Template, e.Reason)
}

// Renderer renders templates. The zero value is ready to use.
type Renderer struct {
	// PreserveSpaces keeps ' ' in rendered paths instead of replacing it.
	PreserveSpaces bool
}

// Render renders tmpl with the default Renderer.
func Render(tmpl string, md Metadata) (string, error) {
	return Renderer{}.Render(tmpl, md)
}

// Render substitutes {Field} placeholders in tmpl, normalises separators and
// sanitizes the result. "{{" and "}}" produce literal braces.
func (r Renderer) Render(tmpl string, md Metadata) (string, error) {
	values := Values(md)

	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", &TemplateError{Template: tmpl, Reason: "unclosed '{'"}
			}
			name := tmpl[i+1 : i+1+end]
			if name == "" {
				return "", &TemplateError{Template: tmpl, Reason: "empty placeholder '{}'"}
			}
			v, ok := values[name]
			if !ok {
				return "", &TemplateError{Template: tmpl, Field: name}
			}
			b.WriteString(v)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &TemplateError{Template: tmpl, Reason: "single '}' encountered"}
		default:
			b.WriteByte(c)
		}
	}

	return r.Sanitize(Normalize(b.String())), nil
}

// Values builds the substitution map for md: one entry per registered field,
// with empty or missing values replaced by the field placeholder.
func Values(md Metadata) map[string]string {
	all := fields.All()
	out := make(map[string]string, len(all))
	for _, f := range all {
		v, ok := "", false
		if md != nil {
			v, ok = md.Get(f.Name)
		}
		if !ok || v == "" {
			v = f.Placeholder
		}
		out[f.Name] = v
	}
	return out
}

// Normalize converts separators to the platform form and cleans the path.
func Normalize(p string) string {
	return filepath.Clean(filepath.FromSlash(p))
}

// Sanitize replaces, one for one, every rune outside the whitelist
// {letters, digits, '_', '.', ':', '-', platform separator} with '_'.
// It must run after Normalize so separators survive.
func (r Renderer) Sanitize(p string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case unicode.IsLetter(c), unicode.IsDigit(c):
			return c
		case c == '_', c == '.', c == ':', c == '-', c == filepath.Separator:
			return c
		case c == ' ' && r.PreserveSpaces:
			return c
		}
		return '_'
	}, p)
}
