// Package templates renders html/template views as components.
package templates

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

// Component is anything that renders itself to a writer.
// templ components satisfy it too, so both can be nested.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// TemplateComponent renders a single named template with its data.
type TemplateComponent struct {
	Template *template.Template
	Name     string
	Data     any
}

// Render executes the template into a buffer first so a failure doesn't leave half a page.
func (tc *TemplateComponent) Render(ctx context.Context, w io.Writer) error {
	var buf bytes.Buffer
	if err := tc.Template.ExecuteTemplate(&buf, tc.Name, tc.Data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Renderer holds a parsed set of templates.
type Renderer struct {
	templates *template.Template
}

// Funcs are available to every template parsed by a Renderer.
var Funcs = template.FuncMap{
	// trusted marks html that was produced or sanitized by the server.
	"trusted": func(s string) template.HTML { return template.HTML(s) },
}

// MustParseFS parses the templates matching the patterns, panicking on error.
// Templates are referenced by their {{ define }} names or file names.
func MustParseFS(fsys fs.FS, patterns ...string) *Renderer {
	return &Renderer{templates: template.Must(template.New("").Funcs(Funcs).ParseFS(fsys, patterns...))}
}

// Execute creates a component that will render the named template with the given data.
func (r *Renderer) Execute(name string, data any) Component {
	tmpl := r.templates.Lookup(name)
	if tmpl == nil {
		return &errorComponent{err: fmt.Errorf("template %q not found", name)}
	}
	return &TemplateComponent{Template: r.templates, Name: name, Data: data}
}

type errorComponent struct{ err error }

func (e *errorComponent) Render(ctx context.Context, w io.Writer) error { return e.err }
