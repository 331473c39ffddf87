// Package bootstrap wraps page content in the shared admin layout.
package bootstrap

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/TheLab-ms/dashnotes/internal/templates"
)

//go:embed templates/*.html
var templateFS embed.FS

var renderer = templates.MustParseFS(templateFS, "templates/*.html")

type ViewData struct {
	Title   string
	Theme   string
	Content template.HTML
}

// View creates a layout with no theme.
func View(title string, content templates.Component) templates.Component {
	return view(title, "", content)
}

// DarkmodeView creates a layout with the dark theme.
func DarkmodeView(title string, content templates.Component) templates.Component {
	return view(title, "dark", content)
}

func view(title, theme string, content templates.Component) templates.Component {
	return &layoutComponent{title: title, theme: theme, content: content}
}

// layoutComponent renders its content first and then the layout around it.
type layoutComponent struct {
	title   string
	theme   string
	content templates.Component
}

func (lc *layoutComponent) Render(ctx context.Context, w io.Writer) error {
	var contentBuf bytes.Buffer
	if err := lc.content.Render(ctx, &contentBuf); err != nil {
		return err
	}
	return renderer.Execute("view", &ViewData{
		Title:   lc.title,
		Theme:   lc.theme,
		Content: template.HTML(contentBuf.String()),
	}).Render(ctx, w)
}
