package widgets

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextType is a widget with a title and an html body.
var TextType = Type{
	ID:        "text",
	Name:      "Text",
	Classname: "widget_text",
	Render:    renderText,
	Normalize: NormalizeHTML,
}

func renderText(ctx context.Context, inst *Instance) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if inst.Title != "" {
			if _, err := io.WriteString(w, `<h3 class="widgettitle">`+templ.EscapeString(inst.Title)+`</h3>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<div class="textwidget">`+inst.Body+`</div>`)
		return err
	})
}

// NormalizeHTML parses an html fragment and renders it back out, closing any open tags
// and dropping elements that must never appear in a notice.
func NormalizeHTML(body string) (string, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(body), container)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		strip(n)
		if isBanned(n) {
			continue
		}
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func strip(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isBanned(c) {
			n.RemoveChild(c)
		} else {
			strip(c)
		}
		c = next
	}
	if n.Type != html.ElementNode {
		return
	}
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") || isScriptURL(a) {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

func isBanned(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Iframe, atom.Object, atom.Embed:
		return true
	}
	return false
}

var urlAttrs = map[string]bool{"href": true, "src": true, "action": true, "formaction": true, "xlink:href": true}

// isScriptURL reports whether a url attribute would run script when followed.
// Browsers ignore whitespace and control characters inside the scheme, so those are dropped first.
func isScriptURL(a html.Attribute) bool {
	key := strings.ToLower(a.Key)
	if a.Namespace != "" {
		key = a.Namespace + ":" + key
	}
	if !urlAttrs[key] {
		return false
	}
	val := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, strings.ToLower(a.Val))
	return strings.HasPrefix(val, "javascript:") || strings.HasPrefix(val, "vbscript:")
}
