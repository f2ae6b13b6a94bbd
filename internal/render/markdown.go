// Package render turns mentor replies written in markdown into HTML that is
// safe to embed in the client.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown with GitHub-flavoured tables. Raw HTML in the
// source is dropped.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// HTML renders src. An empty source renders to an empty string.
func (r *Renderer) HTML(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

var defaultRenderer = New()

// HTML renders src with the shared renderer.
func HTML(src string) (string, error) {
	return defaultRenderer.HTML(src)
}
