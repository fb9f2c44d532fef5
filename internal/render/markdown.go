// Package render turns entry bodies into HTML for the templates.
package render

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// The goldmark instance is configured once; Convert is safe for concurrent use.
var (
	markdownOnce     sync.Once
	markdownInstance goldmark.Markdown
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
			),
		)
	})
	return markdownInstance
}

// Markdown renders src as HTML. Raw HTML in src is dropped, so the result is
// safe to embed. On a conversion failure the escaped source is returned.
func Markdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown().Convert([]byte(src), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(buf.String())
}
