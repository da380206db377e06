// render преобразует Markdown-исходник поста в безопасный HTML.
//
// Две стадии: goldmark (GFM) рендерит разметку, bluemonday (UGC-политика)
// вычищает всё, что не положено пользовательскому контенту. Сырой HTML из
// исходника до клиента не доходит.
package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowImages()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}

// HTML рендерит Markdown в санитизированный HTML.
func HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	return string(policy.SanitizeBytes(buf.Bytes())), nil
}
