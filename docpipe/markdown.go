package docpipe

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

// ToMarkdown renders a decoded document as Markdown. Rich markup is
// sanitized before conversion; plain text is returned unchanged.
func (p *Pipeline) ToMarkdown(doc *Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	if doc.Format != FormatRich {
		return doc.Content, nil
	}
	md, err := p.md.ConvertString(p.cfg.Policy.Sanitize(doc.Content))
	if err != nil {
		return "", fmt.Errorf("docpipe: markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
