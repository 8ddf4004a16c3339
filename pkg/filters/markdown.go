package filters

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// markdown converts the value from Markdown to HTML. The result is HTML,
// so templates chain it with raw: {{ body | markdown | raw }}.
func markdown(v any, _ []string) (any, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(toString(v)), &buf); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
