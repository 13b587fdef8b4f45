package evaluator

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// markdownFilter renders a markdown string to HTML, so a binding can feed
// formatted text straight into a template sink
func markdownFilter(input Object, args ...Object) Object {
	s, ok := input.(*String)
	if !ok {
		return input
	}
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(s.Value), &buf); err != nil {
		return newOperatorError("FILTER-0004", "markdown: "+err.Error())
	}
	return &String{Value: buf.String()}
}
