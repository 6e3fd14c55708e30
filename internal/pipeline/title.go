package pipeline

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var titleMarkdown = goldmark.New()

// firstHeading returns the text of the first level-1 heading in the
// markdown content, or "" when none exists.
func firstHeading(markdown string) string {
	src := []byte(markdown)
	root := titleMarkdown.Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(headingText(heading, src))
		return ast.WalkStop, nil
	})
	return title
}

// headingText concatenates the raw text of every text node under the
// heading, so inline emphasis or links do not lose their words.
func headingText(heading *ast.Heading, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
