package engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/yuin/goldmark"
)

// ErrUnsupportedFormat reports a format the engine build cannot convert.
type ErrUnsupportedFormat struct {
	Extension string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("engine cannot convert %q documents", e.Extension)
}

var htmlTitlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// MarkdownEngine converts HTML, CSV, JSON and XML payloads to markdown.
// Binary formats (pdf, office documents, media) require an external
// converter build and surface ErrUnsupportedFormat here.
type MarkdownEngine struct {
	html     *converter.Converter
	markdown goldmark.Markdown
}

// NewMarkdownEngine builds the engine. Construction compiles the HTML
// converter and runs a round-trip self check; it is the expensive, fallible
// step that the lazy initializer caches.
func NewMarkdownEngine() (*MarkdownEngine, error) {
	html := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	e := &MarkdownEngine{
		html:     html,
		markdown: goldmark.New(),
	}

	// Exercise both converters once so a broken build fails at
	// construction instead of on the first request.
	probe, err := html.ConvertString("<h1>probe</h1>")
	if err != nil {
		return nil, fmt.Errorf("html converter self check: %w", err)
	}
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(probe), &buf); err != nil {
		return nil, fmt.Errorf("markdown parser self check: %w", err)
	}
	return e, nil
}

// Convert renders the document as markdown based on its extension.
func (e *MarkdownEngine) Convert(_ context.Context, data []byte, name string) (Document, error) {
	ext := strings.ToLower(name)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		ext = strings.ToLower(name[idx+1:])
	}

	switch ext {
	case "html", "htm":
		return e.convertHTML(data)
	case "csv":
		return e.convertCSV(data)
	case "json":
		return e.convertJSON(data)
	case "xml":
		return Document{TextContent: fencedBlock("xml", data)}, nil
	default:
		return Document{}, &ErrUnsupportedFormat{Extension: ext}
	}
}

func (e *MarkdownEngine) convertHTML(data []byte) (Document, error) {
	md, err := e.html.ConvertString(string(data))
	if err != nil {
		return Document{}, fmt.Errorf("convert html: %w", err)
	}
	doc := Document{TextContent: md}
	if m := htmlTitlePattern.FindSubmatch(data); m != nil {
		doc.Title = strings.TrimSpace(string(m[1]))
	}
	return doc, nil
}

func (e *MarkdownEngine) convertCSV(data []byte) (Document, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return Document{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return Document{}, nil
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(c, "|", `\|`))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(rows[0])
	b.WriteString("|")
	b.WriteString(strings.Repeat(" --- |", len(rows[0])))
	b.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return Document{TextContent: b.String()}, nil
}

func (e *MarkdownEngine) convertJSON(data []byte) (Document, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return Document{}, fmt.Errorf("parse json: %w", err)
	}
	return Document{TextContent: fencedBlock("json", pretty.Bytes())}, nil
}

func fencedBlock(lang string, data []byte) string {
	return "```" + lang + "\n" + strings.TrimRight(string(data), "\n") + "\n```\n"
}
