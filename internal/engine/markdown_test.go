package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *MarkdownEngine {
	t.Helper()
	e, err := NewMarkdownEngine()
	require.NoError(t, err)
	return e
}

func TestConvertHTML(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	html := `<html><head><title>Quarterly Report</title></head>` +
		`<body><h1>Q1 Results</h1><p>Revenue grew.</p></body></html>`

	doc, err := e.Convert(context.Background(), []byte(html), "report.html")
	require.NoError(t, err)
	require.Equal(t, "Quarterly Report", doc.Title)
	require.Contains(t, doc.TextContent, "# Q1 Results")
	require.Contains(t, doc.TextContent, "Revenue grew.")
}

func TestConvertHTMLWithoutTitle(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	doc, err := e.Convert(context.Background(), []byte("<p>plain</p>"), "page.htm")
	require.NoError(t, err)
	require.Empty(t, doc.Title)
	require.Contains(t, doc.TextContent, "plain")
}

func TestConvertCSV(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	csvData := "name,price\nwidget,9.99\ngadget,24.50\n"

	doc, err := e.Convert(context.Background(), []byte(csvData), "prices.csv")
	require.NoError(t, err)
	require.Contains(t, doc.TextContent, "| name | price |")
	require.Contains(t, doc.TextContent, "| --- | --- |")
	require.Contains(t, doc.TextContent, "| widget | 9.99 |")
}

func TestConvertJSON(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	doc, err := e.Convert(context.Background(), []byte(`{"a":1}`), "data.json")
	require.NoError(t, err)
	require.Contains(t, doc.TextContent, "```json")
	require.Contains(t, doc.TextContent, `"a": 1`)
}

func TestConvertJSONInvalid(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	_, err := e.Convert(context.Background(), []byte(`{not json`), "data.json")
	require.Error(t, err)
}

func TestConvertXML(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	doc, err := e.Convert(context.Background(), []byte("<root><a>1</a></root>"), "data.xml")
	require.NoError(t, err)
	require.Contains(t, doc.TextContent, "```xml")
	require.Contains(t, doc.TextContent, "<root><a>1</a></root>")
}

func TestConvertUnsupportedFormat(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	_, err := e.Convert(context.Background(), []byte("%PDF-1.7"), "report.pdf")
	require.Error(t, err)

	var unsupported *ErrUnsupportedFormat
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, "pdf", unsupported.Extension)
}
