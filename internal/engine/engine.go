// Package engine defines the document-to-markdown conversion engine and
// the process-wide lazy initializer that guards its construction.
package engine

import "context"

// Document is the output of a conversion.
type Document struct {
	// Title as reported by the engine; may be empty, in which case the
	// pipeline derives one from the content or the source name.
	Title string
	// TextContent is the converted markdown.
	TextContent string
}

// Engine converts raw document bytes into markdown. The name is the
// source filename and determines format handling via its extension.
type Engine interface {
	Convert(ctx context.Context, data []byte, name string) (Document, error)
}
