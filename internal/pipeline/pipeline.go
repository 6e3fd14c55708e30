// Package pipeline orchestrates a single conversion request: validation,
// object fetch, engine invocation, title resolution and response assembly.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/openconvert/markitdown-server/internal/engine"
	"github.com/openconvert/markitdown-server/internal/fetcher"
	"github.com/openconvert/markitdown-server/internal/metrics"
)

// DefaultContentType is the fixed content type of every conversion result.
const DefaultContentType = "text/markdown"

// validExtensions is the fixed set of supported source extensions.
var validExtensions = map[string]struct{}{
	"pdf": {}, "ppt": {}, "pptx": {}, "doc": {}, "docx": {},
	"xls": {}, "xlsx": {}, "jpg": {}, "jpeg": {}, "png": {}, "tiff": {},
	"mp3": {}, "wav": {}, "ogg": {}, "html": {}, "htm": {},
	"csv": {}, "json": {}, "xml": {}, "zip": {}, "youtube": {}, "epub": {},
}

// Request is a single conversion request.
type Request struct {
	Source string `json:"source"`
}

// Result is the converted document.
type Result struct {
	Title       string `json:"title"`
	TextContent string `json:"text_content"`
	ContentType string `json:"content_type"`
}

// Config tunes the pipeline's fetch behavior.
type Config struct {
	MaxRetries    int
	BackoffFactor float64
	Region        string
}

// Pipeline converts documents addressed by object-store URIs.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	engines *engine.Initializer
	fetcher *fetcher.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Pipeline.
func New(engines *engine.Initializer, f *fetcher.Fetcher, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = fetcher.DefaultMaxRetries
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = fetcher.DefaultBackoffFactor
	}
	return &Pipeline{engines: engines, fetcher: f, cfg: cfg, logger: logger}
}

// Convert runs the full conversion for one request. Failures are returned
// as *Error with a Kind that maps onto HTTP statuses.
func (p *Pipeline) Convert(ctx context.Context, req Request) (Result, error) {
	res, err := p.convert(ctx, req)
	if err != nil {
		if pe, ok := AsError(err); ok {
			metrics.ObserveConversion(pe.Kind.Label())
		} else {
			metrics.ObserveConversion("error")
		}
		return Result{}, err
	}
	metrics.ObserveConversion("success")
	return res, nil
}

func (p *Pipeline) convert(ctx context.Context, req Request) (Result, error) {
	if err := ValidateSource(req.Source); err != nil {
		return Result{}, err
	}

	eng, err := p.engines.Get()
	if err != nil || eng == nil {
		return Result{}, newError(KindEngineUnavailable, "conversion engine is not available", err)
	}

	bucket, key, ok := ParseObjectURI(req.Source)
	if !ok {
		return Result{}, newError(KindUnsupportedSource, "only s3:// object store URIs are supported", nil)
	}

	fetchRes, err := p.fetcher.Fetch(ctx, bucket, key, fetcher.Options{
		MaxRetries:    p.cfg.MaxRetries,
		BackoffFactor: p.cfg.BackoffFactor,
		Region:        p.cfg.Region,
	})
	if err != nil {
		return Result{}, newError(KindFetchFailed, "object fetch failed", err)
	}
	switch fetchRes.Outcome {
	case fetcher.OutcomeNotFound:
		return Result{}, newError(KindNotFound,
			fmt.Sprintf("object not found: %s", req.Source), nil)
	case fetcher.OutcomeAccessDenied:
		return Result{}, newError(KindAccessDenied,
			fmt.Sprintf("access denied: %s", req.Source), nil)
	case fetcher.OutcomeExhausted:
		return Result{}, newError(KindFetchExhausted,
			fmt.Sprintf("object fetch failed after %d attempts", fetchRes.Attempts), nil)
	}
	if len(fetchRes.Content) == 0 {
		return Result{}, newError(KindNoContent, "no content found to convert", nil)
	}

	doc, err := p.invokeEngine(ctx, eng, fetchRes.Content, key)
	if err != nil {
		p.logger.Error("conversion failed",
			zap.String("source", req.Source),
			zap.String("correlation_id", fetchRes.CorrelationID),
			zap.Int("attempts", fetchRes.Attempts),
			zap.Error(err),
		)
		return Result{}, newError(KindConversion, "conversion failed", err)
	}

	return Result{
		Title:       ResolveTitle(doc.Title, doc.TextContent, req.Source),
		TextContent: doc.TextContent,
		ContentType: DefaultContentType,
	}, nil
}

// invokeEngine wraps the engine call so a panicking converter surfaces as
// a conversion error instead of taking down the process.
func (p *Pipeline) invokeEngine(ctx context.Context, eng engine.Engine, data []byte, name string) (doc engine.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	doc, err = eng.Convert(ctx, data, name)
	return doc, err
}

// ValidateSource checks that source is non-empty and carries a supported
// extension. The extension is the substring after the final dot; a source
// without a dot is checked wholesale, matching the original contract.
func ValidateSource(source string) error {
	if source == "" {
		return newError(KindValidation, "source must be provided", nil)
	}
	ext := strings.ToLower(source)
	if idx := strings.LastIndex(source, "."); idx >= 0 {
		ext = strings.ToLower(source[idx+1:])
	}
	if _, ok := validExtensions[ext]; !ok {
		return newError(KindValidation,
			fmt.Sprintf("invalid file extension %q, must be one of: %s", ext, extensionList()), nil)
	}
	return nil
}

// ParseObjectURI splits an s3://bucket/key URI. The key may contain
// slashes; both parts must be non-empty.
func ParseObjectURI(source string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(source, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// ResolveTitle picks the result title: the engine-reported title, else the
// first level-1 markdown heading in the content, else the filename stem of
// the source.
func ResolveTitle(engineTitle, textContent, source string) string {
	if engineTitle != "" {
		return engineTitle
	}
	if h1 := firstHeading(textContent); h1 != "" {
		return h1
	}
	base := path.Base(source)
	return strings.TrimSuffix(base, path.Ext(base))
}

func extensionList() string {
	exts := make([]string, 0, len(validExtensions))
	for e := range validExtensions {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
