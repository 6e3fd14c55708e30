// Package objectstore defines the interface for a bucket/key object store.
// This abstraction keeps the service independent of a specific storage
// backend (e.g., Google Cloud Storage or an in-memory store for tests).
package objectstore

import (
	"context"
	"errors"
	"fmt"
)

// Store reads objects from a bucket/key addressed store.
type Store interface {
	// GetObject returns the full content of the object. Errors carry a
	// classification code when the backend can provide one; see CodeOf.
	GetObject(ctx context.Context, bucket, key string, opts GetOptions) ([]byte, error)
}

// GetOptions carries optional parameters for a single read.
type GetOptions struct {
	// VersionID selects a specific object version when non-empty.
	VersionID string
}

// Code is a machine-readable classification of a store error.
type Code string

const (
	CodeNoSuchKey      Code = "NoSuchKey"
	CodeAccessDenied   Code = "AccessDenied"
	CodeThrottling     Code = "ThrottlingException"
	CodeRequestTimeout Code = "RequestTimeout"
	CodeInternalError  Code = "InternalError"
)

// Retryable reports whether an error with this code is worth retrying.
// Missing objects and permission failures are terminal.
func (c Code) Retryable() bool {
	switch c {
	case CodeThrottling, CodeRequestTimeout, CodeInternalError:
		return true
	}
	return false
}

// Error is a classified object store error.
type Error struct {
	Code   Code
	Bucket string
	Key    string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("objectstore: %s for %s/%s: %v", e.Code, e.Bucket, e.Key, e.Err)
}

// Unwrap returns the underlying backend error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a classification code.
func NewError(code Code, bucket, key string, err error) *Error {
	return &Error{Code: code, Bucket: bucket, Key: key, Err: err}
}

// CodeOf extracts the classification code from err. The second return is
// false for unclassified errors, which callers must treat as fatal rather
// than retryable.
func CodeOf(err error) (Code, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}
