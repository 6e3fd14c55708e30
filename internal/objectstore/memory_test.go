package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetObject(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Put("bucket", "docs/report.pdf", []byte("pdf-bytes"))

	data, err := store.GetObject(context.Background(), "bucket", "docs/report.pdf", GetOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("pdf-bytes"), data)
	require.Equal(t, 1, store.Calls("bucket", "docs/report.pdf"))
}

func TestMemoryStoreMissingObject(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, err := store.GetObject(context.Background(), "bucket", "absent.pdf", GetOptions{})
	require.Error(t, err)

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, CodeNoSuchKey, code)
}

func TestMemoryStoreVersionedObject(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Put("bucket", "doc.pdf", []byte("latest"))
	store.PutVersion("bucket", "doc.pdf", "7", []byte("older"))

	data, err := store.GetObject(context.Background(), "bucket", "doc.pdf", GetOptions{VersionID: "7"})
	require.NoError(t, err)
	require.Equal(t, []byte("older"), data)

	_, err = store.GetObject(context.Background(), "bucket", "doc.pdf", GetOptions{VersionID: "8"})
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, CodeNoSuchKey, code)
}

func TestMemoryStoreScriptedFailures(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Put("bucket", "doc.pdf", []byte("content"))
	store.FailWith("bucket", "doc.pdf", CodeInternalError, CodeThrottling)

	for _, want := range []Code{CodeInternalError, CodeThrottling} {
		_, err := store.GetObject(context.Background(), "bucket", "doc.pdf", GetOptions{})
		code, ok := CodeOf(err)
		require.True(t, ok)
		require.Equal(t, want, code)
	}

	data, err := store.GetObject(context.Background(), "bucket", "doc.pdf", GetOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("content"), data)
	require.Equal(t, 3, store.Calls("bucket", "doc.pdf"))
}

func TestCodeOfUnclassified(t *testing.T) {
	t.Parallel()

	_, ok := CodeOf(errors.New("some transport failure"))
	require.False(t, ok)
}

func TestCodeRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, CodeThrottling.Retryable())
	require.True(t, CodeRequestTimeout.Retryable())
	require.True(t, CodeInternalError.Retryable())
	require.False(t, CodeNoSuchKey.Retryable())
	require.False(t, CodeAccessDenied.Retryable())
}
