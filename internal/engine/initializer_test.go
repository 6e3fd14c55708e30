package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEngine struct{}

func (stubEngine) Convert(context.Context, []byte, string) (Document, error) {
	return Document{TextContent: "stub"}, nil
}

func TestInitializerConstructsOnce(t *testing.T) {
	t.Parallel()

	var constructed atomic.Int32
	init := NewInitializer(func() (Engine, error) {
		constructed.Add(1)
		return stubEngine{}, nil
	}, zap.NewNop())

	require.Equal(t, StateUninitialized, init.State())

	for range 5 {
		eng, err := init.Get()
		require.NoError(t, err)
		require.NotNil(t, eng)
	}
	require.Equal(t, int32(1), constructed.Load())
	require.Equal(t, StateReady, init.State())
}

func TestInitializerCachesFailure(t *testing.T) {
	t.Parallel()

	var constructed atomic.Int32
	init := NewInitializer(func() (Engine, error) {
		constructed.Add(1)
		return nil, errors.New("model load failed")
	}, zap.NewNop())

	for range 5 {
		eng, err := init.Get()
		require.Nil(t, eng)
		require.Error(t, err)
		require.Contains(t, err.Error(), "model load failed")
	}
	require.Equal(t, int32(1), constructed.Load())
	require.Equal(t, StateFailed, init.State())
}

func TestInitializerConcurrentCallersSingleAttempt(t *testing.T) {
	t.Parallel()

	var constructed atomic.Int32
	release := make(chan struct{})
	init := NewInitializer(func() (Engine, error) {
		constructed.Add(1)
		<-release
		return stubEngine{}, nil
	}, zap.NewNop())

	const callers = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			eng, err := init.Get()
			require.NoError(t, err)
			require.NotNil(t, eng)
		}()
	}
	for range callers {
		<-started
	}
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), constructed.Load())
	require.Equal(t, StateReady, init.State())
}
