package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, 8, testLogger())
	defer p.Shutdown(context.Background())

	var ran atomic.Int32
	handles := make([]*Handle, 0, 5)
	for i := 0; i < 5; i++ {
		h, err := p.Submit("count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}
	for _, h := range handles {
		require.NoError(t, h.Wait())
	}
	assert.Equal(t, int32(5), ran.Load())
}

func TestPoolHandleCarriesError(t *testing.T) {
	p := NewPool(1, 1, testLogger())
	defer p.Shutdown(context.Background())

	boom := errors.New("boom")
	h, err := p.Submit("failing", func(ctx context.Context) error { return boom })
	require.NoError(t, err)
	assert.ErrorIs(t, h.Wait(), boom)
}

func TestPoolRecoversPanics(t *testing.T) {
	p := NewPool(1, 1, testLogger())
	defer p.Shutdown(context.Background())

	h, err := p.Submit("panicking", func(ctx context.Context) error { panic("kaboom") })
	require.NoError(t, err)
	require.Error(t, h.Wait())
	assert.Contains(t, h.Err().Error(), "kaboom")

	// The worker survives the panic.
	ok, err := p.Submit("after", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, ok.Wait())
}

func TestPoolRejectsAfterShutdown(t *testing.T) {
	p := NewPool(1, 1, testLogger())
	require.NoError(t, p.Shutdown(context.Background()))

	_, err := p.Submit("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPoolShutdownCancelsTaskContext(t *testing.T) {
	p := NewPool(1, 1, testLogger())

	started := make(chan struct{})
	h, err := p.Submit("sleeper", func(ctx context.Context) error {
		close(started)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return errors.New("task context was never cancelled")
		}
	})
	require.NoError(t, err)

	<-started
	require.NoError(t, p.Shutdown(context.Background()))
	assert.ErrorIs(t, h.Wait(), context.Canceled)
}
