package periodic

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/sitin/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTask_RunImmediatelyAndStop(t *testing.T) {
	var runs atomic.Int32
	ran := make(chan struct{}, 1)

	task, err := New("reclassify", "@every 1h", func(context.Context) {
		runs.Add(1)
		ran <- struct{}{}
	}, Options{RunImmediately: true})
	require.NoError(t, err)

	task.Start()
	task.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run on start")
	}
	assert.False(t, task.Next().IsZero())

	require.NoError(t, task.Stop(context.Background()))
	assert.Equal(t, int32(1), runs.Load())
}

func TestTask_StopCancelsRunningInvocation(t *testing.T) {
	started := make(chan struct{})
	task, err := New("refresh", "@every 1h", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}, Options{RunImmediately: true})
	require.NoError(t, err)

	task.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, task.Stop(ctx))
}

func TestTask_RecoversPanics(t *testing.T) {
	logs := logging.NewTestLogger()
	done := make(chan struct{})
	task, err := New("flaky", "@every 1h", func(context.Context) {
		defer close(done)
		panic("boom")
	}, Options{RunImmediately: true, Logger: logs.Logger})
	require.NoError(t, err)

	task.Start()
	<-done
	require.NoError(t, task.Stop(context.Background()))
	logs.AssertLogged(t, zapcore.ErrorLevel, "panic")
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New("bad", "every minute", func(context.Context) {}, Options{})
	assert.Error(t, err)
}

func TestStop_WithoutStart(t *testing.T) {
	task, err := New("idle", "*/5 * * * *", func(context.Context) {}, Options{})
	require.NoError(t, err)
	require.NoError(t, task.Stop(context.Background()))
}
