// Package periodic runs cancellable background tasks on cron schedules in
// Pacific time.
package periodic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
)

// Options configures a Task.
type Options struct {
	Logger *logging.Logger

	// Location defaults to schedule.Pacific.
	Location *time.Location

	// RunImmediately runs fn once on Start, before the first tick.
	RunImmediately bool
}

// Task runs fn on a cron spec until stopped. Overlapping runs are skipped.
type Task struct {
	name   string
	cron   *cron.Cron
	job    cron.Job
	logger *logging.Logger
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New parses spec (standard five-field cron or descriptors such as
// "@every 1m") and prepares a task. It does not start it.
func New(name, spec string, fn func(ctx context.Context), opts Options) (*Task, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Location == nil {
		opts.Location = schedule.Pacific
	}
	logger := opts.Logger.Named("periodic").With(zap.String("task", name))
	adapter := cronLogger{logger: logger}

	t := &Task{name: name, logger: logger, opts: opts}
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.cron = cron.New(
		cron.WithLocation(opts.Location),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)

	id, err := t.cron.AddFunc(spec, func() {
		start := time.Now()
		fn(t.ctx)
		logger.Debug(t.ctx, "task run finished", zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		t.cancel()
		return nil, fmt.Errorf("parsing schedule %q for %s: %w", spec, name, err)
	}
	t.job = t.cron.Entry(id).WrappedJob
	return t, nil
}

// Start begins scheduling. Calling Start twice has no effect.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.started = true

	if t.opts.RunImmediately {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.job.Run()
		}()
	}
	t.cron.Start()
	t.logger.Info(t.ctx, "task started", zap.Time("next", t.Next()))
}

// Next returns the next scheduled run, or zero before Start.
func (t *Task) Next() time.Time {
	entries := t.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop cancels the context passed to running invocations, stops
// scheduling, and waits for running invocations until ctx is done.
func (t *Task) Stop(ctx context.Context) error {
	t.cancel()
	cronDone := t.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info(ctx, "task stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping %s: %w", t.name, ctx.Err())
	}
}

// cronLogger adapts the cron library's logger to ours.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Underlying().Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Underlying().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
