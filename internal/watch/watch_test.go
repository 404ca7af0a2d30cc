package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentstation/armory/internal/watch"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/logging"
)

const wait = 5 * time.Second

func start(t *testing.T, w *watch.Watcher) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return cancel, done
}

func stop(t *testing.T, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(wait):
		t.Fatal("watcher did not stop")
	}
}

func TestIntervalRuns(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	w := watch.New(func(context.Context) error {
		calls.Add(1)
		return nil
	}, watch.WithInterval(10*time.Millisecond), watch.WithLogger(logging.NewNopLogger()))

	cancel, done := start(t, w)
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, wait, 5*time.Millisecond)
	stop(t, cancel, done)
	assert.GreaterOrEqual(t, w.Runs(), int64(3))
}

func TestFileChangeTriggersRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var calls atomic.Int32
	w := watch.New(func(context.Context) error {
		calls.Add(1)
		return nil
	},
		watch.WithPaths(dir),
		watch.WithDebounce(20*time.Millisecond),
		watch.WithInitialRun(false),
		watch.WithFilter(func(name string) bool { return name == "gdud.csv" }),
		watch.WithLogger(logging.NewNopLogger()),
	)

	cancel, done := start(t, w)
	defer stop(t, cancel, done)

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, calls.Load(), "filtered files do not trigger")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "gdud.csv"), []byte("1"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, wait, 5*time.Millisecond)
}

func TestWatchesSingleFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	book := filepath.Join(dir, "armory.xlsx")
	require.NoError(t, os.WriteFile(book, []byte("v1"), 0o644))

	var calls atomic.Int32
	w := watch.New(func(context.Context) error {
		calls.Add(1)
		return nil
	},
		watch.WithPaths(book),
		watch.WithDebounce(20*time.Millisecond),
		watch.WithInitialRun(false),
		watch.WithLogger(logging.NewNopLogger()),
	)

	cancel, done := start(t, w)
	defer stop(t, cancel, done)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(book, []byte("v2"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, wait, 5*time.Millisecond)
}

func TestFailuresDoNotStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := watch.New(func(context.Context) error {
		return errors.New("boom")
	}, watch.WithInterval(5*time.Millisecond), watch.WithLogger(logging.NewNopLogger()))

	cancel, done := start(t, w)
	require.Eventually(t, func() bool { return w.Failures() >= 2 }, wait, 5*time.Millisecond)
	stop(t, cancel, done)
}

func TestRunTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	block := make(chan struct{})
	w := watch.New(func(ctx context.Context) error {
		<-block
		return nil
	}, watch.WithLogger(logging.NewNopLogger()))

	cancel, done := start(t, w)
	require.Eventually(t, func() bool { return w.Runs() == 1 }, wait, 5*time.Millisecond)

	err := w.Run(context.Background())
	assert.True(t, errors.IsValidationError(err))

	close(block)
	stop(t, cancel, done)
}
