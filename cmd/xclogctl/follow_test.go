package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xclog/pkg/observability/xlog"
	"github.com/omeyang/xclog/pkg/observability/xrotate"
)

const (
	followWait = 5 * time.Second
	followTick = 10 * time.Millisecond
)

func newTestLogger(t *testing.T) xlog.Logger {
	t.Helper()
	logger, cleanup, err := xlog.New().SetOutput(io.Discard).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger
}

// startFollower 后台运行 follower，测试结束时取消并等待退出
func startFollower(t *testing.T, path string, fromStart bool) *syncBuffer {
	t.Helper()
	out := &syncBuffer{}
	fw := newFollower(path, out, newTestLogger(t))
	fw.poll = 20 * time.Millisecond
	fw.fromStart = fromStart

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(followWait):
			t.Error("follower did not stop")
		}
	})
	return out
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	require.Eventually(t, func() bool { return out.String() == want }, followWait, followTick,
		"got %q, want %q", out.String(), want)
}

func emitAll(t *testing.T, w *xrotate.Writer, records ...string) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, w.Emit(r))
	}
}

func TestFollowAcrossRotations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w, err := xrotate.NewSize(path, xrotate.WithBackupCount(3))
	require.NoError(t, err)
	defer w.Close()

	emitAll(t, w, "before start")
	out := startFollower(t, path, false)
	// 等待 follower 打开文件，之前的内容不输出
	time.Sleep(100 * time.Millisecond)

	emitAll(t, w, "a1", "a2")
	waitFor(t, out, "a1\na2\n")

	require.NoError(t, w.Rotate())
	emitAll(t, w, "b1")
	waitFor(t, out, "a1\na2\nb1\n")

	require.NoError(t, w.Rotate())
	emitAll(t, w, "c1", "c2")
	waitFor(t, out, "a1\na2\nb1\nc1\nc2\n")
}

func TestFollowFromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writeFile(t, path, "existing\n")

	out := startFollower(t, path, true)
	waitFor(t, out, "existing\n")
}

func TestFollowFileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	out := startFollower(t, path, false)
	time.Sleep(50 * time.Millisecond)

	w, err := xrotate.NewSize(path)
	require.NoError(t, err)
	defer w.Close()
	emitAll(t, w, "first", "second")
	waitFor(t, out, "first\nsecond\n")
}

func TestFollowTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	// backup_count 为 0 时轮转原地截断
	w, err := xrotate.NewSize(path, xrotate.WithBackupCount(0))
	require.NoError(t, err)
	defer w.Close()

	out := startFollower(t, path, false)
	time.Sleep(50 * time.Millisecond)
	emitAll(t, w, "a long record before truncation")
	waitFor(t, out, "a long record before truncation\n")

	require.NoError(t, w.Rotate())
	// 等待 follower 观察到截断，避免新内容追上旧偏移
	require.Eventually(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.Size() == 0
	}, followWait, followTick)
	time.Sleep(100 * time.Millisecond)

	emitAll(t, w, "new")
	waitFor(t, out, "a long record before truncation\nnew\n")
}

func TestFollowCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writeFile(t, path, "x\n")

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"xclogctl", "-f", path, "follow", "--from-start", "--poll", "20ms"},
			streams{in: strings.NewReader(""), out: out, err: io.Discard})
	}()

	waitFor(t, out, "x\n")
	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitOK, code)
	case <-time.After(followWait):
		t.Fatal("follow did not stop after cancel")
	}
}
