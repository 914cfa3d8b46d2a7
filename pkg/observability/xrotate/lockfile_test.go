package xrotate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xclog/pkg/util/xflock"
)

func newTestCoordinator(t *testing.T, target string, opts ...Option) *lockCoordinator {
	t.Helper()
	cfg := defaultConfig()
	cfg.apply(opts)
	c, err := newLockCoordinator(target, &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.close() })
	return c
}

func TestLockFilePath(t *testing.T) {
	lockDir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		lockDir string
		want    string
	}{
		{"去掉.log后缀", "/var/log/app.log", "", "/var/log/.__app.lock"},
		{"其他后缀保留", "/var/log/app.txt", "", "/var/log/.__app.txt.lock"},
		{"只去掉最后一个.log", "/var/log/app.log.log", "", "/var/log/.__app.log.lock"},
		{"无后缀", "/var/log/app", "", "/var/log/.__app.lock"},
		{"指定锁目录", "/var/log/app.log", lockDir, filepath.Join(lockDir, ".__app.lock")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LockFilePath(filepath.FromSlash(tt.path), tt.lockDir)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestLockCoordinatorCreatesLockDir(t *testing.T) {
	dir := t.TempDir()
	lockDir := filepath.Join(dir, "locks", "nested")
	c := newTestCoordinator(t, filepath.Join(dir, "app.log"), WithLockFileDirectory(lockDir))

	require.NoError(t, c.lock())
	require.NoError(t, c.unlock())
	assert.FileExists(t, filepath.Join(lockDir, ".__app.lock"))
}

func TestLockCoordinatorReentrant(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.log")
	c := newTestCoordinator(t, target)

	require.NoError(t, c.lock())
	require.NoError(t, c.lock())
	assert.True(t, c.held())
	assert.Equal(t, 2, c.depth)

	other, err := os.Open(c.path)
	require.NoError(t, err)
	defer other.Close()

	// 深度未归零前锁仍然被持有
	require.NoError(t, c.unlock())
	assert.ErrorIs(t, xflock.TryLock(other, xflock.Exclusive), xflock.ErrWouldBlock)

	require.NoError(t, c.unlock())
	assert.False(t, c.held())
	require.NoError(t, xflock.TryLock(other, xflock.Exclusive))
	require.NoError(t, xflock.Unlock(other))

	// 多余的 unlock 无副作用
	require.NoError(t, c.unlock())
	assert.Equal(t, 0, c.depth)
}

func TestLockCoordinatorKeepOpen(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.log")

	t.Run("保持打开", func(t *testing.T) {
		c := newTestCoordinator(t, target)
		require.NoError(t, c.lock())
		require.NoError(t, c.unlock())
		assert.NotNil(t, c.f)
	})

	t.Run("每次关闭", func(t *testing.T) {
		c := newTestCoordinator(t, target, WithKeepLockFileOpen(false))
		require.NoError(t, c.lock())
		assert.NotNil(t, c.f)
		require.NoError(t, c.unlock())
		assert.Nil(t, c.f)
	})
}

func TestLockCoordinatorRetryExhausted(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.log")
	c := newTestCoordinator(t, target, WithLockRetry(3, time.Millisecond))

	var modes []xflock.Mode
	c.lockFn = func(_ *os.File, mode xflock.Mode) error {
		modes = append(modes, mode)
		return fmt.Errorf("flock: %w", xflock.ErrWouldBlock)
	}

	err := c.lock()
	require.ErrorIs(t, err, ErrLockAcquisitionFailed)
	assert.ErrorIs(t, err, xflock.ErrWouldBlock)
	require.Len(t, modes, 3)
	for _, m := range modes {
		assert.Equal(t, xflock.Exclusive|xflock.NonBlocking, m, "每次尝试都不能阻塞")
	}
	assert.False(t, c.held())
	assert.Nil(t, c.f, "失败后丢弃句柄")
}

func TestLockCoordinatorOtherErrorNotRetried(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.log")
	c := newTestCoordinator(t, target, WithLockRetry(5, time.Millisecond))

	badFD := errors.New("bad file descriptor")
	calls := 0
	c.lockFn = func(*os.File, xflock.Mode) error {
		calls++
		return badFD
	}

	err := c.lock()
	require.ErrorIs(t, err, ErrLockAcquisitionFailed)
	assert.ErrorIs(t, err, badFD)
	assert.Equal(t, 1, calls)
	assert.False(t, c.held())
}

func TestLockCoordinatorRetrySucceeds(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.log")
	c := newTestCoordinator(t, target, WithLockRetry(5, time.Millisecond))

	calls := 0
	c.lockFn = func(f *os.File, mode xflock.Mode) error {
		calls++
		if calls < 3 {
			return xflock.ErrWouldBlock
		}
		return xflock.Lock(f, mode)
	}

	require.NoError(t, c.lock())
	assert.Equal(t, 3, calls)
	require.NoError(t, c.unlock())
}

// holdLock 通过另一个句柄持有锁文件上的锁，模拟其他进程
func holdLock(t *testing.T, lockPath string, mode xflock.Mode) (release func()) {
	t.Helper()
	//#nosec G304 -- 测试临时目录
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	require.NoError(t, xflock.Lock(f, mode))
	var once sync.Once
	release = func() {
		once.Do(func() {
			assert.NoError(t, xflock.Unlock(f))
			assert.NoError(t, f.Close())
		})
	}
	t.Cleanup(release)
	return release
}

func TestLockContentionIsBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewSize(path, WithLockRetry(3, 10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	release := holdLock(t, w.LockPath(), xflock.Exclusive)

	done := make(chan error, 1)
	go func() { done <- w.Emit("blocked") }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrLockAcquisitionFailed)
		assert.ErrorIs(t, err, xflock.ErrWouldBlock)
	case <-time.After(2 * time.Second):
		release()
		<-done
		t.Fatal("锁被占用时 Emit 没有在重试预算内返回")
	}

	release()
	require.NoError(t, w.Emit("after release"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after release\n", string(data))
}

func TestSharedLockContentionIsBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	lockPath, err := LockFilePath(path, "")
	require.NoError(t, err)

	release := holdLock(t, lockPath, xflock.Exclusive)

	start := time.Now()
	_, err = Inspect(path, WithLockRetry(3, 10*time.Millisecond))
	require.ErrorIs(t, err, ErrLockAcquisitionFailed)
	assert.ErrorIs(t, err, xflock.ErrWouldBlock)
	_, err = ReadLocked(path, WithLockRetry(2, 10*time.Millisecond))
	require.ErrorIs(t, err, ErrLockAcquisitionFailed)
	assert.Less(t, time.Since(start), 2*time.Second)

	release()
	data, err := ReadLocked(path)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}

func TestLockCoordinatorState(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.log")
	c := newTestCoordinator(t, target)

	_, _, err := c.readState()
	require.Error(t, err, "未持锁不能读")
	require.Error(t, c.writeState(1), "未持锁不能写")

	require.NoError(t, c.lock())
	_, ok, err := c.readState()
	require.NoError(t, err)
	assert.False(t, ok, "新锁文件没有状态")

	require.NoError(t, c.writeState(1700000000))
	next, ok, err := c.readState()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000), next)

	// 较短的值完整覆盖较长的值
	require.NoError(t, c.writeState(42))
	next, ok, err = c.readState()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), next)
	require.NoError(t, c.unlock())

	// 重新打开锁文件不截断状态
	require.NoError(t, c.close())
	c2 := newTestCoordinator(t, target)
	require.NoError(t, c2.lock())
	next, ok, err = c2.readState()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), next)
	require.NoError(t, c2.unlock())
}

func TestLockCoordinatorCorruptState(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.log")
	c := newTestCoordinator(t, target)
	require.NoError(t, os.WriteFile(c.path, []byte("not-a-number"), 0o600))

	require.NoError(t, c.lock())
	defer func() { _ = c.unlock() }()
	_, ok, err := c.readState()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		want   int64
		wantOK bool
	}{
		{"正常", "1700000000", 1700000000, true},
		{"首尾空白", " 12\n", 12, true},
		{"负数", "-5", -5, true},
		{"空", "", 0, false},
		{"空白", "  \n", 0, false},
		{"非数字", "abc", 0, false},
		{"小数", "1.5", 0, false},
		{"溢出", "99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseState([]byte(tt.data))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func FuzzParseState(f *testing.F) {
	f.Add([]byte("1700000000"))
	f.Add([]byte(""))
	f.Add([]byte("-1"))
	f.Add([]byte("\x00\xff"))
	f.Fuzz(func(t *testing.T, data []byte) {
		v, ok := parseState(data)
		if !ok && v != 0 {
			t.Fatalf("parseState(%q) = %d, false", data, v)
		}
	})
}
