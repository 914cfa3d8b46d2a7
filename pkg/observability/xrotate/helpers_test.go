package xrotate

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// contendedRetry 多个写入方持续抢锁时的重试预算，单次尝试不阻塞，
// 轮询足够密才能抢到锁的空隙
func contendedRetry() Option {
	return WithLockRetry(100_000, 100*time.Microsecond)
}

// fakeClock 可手动推进的时间源
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// readMaybeGzip 读取文件内容，.gz 文件先解压
func readMaybeGzip(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, gzExt) {
		zr, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	}
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

// logFiles 返回 dir 中除锁文件外的所有文件名（已排序）
func logFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), lockPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// allLines 读取 dir 中所有日志文件（含 .gz 备份）的全部记录
func allLines(t *testing.T, dir string) []string {
	t.Helper()
	var lines []string
	for _, name := range logFiles(t, dir) {
		content := readMaybeGzip(t, filepath.Join(dir, name))
		sc := bufio.NewScanner(bytes.NewBufferString(content))
		sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		require.NoError(t, sc.Err())
	}
	return lines
}

// errorCollector 并发安全地收集 OnError 回调收到的错误
type errorCollector struct {
	mu   sync.Mutex
	errs []error
}

func (c *errorCollector) add(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *errorCollector) all() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}
