package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/omeyang/xclog/pkg/util/xfile"
	"github.com/omeyang/xclog/pkg/util/xflock"
)

// Status 日志文件在某一时刻的状态快照
type Status struct {
	// Path 日志文件绝对路径
	Path string

	// LockPath 锁文件绝对路径
	LockPath string

	// Size 日志文件大小，不存在时为 0
	Size int64

	// NextRotation 锁文件中持久化的下一次轮转时刻，没有时为零值
	NextRotation time.Time

	// Backups 同目录下以 "<文件名>." 开头的文件（备份与轮转临时文件），按名称排序
	Backups []string
}

// ReadLocked 在锁文件共享锁保护下读取 filename 的全部内容
//
// 写入方持有排他锁，因此读到的内容不会包含写了一半的记录，也不会与轮转交错。
// 锁文件不存在（从未有写入方）时直接读取。opts 中只有 [WithLockFileDirectory]
// 与 [WithLockRetry] 生效。
func ReadLocked(filename string, opts ...Option) ([]byte, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	path, err := absPath(filename)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = withSharedLock(path, &cfg, func() error {
		var readErr error
		//#nosec G304 -- 路径已经过 SanitizePath
		data, readErr = os.ReadFile(path)
		return readErr
	})
	return data, err
}

// Inspect 在共享锁保护下读取日志文件的状态
func Inspect(filename string, opts ...Option) (Status, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	path, err := absPath(filename)
	if err != nil {
		return Status{}, err
	}
	lockPath, err := LockFilePath(path, cfg.lockDir)
	if err != nil {
		return Status{}, err
	}

	st := Status{Path: path, LockPath: lockPath}
	err = withSharedLock(path, &cfg, func() error {
		size, err := xfile.Size(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		st.Size = size

		if raw, err := os.ReadFile(lockPath); err == nil {
			if next, ok := parseState(raw); ok {
				st.NextRotation = time.Unix(next, 0)
			}
		}

		st.Backups, err = listSiblings(path)
		return err
	})
	return st, err
}

func absPath(filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}
	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return "", err
	}
	return filepath.Abs(safePath)
}

// withSharedLock 以非阻塞共享锁加有界重试的方式保护 fn
func withSharedLock(path string, cfg *config, fn func() error) error {
	lockPath, err := LockFilePath(path, cfg.lockDir)
	if err != nil {
		return err
	}
	//#nosec G304 -- 锁文件路径由日志路径派生
	f, err := os.Open(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fn()
	}
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrLockAcquisitionFailed, lockPath, err)
	}
	defer f.Close()

	err = retry.New(
		retry.Attempts(cfg.lockAttempts),
		retry.Delay(cfg.lockDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isLockBusy),
	).Do(func() error {
		return xflock.TryLock(f, xflock.Shared)
	})
	if err != nil {
		return fmt.Errorf("%w: shared lock %s: %w", ErrLockAcquisitionFailed, lockPath, err)
	}
	defer func() { _ = xflock.Unlock(f) }()

	return fn()
}

func listSiblings(path string) ([]string, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("xrotate: list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}
