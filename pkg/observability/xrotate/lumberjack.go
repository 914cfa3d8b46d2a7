package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xclog/pkg/util/xfile"
)

const (
	megabyte = 1 << 20

	// maxLumberjackMB lumberjack 的单文件上限（10 GB），MaxBytes 为 0 时也使用此值
	maxLumberjackMB = 10240
)

// lumberjackRotator 单进程轮转器
//
// 只适用于一个进程独占日志文件的场景：lumberjack 不做任何跨进程协调，
// 多个进程同时使用会互相覆盖备份。备份名带时间戳，由 lumberjack 管理。
type lumberjackRotator struct {
	logger  *lumberjack.Logger
	path    string
	perm    os.FileMode // chmod 为 false 时不调整
	chmod   bool
	onError func(error)
	mu      sync.Mutex

	closed atomic.Bool

	// 累计写入超过 maxBytes 说明 lumberjack 可能已自动轮转出新文件，需要重新检查权限
	modeApplied  atomic.Bool
	maxBytes     int64
	bytesWritten atomic.Int64

	// 可注入，仅用于测试
	statFn  func(string) (os.FileInfo, error)
	chmodFn func(string, os.FileMode) error
}

// NewLumberjack 创建基于 lumberjack 的单进程按大小轮转器
//
// 与 [NewSize] 共用选项，映射关系：
//   - [WithMaxBytes]: 向上取整到 MB；0 表示使用上限 10 GB（lumberjack 无法关闭大小轮转）
//   - [WithBackupCount]: lumberjack 的 MaxBackups，0 表示全部保留
//   - [WithGzip]: 压缩备份
//   - [WithUTC]: 备份名使用 UTC 时间
//   - [WithFileMode] / [WithUmask]: 新文件创建后 chmod
//   - [WithOnError]: 权限调整失败的回调
//
// 其余选项（锁、编码、时间轮转）不适用，会被忽略。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg := defaultConfig()
	cfg.apply(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	mb := int((cfg.maxBytes + megabyte - 1) / megabyte)
	if cfg.maxBytes == 0 {
		mb = maxLumberjackMB
	}
	if mb > maxLumberjackMB {
		return nil, fmt.Errorf("%w: got %d bytes, want 0~%d MB", ErrInvalidMaxSize, cfg.maxBytes, maxLumberjackMB)
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    mb,
			MaxBackups: cfg.backupCount,
			Compress:   cfg.gzip,
			LocalTime:  !cfg.utc,
		},
		path:     safePath,
		perm:     cfg.createPerm(),
		chmod:    cfg.chmod,
		onError:  cfg.onError,
		maxBytes: int64(mb) * megabyte,
	}, nil
}

// Write 实现 io.Writer
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil {
		// Close 可能在 logger.Write 期间完成，统一返回 ErrClosed
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, err
	}

	if r.chmod {
		check := !r.modeApplied.Load()
		if !check && r.bytesWritten.Add(int64(n)) >= r.maxBytes {
			check = true
		}
		if check {
			r.reportError(r.ensureFileMode())
		}
	}
	return n, nil
}

// ensureFileMode lumberjack 以 0600 创建文件，需要时调整为配置的权限
func (r *lumberjackRotator) ensureFileMode() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stat := r.statFn
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	if info.Mode().Perm() != r.perm {
		chmod := r.chmodFn
		if chmod == nil {
			chmod = os.Chmod
		}
		//#nosec G302 -- 权限由调用方配置决定
		if err := chmod(r.path, r.perm); err != nil {
			return fmt.Errorf("xrotate: chmod %s: %w", r.path, err)
		}
	}
	r.modeApplied.Store(true)
	r.bytesWritten.Store(0)
	return nil
}

func (r *lumberjackRotator) reportError(err error) {
	if err != nil && r.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.onError(err)
	}
}

// Close 实现 io.Closer，重复调用返回 [ErrClosed]
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

// Rotate 手动轮转
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	if r.chmod {
		r.modeApplied.Store(false)
		r.bytesWritten.Store(0)
		r.reportError(r.ensureFileMode())
	}
	return nil
}
