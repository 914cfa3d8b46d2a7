package xrotate

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xclog/pkg/util/xfile"
)

// rotationPolicy 轮转策略
//
// 两个方法都在持有锁文件排他锁时调用。
type rotationPolicy interface {
	name() string

	// shouldRotate 返回触发原因，空字符串表示不需要轮转
	shouldRotate(w *Writer) (string, error)

	// rotate 执行一次轮转。返回 ErrRotationDeferred 时 Writer 已进入降级模式。
	rotate(w *Writer, trigger string) error
}

// Writer 多进程安全的轮转写入器
//
// 由 [NewSize]、[NewTimed] 或 [NewFromConfig] 创建。同一进程内的 goroutine
// 由互斥锁串行化，进程之间由锁文件上的排他锁串行化。
type Writer struct {
	path    string
	cfg     config
	policy  rotationPolicy
	locker  *lockCoordinator
	enc     *recordEncoder
	fs      fileSystem
	metrics *rotationMetrics

	// 可注入，仅用于测试
	compress func(fileSystem, string) (string, error)

	mu        sync.Mutex
	file      *os.File
	truncated bool    // ModeTruncate 下是否已完成首次截断
	pending   []error // 持锁期间收集的非致命错误

	closed    atomic.Bool
	degraded  atomic.Bool
	rotations atomic.Int64
}

func newWriter(filename string, cfg config) (*Writer, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	path, err := filepath.Abs(safePath)
	if err != nil {
		return nil, fmt.Errorf("xrotate: resolve %s: %w", safePath, err)
	}
	if err := xfile.EnsureDir(path); err != nil {
		return nil, err
	}

	enc, err := newRecordEncoder(cfg.encoding, cfg.errorPolicy)
	if err != nil {
		return nil, err
	}
	if forceCloseAfterWrite {
		cfg.keepFileOpen = false
	}

	locker, err := newLockCoordinator(path, &cfg)
	if err != nil {
		return nil, err
	}
	m, err := newRotationMetrics(cfg.meterProvider, path)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		path:     path,
		cfg:      cfg,
		locker:   locker,
		enc:      enc,
		fs:       osFS{},
		metrics:  m,
		compress: compressFile,
	}
	locker.warn = w.warn
	return w, nil
}

// Path 返回日志文件的绝对路径
func (w *Writer) Path() string {
	return w.path
}

// LockPath 返回锁文件的绝对路径
func (w *Writer) LockPath() string {
	return w.locker.path
}

// Rotations 返回本进程完成的轮转次数
func (w *Writer) Rotations() int64 {
	return w.rotations.Load()
}

// Degraded 报告是否处于降级模式（上一次轮转因改名失败而推迟）
func (w *Writer) Degraded() bool {
	return w.degraded.Load()
}

// Write 把 p 作为一条记录写入
//
// p 末尾的一个 "\n" 会被替换为配置的终止符。成功时返回 len(p)。
func (w *Writer) Write(p []byte) (int, error) {
	record := p
	if n := len(record); n > 0 && record[n-1] == '\n' {
		record = record[:n-1]
	}
	if err := w.emit(record); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Emit 写入一条已格式化的记录，终止符由 Writer 追加
//
// 只有以下情况返回错误，此时记录未写入：
//   - 获取锁失败（[ErrLockAcquisitionFailed]）
//   - 严格策略下编码失败（[ErrEncoding]）
//   - 打开或写入文件的 I/O 错误
//   - 已关闭（[ErrClosed]）
//
// 轮转失败、压缩失败等非致命错误交给 OnError，不影响本条记录。
func (w *Writer) Emit(record string) error {
	return w.emit([]byte(record))
}

func (w *Writer) emit(record []byte) error {
	if w.closed.Load() {
		return ErrClosed
	}
	data, err := w.enc.encode(record, w.cfg.terminator)
	if err != nil {
		return err
	}

	w.mu.Lock()
	err = w.emitLocked(data)
	pending := w.takePending()
	w.mu.Unlock()

	w.report(pending)
	return err
}

func (w *Writer) emitLocked(data []byte) error {
	if w.closed.Load() {
		return ErrClosed
	}
	if err := w.locker.lock(); err != nil {
		w.metrics.lockFailed()
		return err
	}
	defer w.unlock()

	w.dropStaleHandle()

	trigger, err := w.policy.shouldRotate(w)
	if err != nil {
		w.warn(err)
	} else if trigger != "" {
		w.warn(w.policy.rotate(w, trigger))
	}

	if err := w.open(); err != nil {
		return err
	}
	if _, err := w.file.Write(data); err != nil {
		_ = w.closeFile(false)
		return fmt.Errorf("xrotate: write %s: %w", w.path, err)
	}
	if !w.cfg.keepFileOpen || w.degraded.Load() {
		w.warn(w.closeFile(false))
	}
	return nil
}

// Rotate 立即轮转，不检查触发条件
func (w *Writer) Rotate() error {
	if w.closed.Load() {
		return ErrClosed
	}

	w.mu.Lock()
	err := w.rotateLocked()
	pending := w.takePending()
	w.mu.Unlock()

	w.report(pending)
	return err
}

func (w *Writer) rotateLocked() error {
	if w.closed.Load() {
		return ErrClosed
	}
	if err := w.locker.lock(); err != nil {
		w.metrics.lockFailed()
		return err
	}
	defer w.unlock()
	return w.policy.rotate(w, triggerManual)
}

// Close 关闭日志文件与锁文件。之后的 Write、Rotate 与 Close 返回 [ErrClosed]。
func (w *Writer) Close() error {
	if w.closed.Swap(true) {
		return ErrClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.closeFile(false), w.locker.close())
}

func (w *Writer) unlock() {
	if err := w.locker.unlock(); err != nil {
		w.warn(fmt.Errorf("xrotate: release lock: %w", err))
	}
}

// warn 收集非致命错误，nil 忽略。调用方必须持有 w.mu。
func (w *Writer) warn(err error) {
	if err != nil {
		w.pending = append(w.pending, err)
	}
}

func (w *Writer) takePending() []error {
	pending := w.pending
	w.pending = nil
	return pending
}

// report 在所有锁释放后上报
//
// 回调 panic 被 recover 隔离，避免错误通知反向中断写入方。
func (w *Writer) report(errs []error) {
	if w.cfg.onError == nil {
		return
	}
	for _, err := range errs {
		func() {
			defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
			w.cfg.onError(err)
		}()
	}
}

// dropStaleHandle 保持打开的句柄如果已不再指向 path（其他进程轮转过），关闭它
func (w *Writer) dropStaleHandle() {
	if w.file == nil {
		return
	}
	same, err := xfile.SameFile(w.file, w.path)
	if err == nil && same {
		return
	}
	w.warn(err)
	w.warn(w.closeFile(false))
}

// open 按需打开日志文件
func (w *Writer) open() error {
	if w.file != nil {
		return nil
	}
	flag := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if w.cfg.mode == ModeTruncate && !w.truncated {
		flag |= os.O_TRUNC
	}
	created := !exists(w.fs, w.path)

	//#nosec G304 -- 路径已经过 SanitizePath
	f, err := os.OpenFile(w.path, flag, w.cfg.createPerm())
	if err != nil {
		return fmt.Errorf("xrotate: open %s: %w", w.path, err)
	}
	w.file = f
	w.truncated = true
	if created {
		w.warn(applyCreatedPerm(w.path, w.cfg.createPerm(), w.cfg.chmod, w.cfg.owner))
	}
	return nil
}

// closeFile 关闭日志文件句柄，sync 为 true 时先 fsync
func (w *Writer) closeFile(sync bool) error {
	if w.file == nil {
		return nil
	}
	var err error
	if sync {
		err = w.file.Sync()
	}
	err = errors.Join(err, w.file.Close())
	w.file = nil
	if err != nil {
		return fmt.Errorf("xrotate: close %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) now() time.Time {
	return w.cfg.now()
}

// truncateActive 原地截断日志文件
func (w *Writer) truncateActive() error {
	//#nosec G304 -- 路径已经过 SanitizePath
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, w.cfg.createPerm())
	if err != nil {
		return fmt.Errorf("xrotate: truncate %s: %w", w.path, err)
	}
	return f.Close()
}

func (w *Writer) tempName() string {
	return fmt.Sprintf("%s.rotate.%016x", w.path, rand.Uint64())
}

// moveAside 把日志文件改名为临时文件
//
// 日志文件不存在时 moved 为 false。改名被拒绝时进入降级模式并返回
// [ErrRotationDeferred]。
func (w *Writer) moveAside() (tmp string, moved bool, err error) {
	if !exists(w.fs, w.path) {
		return "", false, nil
	}
	tmp = w.tempName()
	for exists(w.fs, tmp) {
		tmp = w.tempName()
	}
	if err := w.fs.Rename(w.path, tmp); err != nil {
		w.degraded.Store(true)
		w.metrics.deferredRotation()
		return "", false, fmt.Errorf("%w: rename %s: %w", ErrRotationDeferred, w.path, err)
	}
	return tmp, true, nil
}

// compressBackup 按配置压缩 src，返回最终存在的文件名
func (w *Writer) compressBackup(src string) string {
	if !w.cfg.gzip {
		return src
	}
	dst, err := w.compress(w.fs, src)
	if err != nil {
		w.warn(err)
		w.metrics.compressFailed()
	}
	return dst
}

// place 把 from 改名为 dst+ext，先删除 dst 的明文与压缩两种形式
func (w *Writer) place(from, dst string) error {
	ext := ""
	if strings.HasSuffix(from, gzExt) {
		ext = gzExt
	}
	if err := removeIfExists(w.fs, dst); err != nil {
		return fmt.Errorf("xrotate: remove %s: %w", dst, err)
	}
	if err := removeIfExists(w.fs, dst+gzExt); err != nil {
		return fmt.Errorf("xrotate: remove %s: %w", dst+gzExt, err)
	}
	if err := w.fs.Rename(from, dst+ext); err != nil {
		return fmt.Errorf("xrotate: rename %s -> %s: %w", from, dst+ext, err)
	}
	return nil
}

// rotated 记录一次完成的轮转
func (w *Writer) rotated(policy, trigger string) {
	w.rotations.Add(1)
	w.degraded.Store(false)
	w.metrics.rotated(policy, trigger)
}
