package xrotate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/omeyang/xclog/pkg/util/xfile"
	"github.com/omeyang/xclog/pkg/util/xflock"
)

const (
	lockPrefix = ".__"
	lockExt    = ".lock"

	// maxStateLen 锁文件内容上限，int64 十进制最多 20 个字符
	maxStateLen = 64
)

// LockFilePath 返回日志文件 path 对应的锁文件路径
//
// 锁文件名为 ".__" + 去掉 ".log" 后缀的文件名 + ".lock"，位于 path 所在目录，
// lockDir 非空时位于 lockDir。
func LockFilePath(path, lockDir string) (string, error) {
	name := lockPrefix + strings.TrimSuffix(filepath.Base(path), ".log") + lockExt
	if lockDir == "" {
		return filepath.Join(filepath.Dir(path), name), nil
	}
	return xfile.SafeJoin(lockDir, name)
}

// lockCoordinator 管理锁文件句柄与其上的排他锁
//
// 不是并发安全的，由 Writer 的互斥锁保护。
type lockCoordinator struct {
	path     string
	keepOpen bool
	perm     os.FileMode
	chmod    bool
	owner    Owner
	attempts uint
	delay    time.Duration

	f     *os.File
	depth int

	// warn 接收非致命错误，由 Writer 在释放锁之后统一上报
	warn func(error)

	// 可注入，仅用于测试
	lockFn   func(*os.File, xflock.Mode) error
	unlockFn func(*os.File) error
}

func newLockCoordinator(target string, cfg *config) (*lockCoordinator, error) {
	path, err := LockFilePath(target, cfg.lockDir)
	if err != nil {
		return nil, err
	}
	if cfg.lockDir != "" {
		if err := xfile.MkdirAll(filepath.Dir(path), xfile.DefaultDirPerm); err != nil {
			return nil, fmt.Errorf("xrotate: create lock directory: %w", err)
		}
	}
	return &lockCoordinator{
		path:     path,
		keepOpen: cfg.keepLockFileOpen,
		perm:     cfg.createPerm(),
		chmod:    cfg.chmod,
		owner:    cfg.owner,
		attempts: cfg.lockAttempts,
		delay:    cfg.lockDelay,
		warn:     func(error) {},
		lockFn:   xflock.Lock,
		unlockFn: xflock.Unlock,
	}, nil
}

// held 当前是否持有锁
func (c *lockCoordinator) held() bool {
	return c.depth > 0
}

// open 打开锁文件，从不截断
func (c *lockCoordinator) open() error {
	if c.f != nil {
		return nil
	}
	created := !xfile.Exists(c.path)
	//#nosec G304 -- 锁文件路径由日志路径派生
	f, err := os.OpenFile(c.path, os.O_RDWR|os.O_CREATE, c.perm)
	if err != nil {
		return err
	}
	c.f = f
	if created {
		if err := applyCreatedPerm(c.path, c.perm, c.chmod, c.owner); err != nil {
			c.warn(err)
		}
	}
	return nil
}

// lock 获取排他锁。已持有时只增加深度。
func (c *lockCoordinator) lock() error {
	if c.depth > 0 {
		c.depth++
		return nil
	}

	if err := c.open(); err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrLockAcquisitionFailed, c.path, err)
	}

	// 非阻塞加锁，只有锁被占用时才重试，其他错误立即失败
	err := retry.New(
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isLockBusy),
	).Do(func() error {
		return c.lockFn(c.f, xflock.Exclusive|xflock.NonBlocking)
	})
	if err != nil {
		// 丢弃句柄，下次重新打开
		_ = c.closeHandle()
		if isLockBusy(err) {
			return fmt.Errorf("%w: %s still held after %d attempts: %w", ErrLockAcquisitionFailed, c.path, c.attempts, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrLockAcquisitionFailed, c.path, err)
	}

	c.depth = 1
	return nil
}

func isLockBusy(err error) bool {
	return errors.Is(err, xflock.ErrWouldBlock)
}

// unlock 减少深度，归零时释放锁；未配置保持打开时同时关闭句柄
func (c *lockCoordinator) unlock() error {
	if c.depth == 0 {
		return nil
	}
	c.depth--
	if c.depth > 0 {
		return nil
	}
	err := c.unlockFn(c.f)
	if !c.keepOpen || err != nil {
		err = errors.Join(err, c.closeHandle())
	}
	return err
}

// close 无论深度与保持打开设置，释放锁并关闭句柄
func (c *lockCoordinator) close() error {
	if c.f == nil {
		c.depth = 0
		return nil
	}
	var err error
	if c.depth > 0 {
		err = c.unlockFn(c.f)
	}
	c.depth = 0
	return errors.Join(err, c.closeHandle())
}

func (c *lockCoordinator) closeHandle() error {
	if c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil
	return err
}

// readState 读取持久化的下一次轮转时刻（Unix 秒）。必须持有锁。
//
// 内容为空或不是十进制整数时 ok 为 false。
func (c *lockCoordinator) readState() (next int64, ok bool, err error) {
	if !c.held() {
		return 0, false, errors.New("xrotate: readState without lock")
	}
	data := make([]byte, maxStateLen)
	n, err := c.f.ReadAt(data, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, false, fmt.Errorf("xrotate: read lock state %s: %w", c.path, err)
	}
	next, ok = parseState(data[:n])
	return next, ok, nil
}

// writeState 覆盖持久化的下一次轮转时刻并 fsync。必须持有锁。
func (c *lockCoordinator) writeState(next int64) error {
	if !c.held() {
		return errors.New("xrotate: writeState without lock")
	}
	if err := c.f.Truncate(0); err != nil {
		return fmt.Errorf("xrotate: truncate lock state %s: %w", c.path, err)
	}
	if _, err := c.f.WriteAt([]byte(strconv.FormatInt(next, 10)), 0); err != nil {
		return fmt.Errorf("xrotate: write lock state %s: %w", c.path, err)
	}
	if err := c.f.Sync(); err != nil {
		return fmt.Errorf("xrotate: sync lock state %s: %w", c.path, err)
	}
	return nil
}

func parseState(data []byte) (int64, bool) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
