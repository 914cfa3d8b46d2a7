//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package xflock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// 系统调用函数变量，测试中替换以覆盖 EINTR 与错误路径。
// 替换它的测试不可使用 t.Parallel()。
var flock = unix.Flock

func lock(f *os.File, mode Mode) error {
	how := unix.LOCK_EX
	if mode&Shared != 0 {
		how = unix.LOCK_SH
	}
	if mode&NonBlocking != 0 {
		how |= unix.LOCK_NB
	}
	return call(f, how, mode)
}

func unlock(f *os.File) error {
	return call(f, unix.LOCK_UN, 0)
}

func call(f *os.File, how int, mode Mode) error {
	fd := int(f.Fd())
	for {
		err := flock(fd, how)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case mode&NonBlocking != 0 && (errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)):
			return ErrWouldBlock
		default:
			return fmt.Errorf("xflock: flock %s (%s): %w", f.Name(), mode, err)
		}
	}
}
