//go:build windows

package xflock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// 锁定整个文件可能达到的字节范围
const allBytes = ^uint32(0)

func lock(f *os.File, mode Mode) error {
	var flags uint32
	if mode&Exclusive != 0 {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	if mode&NonBlocking != 0 {
		flags |= windows.LOCKFILE_FAIL_IMMEDIATELY
	}

	err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, allBytes, allBytes, new(windows.Overlapped))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, windows.ERROR_LOCK_VIOLATION), errors.Is(err, windows.ERROR_IO_PENDING):
		return ErrWouldBlock
	default:
		return fmt.Errorf("xflock: LockFileEx %s (%s): %w", f.Name(), mode, err)
	}
}

func unlock(f *os.File) error {
	err := windows.UnlockFileEx(windows.Handle(f.Fd()), 0, allBytes, allBytes, new(windows.Overlapped))
	if err == nil || errors.Is(err, windows.ERROR_NOT_LOCKED) {
		return nil
	}
	return fmt.Errorf("xflock: UnlockFileEx %s: %w", f.Name(), err)
}
