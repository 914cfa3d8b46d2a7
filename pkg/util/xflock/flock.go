package xflock

import (
	"fmt"
	"os"
	"strings"
)

// Mode 加锁模式，按位组合。
type Mode uint8

const (
	// Exclusive 排他锁，同一时刻只能有一个句柄持有。
	Exclusive Mode = 1 << iota

	// Shared 共享锁，可被多个句柄同时持有，与排他锁互斥。
	Shared

	// NonBlocking 锁被占用时立即返回 [ErrWouldBlock] 而不是等待。
	NonBlocking
)

// String 返回模式的可读形式，如 "exclusive|nonblocking"。
func (m Mode) String() string {
	var parts []string
	if m&Exclusive != 0 {
		parts = append(parts, "exclusive")
	}
	if m&Shared != 0 {
		parts = append(parts, "shared")
	}
	if m&NonBlocking != 0 {
		parts = append(parts, "nonblocking")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

func (m Mode) validate() error {
	kind := m & (Exclusive | Shared)
	if kind != Exclusive && kind != Shared {
		return fmt.Errorf("%w: got %s", ErrInvalidMode, m)
	}
	if m&^(Exclusive|Shared|NonBlocking) != 0 {
		return fmt.Errorf("%w: unknown bits %#x", ErrInvalidMode, uint8(m))
	}
	return nil
}

// Lock 按 mode 在 f 上获取咨询锁。
//
// 阻塞模式下等待直到获得锁；被信号中断时自动重试。
// 非阻塞模式下锁被占用返回 [ErrWouldBlock]。
func Lock(f *os.File, mode Mode) error {
	if f == nil {
		return ErrNilFile
	}
	if err := mode.validate(); err != nil {
		return err
	}
	return lock(f, mode)
}

// TryLock 等价于 Lock(f, mode|NonBlocking)。
func TryLock(f *os.File, mode Mode) error {
	return Lock(f, mode|NonBlocking)
}

// Unlock 释放 f 上持有的锁。对未加锁的句柄调用不报错。
func Unlock(f *os.File) error {
	if f == nil {
		return ErrNilFile
	}
	return unlock(f)
}
