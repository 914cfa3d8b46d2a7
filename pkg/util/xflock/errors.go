package xflock

import "errors"

var (
	// ErrWouldBlock 非阻塞模式下锁已被其他句柄持有。
	ErrWouldBlock = errors.New("xflock: lock is held by another handle")

	// ErrUnsupportedPlatform 当前平台没有可用的文件锁实现。
	ErrUnsupportedPlatform = errors.New("xflock: file locking is not supported on this platform")

	// ErrNilFile 传入的文件句柄为 nil。
	ErrNilFile = errors.New("xflock: file handle is nil")

	// ErrInvalidMode Exclusive 与 Shared 必须且只能指定一个。
	ErrInvalidMode = errors.New("xflock: exactly one of Exclusive or Shared is required")
)
