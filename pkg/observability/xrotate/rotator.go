package xrotate

import "io"

// 编译时断言
var (
	_ io.WriteCloser = (Rotator)(nil)
	_ Rotator        = (*Writer)(nil)
)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接用作 slog Handler 或 xlog 的输出目标。
// 每次 Write 视为一条完整记录。所有实现都必须是并发安全的。
//
// 实现约定：
//   - Close 后调用 Write 或 Rotate 返回 [ErrClosed]
//   - 重复 Close 返回 [ErrClosed]
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入一条记录，满足轮转条件时先轮转
	Write(p []byte) (n int, err error)

	// Close 关闭轮转器，释放文件句柄与锁
	Close() error

	// Rotate 立即轮转
	Rotate() error
}
