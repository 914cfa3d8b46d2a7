package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口
//
// 所有方法都接收 context.Context，由 Handler 决定是否使用。
// 属性只接受 slog.Attr，不做隐式 key-value 转换。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 记录 Error 级别日志，并附带当前 goroutine 的调用栈
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger，与父级共享级别和错误回调
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger
	WithGroup(name string) Logger
}

// Leveler 运行时级别控制
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level

	// Enabled 报告 level 是否会被输出，用于跳过昂贵的参数构造
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel Build 的返回类型
type LoggerWithLevel interface {
	Logger
	Leveler
}
