package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

var (
	_ Logger          = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

const (
	initialStackSize = 4096
	maxStackSize     = 64 * 1024
)

var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

type xlogger struct {
	handler   *Handler
	levelVar  *slog.LevelVar
	addSource bool
}

// Handler 返回底层 slog.Handler，便于交给 slog.New 或第三方库
func (l *xlogger) Handler() slog.Handler {
	return l.handler
}

// ErrorCount 写入失败次数，With/WithGroup 派生的 logger 共享
func (l *xlogger) ErrorCount() uint64 {
	return l.handler.ErrorCount()
}

// log 调用链：业务代码 → Debug/Info/… → log → callerPC
//
//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if !l.handler.Enabled(ctx, level) {
		return
	}
	l.emit(ctx, level, msg, attrs, l.callerPC(4))
}

// callerPC skip 与 runtime.Callers 相同（0 为 Callers 自身，1 为 callerPC）；
// 未开启 AddSource 时不取调用栈
//
//go:noinline
func (l *xlogger) callerPC(skip int) uintptr {
	if !l.addSource {
		return 0
	}
	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])
	return pcs[0]
}

func (l *xlogger) emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, pc uintptr) {
	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	_ = l.handler.Handle(ctx, r)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

// Stack 调用栈超过缓冲区时翻倍重试，最多 64KB
//
//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}

	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}
	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}
	// 先拷贝再归还，未扩容时 buf 与池中缓冲区共享底层数组
	stack := slog.String(KeyStack, string(buf[:n]))
	stackPool.Put(bufp)

	all := make([]slog.Attr, 0, len(attrs)+1)
	all = append(all, attrs...)
	all = append(all, stack)
	l.emit(ctx, slog.LevelError, msg, all, l.callerPC(3))
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	h, _ := l.handler.WithAttrs(attrs).(*Handler)
	return &xlogger{handler: h, levelVar: l.levelVar, addSource: l.addSource}
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	h, _ := l.handler.WithGroup(name).(*Handler)
	return &xlogger{handler: h, levelVar: l.levelVar, addSource: l.addSource}
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}
