package xlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// ErrorHook 处理一条写入失败的记录
//
// r 是未能写出的记录，err 是底层 Handler 返回的错误（例如
// xrotate.ErrLockAcquisitionFailed）。回调在写日志的 goroutine 上同步执行。
// 在回调里继续写日志时应传入收到的 ctx，同一条链路上的再次失败只计数不回调。
type ErrorHook func(ctx context.Context, r slog.Record, err error)

// maxActiveHooks 同时执行中的回调上限，超出的失败只计数。
// 回调用新的 ctx 写回同一个 Handler 时，递归深度也受它限制。
const maxActiveHooks = 256

// errorOutput StderrErrors 的输出目标，测试时替换
var errorOutput io.Writer = os.Stderr

// StderrErrors 默认回调，把失败的记录摘要打印到标准错误
func StderrErrors(_ context.Context, r slog.Record, err error) {
	_, _ = fmt.Fprintf(errorOutput, "xlog: dropped %s record %q: %v\n", r.Level, r.Message, err)
}

// DropErrors 丢弃写入失败，只计入 [Handler.ErrorCount]
func DropErrors(context.Context, slog.Record, error) {}

type inHookKey struct{}

// hookState 在派生 Handler 之间共享
type hookState struct {
	hook   ErrorHook
	errors atomic.Uint64
	active atomic.Int32
}

// Handler 包装另一个 slog.Handler，把写入失败交给 ErrorHook
//
// Handle 总是返回 nil：失败的记录连同错误一起交给回调，调用方不会因为
// 日志写不进去而中断，也不会 panic。
//
// 以下失败只计入 [Handler.ErrorCount]，不调用回调：
//   - 回调内用收到的 ctx 再次写日志时的失败
//   - 已有 256 个回调正在执行时的失败（所有派生 Handler 合计）
type Handler struct {
	inner slog.Handler
	state *hookState
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler 包装 inner，hook 为 nil 时使用 [StderrErrors]
//
//	w, _ := xrotate.NewSize("/var/log/app.log", xrotate.WithMaxBytes(64<<20))
//	h := xlog.NewHandler(slog.NewJSONHandler(w, nil), xlog.DropErrors)
//	slog.New(h).Info("started")
func NewHandler(inner slog.Handler, hook ErrorHook) *Handler {
	if hook == nil {
		hook = StderrErrors
	}
	return &Handler{inner: inner, state: &hookState{hook: hook}}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		h.state.report(ctx, r, err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &Handler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{inner: h.inner.WithGroup(name), state: h.state}
}

// ErrorCount 写入失败的累计次数，包含回调 panic，派生 Handler 共享计数
func (h *Handler) ErrorCount() uint64 {
	return h.state.errors.Load()
}

func (s *hookState) report(ctx context.Context, r slog.Record, err error) {
	s.errors.Add(1)
	if ctx != nil && ctx.Value(inHookKey{}) != nil {
		return
	}
	if s.active.Add(1) > maxActiveHooks {
		s.active.Add(-1)
		return
	}
	defer s.active.Add(-1)

	if ctx == nil {
		ctx = context.Background()
	}
	s.call(context.WithValue(ctx, inHookKey{}, struct{}{}), r, err)
}

// call 隔离回调 panic，panic 计入错误次数
func (s *hookState) call(ctx context.Context, r slog.Record, err error) {
	defer func() {
		if recover() != nil {
			s.errors.Add(1)
		}
	}()
	s.hook(ctx, r.Clone(), err)
}
