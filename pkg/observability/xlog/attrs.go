package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xclog/pkg/util/xproc"
)

// 常用属性 key
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"

	// KeyPath 日志文件路径
	KeyPath = "path"

	// KeyRotator Registry 中轮转器的名称
	KeyRotator = "rotator"

	// KeyProcess 写入进程，展开为 process.pid 与 process.name
	KeyProcess = "process"
)

// Err 错误属性，err 为 nil 时返回空属性（slog 会忽略）
//
//	if err := w.Rotate(); err != nil {
//	    logger.Error(ctx, "rotate failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 人类可读的耗时，如 "1m30s"
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

func Rotator(name string) slog.Attr {
	return slog.String(KeyRotator, name)
}

// Process 当前进程的标识。多个进程写同一个文件时用于区分记录来源:
//
//	xlog.New().SetRotationConfig(cfg).SetAttrs(xlog.Process())
func Process() slog.Attr {
	return slog.Any(KeyProcess, xproc.Current())
}
