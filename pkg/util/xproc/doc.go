// Package xproc 提供当前进程的标识，用于区分多个进程写入同一日志文件的记录。
//
// [Current] 返回进程 ID 与进程名；[Identity] 实现 [slog.LogValuer]，
// 作为日志属性时展开为 pid 与 name 两个字段:
//
//	logger.Info(ctx, "started", slog.Any("process", xproc.Current()))
//	// process.pid=4242 process.name=billing
package xproc
