// Package xlog 基于 log/slog 的结构化日志，输出可以接到 xrotate 的多进程轮转文件。
//
// # 创建 Logger
//
// 使用 Builder（遇到第一个配置错误后后续 Set 不再生效，错误在 Build 时返回）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/app.log",
//			xrotate.WithMaxBytes(100<<20),
//			xrotate.WithBackupCount(5),
//		).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// 轮转方式：[Builder.SetRotation]（按大小）、[Builder.SetRotationConfig]
// （按 xrotate.Config，可按时间）、[Builder.SetLumberjack]（单进程）、
// [Builder.SetRotator]（自行创建的轮转器）。轮转器在 Build 时创建，
// cleanup 负责关闭。
//
// 多个进程写同一个文件时，用 SetAttrs([Process]()) 给每条记录带上 pid 与进程名。
//
// # 写入失败
//
// slog 不处理 Handler.Handle 返回的错误。[Handler] 把失败的记录和错误一起交给
// [ErrorHook]，自身总是返回 nil，日志写不进去不会中断调用方，也不会 panic。
// 默认回调 [StderrErrors] 打印到标准错误，[DropErrors] 只计数。
//
// 只使用标准库 slog 时，用 [NewHandler] 包装任意 slog.Handler 即可。
//
// # Registry
//
// [Registry] 按名称持有多个轮转器，[Registry.Stop] 按注册逆序关闭。
// 包内没有全局 Logger 或全局 Registry。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，[ParseLevel] 还接受
// "INFO+2" 这样的偏移写法。派生 Logger（With、WithGroup）与父级共享 LevelVar。
package xlog
