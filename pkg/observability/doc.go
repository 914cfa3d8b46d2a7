// Package observability 提供日志相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，写入失败交给错误回调
//   - xrotate: 多进程安全的日志文件轮转，按大小或按时间
//
// 设计原则：
//   - 多个进程写同一个文件时，记录不交错、不丢失
//   - 轮转指标遵循 OpenTelemetry 语义规范
package observability
