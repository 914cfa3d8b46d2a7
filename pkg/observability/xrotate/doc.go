// Package xrotate 提供多进程安全的日志文件轮转。
//
// 多个互不相识的进程可以同时向同一个日志文件追加记录，并按大小或时间轮转，
// 不丢失、不重复、不交错任何一条记录。进程之间唯一的协调手段是文件系统：
// 一个专用锁文件上的咨询锁（见 xflock），基于改名的轮转，以及保存在锁文件
// 中的"下一次轮转时刻"。
//
// # 实现
//
//   - [NewSize]: 按大小轮转，备份为 app.log.1 … app.log.N，1 最新
//   - [NewTimed]: 按时间轮转（S/M/H/D/MIDNIGHT/W0-W6），同时可按大小触发
//   - [NewFromConfig]: 从 [Config]（koanf 标签）构建上面两者之一
//   - [NewLumberjack]: 基于 lumberjack 的单进程轮转器，不做跨进程协调
//
// 所有实现都满足 [Rotator]，可直接作为 slog 或 xlog 的输出目标。
//
// # 写入流程
//
// 每条记录的写入顺序固定：
//
//  1. 进程内互斥锁串行化 goroutine
//  2. 获取锁文件上的排他锁（有界重试，默认 20 次 × 50ms）
//  3. 保持打开模式下校验句柄是否仍指向当前路径，不一致则关闭
//  4. 询问轮转策略，需要时执行轮转；轮转失败不影响本条记录
//  5. 按需打开文件，编码，写入
//  6. 非保持打开或降级状态下关闭文件
//  7. 释放排他锁，释放互斥锁，最后把收集到的非致命错误交给 OnError
//
// # 锁文件
//
// 锁文件是日志文件的隐藏兄弟文件 ".__<去掉 .log 的文件名>.lock"，也可以用
// [WithLockFileDirectory] 放到别处。锁文件从不删除，打开时从不截断。按时间轮转时
// 其内容是下一次轮转时刻的十进制 Unix 秒数。
//
// # 降级模式
//
// 其他进程持有文件导致改名失败时（Windows 常见），本次轮转推迟并进入降级模式：
// 记录继续写入当前文件，每次写入后关闭文件以便其他进程能完成改名，后续写入
// 重试轮转。降级状态可通过 [Writer.Degraded] 观察。
//
// # 一致性要求
//
// 所有协作进程必须使用相同的轮转参数。参数不一致不会导致崩溃，但轮转结果
// 不可预期。因此本包不提供配置热更新。
//
// # 错误回调
//
// 非致命错误（轮转推迟、压缩失败、权限调整失败等）交给 [WithOnError]。
// 回调在所有锁释放之后执行，回调内向同一 Writer 写入不会死锁；回调 panic 会被
// recover 隔离。
package xrotate
