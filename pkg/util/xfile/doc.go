// Package xfile 提供日志文件落盘所需的文件系统工具。
//
// 本包只收录多进程日志写入真正用到的几类操作：
//
//   - 路径净化：[SanitizePath] 拒绝空路径、空字节、相对路径穿越和目录路径
//   - 受限拼接：[SafeJoin] 保证结果落在指定目录内（锁文件目录即依赖此函数）
//   - 目录创建：[EnsureDir] / [EnsureDirWithPerm] 创建父目录，容忍并发创建竞争
//   - 文件身份：[SameFile] 判断已打开句柄与路径是否仍指向同一文件
//   - 文件大小：[Size] 优先 stat，失败时退化为打开后 seek 到末尾
//
// # 路径穿越检测
//
// 只有 ".." 作为独立路径段时才视为穿越，"app..2024.log" 这类文件名合法：
//
//	SafeJoin("/var/log", "..config")      // 合法 -> "/var/log/..config"
//	SafeJoin("/var/log", "../etc/passwd") // 拒绝 -> ErrPathTraversal
//
// # 并发与多进程
//
// 多个进程可能同时为同一日志创建父目录或锁目录。[EnsureDirWithPerm] 把
// "目录已存在"视为成功，即使该目录是另一进程在检查与创建之间抢先建好的。
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	_, err := xfile.SanitizePath("../etc/passwd")
//	if errors.Is(err, xfile.ErrPathTraversal) {
//	    // 处理路径穿越
//	}
package xfile
