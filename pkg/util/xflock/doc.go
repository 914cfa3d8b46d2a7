// Package xflock 提供跨进程的文件咨询锁原语。
//
// 锁作用在一个已打开的 [os.File] 上，由操作系统在进程之间仲裁：
//
//   - Linux / BSD / macOS: flock(2)，锁归属于打开文件描述（open file description）
//   - Windows: LockFileEx，锁定整个文件的最大字节范围
//   - 其他平台: 返回 [ErrUnsupportedPlatform]
//
// # 语义
//
// 同一进程内两次独立打开同一路径得到的两个句柄，彼此之间也互斥，这与两个
// 进程之间的行为一致，因此进程内测试即可覆盖跨进程场景。
// 关闭句柄（包括进程退出）会释放其持有的锁。
//
// 锁是咨询性的：不配合加锁的写入者不受约束。
//
// # 模式
//
//	xflock.Lock(f, xflock.Exclusive)                    // 阻塞获取排他锁
//	xflock.Lock(f, xflock.Shared)                       // 阻塞获取共享锁
//	xflock.Lock(f, xflock.Exclusive|xflock.NonBlocking) // 已被占用时返回 ErrWouldBlock
//
// 阻塞获取可能长时间不返回，需要超时的调用方应使用 [xflock.NonBlocking] 配合重试。
package xflock
