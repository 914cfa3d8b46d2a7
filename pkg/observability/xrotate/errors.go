package xrotate

import "errors"

// 运行期错误
var (
	// ErrLockAcquisitionFailed 重试预算耗尽仍未获得锁文件上的排他锁。
	// 当前记录未写入。
	ErrLockAcquisitionFailed = errors.New("xrotate: cannot acquire lock")

	// ErrRotationDeferred 改名被拒绝（通常是其他进程持有文件），轮转推迟并进入降级模式。
	// 非致命，记录仍然写入当前文件。
	ErrRotationDeferred = errors.New("xrotate: rotation deferred")

	// ErrCompressFailed 轮转后的 gzip 压缩失败，备份以未压缩形式保留。
	ErrCompressFailed = errors.New("xrotate: compression failed")

	// ErrEncoding 严格编码策略下记录无法用目标字符集表示。
	ErrEncoding = errors.New("xrotate: record cannot be encoded")

	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")
)

// 配置校验错误
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxBytes MaxBytes 为负数
	ErrInvalidMaxBytes = errors.New("xrotate: invalid MaxBytes")

	// ErrInvalidBackupCount BackupCount 超出 0~maxBackupCount
	ErrInvalidBackupCount = errors.New("xrotate: invalid BackupCount")

	// ErrInvalidWhen 未知的时间单位
	ErrInvalidWhen = errors.New("xrotate: invalid rotation unit")

	// ErrInvalidInterval 时间间隔倍数必须 >= 1
	ErrInvalidInterval = errors.New("xrotate: invalid interval")

	// ErrInvalidFileMode FileMode 或 Umask 包含非权限位（仅允许 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrInvalidErrorPolicy 未知的编码错误策略
	ErrInvalidErrorPolicy = errors.New("xrotate: invalid unicode error policy")

	// ErrInvalidAtTime 一天内的时刻越界
	ErrInvalidAtTime = errors.New("xrotate: invalid AtTime")

	// ErrInvalidSuffix 备份后缀的 strftime 模式无效
	ErrInvalidSuffix = errors.New("xrotate: invalid suffix pattern")

	// ErrUnknownEncoding 无法识别的字符集名称
	ErrUnknownEncoding = errors.New("xrotate: unknown encoding")

	// ErrInvalidMode 未知的打开模式
	ErrInvalidMode = errors.New("xrotate: invalid open mode")

	// ErrInvalidLockRetry 锁重试次数必须 >= 1，间隔不能为负
	ErrInvalidLockRetry = errors.New("xrotate: invalid lock retry budget")

	// ErrInvalidMaxSize 单进程轮转器的 MaxBytes 超出 lumberjack 可表达范围
	ErrInvalidMaxSize = errors.New("xrotate: invalid max size for lumberjack")
)
