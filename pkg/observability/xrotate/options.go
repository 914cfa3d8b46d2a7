package xrotate

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// 默认配置值
const (
	// DefaultTerminator 默认记录终止符
	DefaultTerminator = "\n"

	// DefaultFileMode 新建日志文件的默认权限（仍受进程 umask 影响）
	DefaultFileMode os.FileMode = 0o644

	// DefaultLockAttempts 获取排他锁的默认尝试次数
	DefaultLockAttempts = 20

	// DefaultLockDelay 两次尝试之间的默认间隔
	DefaultLockDelay = 50 * time.Millisecond

	// DefaultErrorPolicy 默认编码错误策略
	DefaultErrorPolicy = ErrorPolicyIgnore

	// maxBackupCount 备份数量上限
	maxBackupCount = 10000
)

// OpenMode 目标文件的打开模式
type OpenMode string

const (
	// ModeAppend 追加写入（默认）
	ModeAppend OpenMode = "append"

	// ModeTruncate Writer 第一次打开文件时截断，之后与追加相同
	ModeTruncate OpenMode = "truncate"
)

// ParseOpenMode 解析打开模式，同时接受 "a"/"w" 简写。
func ParseOpenMode(s string) (OpenMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a", "append":
		return ModeAppend, nil
	case "w", "truncate":
		return ModeTruncate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Owner 新建文件的属主。字段为空表示不修改。仅在 Unix 上生效。
type Owner struct {
	User  string
	Group string
}

// TimeOfDay 一天中的时刻，用于 MIDNIGHT 与 W0-W6 的轮转时间点。
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay 解析 "HH:MM" 或 "HH:MM:SS"。
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layouts := []string{"15:04:05", "15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q, want HH:MM[:SS]", ErrInvalidAtTime, s)
}

func (t TimeOfDay) validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return fmt.Errorf("%w: got %02d:%02d:%02d", ErrInvalidAtTime, t.Hour, t.Minute, t.Second)
	}
	return nil
}

// String 返回 HH:MM:SS
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// config 轮转器配置
type config struct {
	mode        OpenMode
	encoding    string
	terminator  string
	errorPolicy ErrorPolicy

	maxBytes    int64
	backupCount int
	gzip        bool
	namer       func(string) string

	owner    Owner
	fileMode os.FileMode
	umask    os.FileMode
	// chmod 为 true 时，新建文件后显式 chmod 为 fileMode &^ umask，不受进程 umask 影响
	chmod bool

	lockDir          string
	keepFileOpen     bool
	keepLockFileOpen bool
	lockAttempts     uint
	lockDelay        time.Duration

	// 按时间轮转
	when     When
	interval int
	utc      bool
	location *time.Location
	atTime   *TimeOfDay
	suffix   string

	onError       func(error)
	meterProvider metric.MeterProvider
	now           func() time.Time
}

func defaultConfig() config {
	return config{
		mode:             ModeAppend,
		terminator:       DefaultTerminator,
		errorPolicy:      DefaultErrorPolicy,
		fileMode:         DefaultFileMode,
		keepFileOpen:     true,
		keepLockFileOpen: true,
		lockAttempts:     DefaultLockAttempts,
		lockDelay:        DefaultLockDelay,
		when:             WhenHour,
		interval:         1,
		now:              time.Now,
	}
}

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
}

// validate 校验与轮转方式无关的公共配置
func (c *config) validate() error {
	if _, err := ParseOpenMode(string(c.mode)); err != nil {
		return err
	}
	if c.maxBytes < 0 {
		return fmt.Errorf("%w: got %d, want >= 0", ErrInvalidMaxBytes, c.maxBytes)
	}
	if c.backupCount < 0 || c.backupCount > maxBackupCount {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidBackupCount, c.backupCount, maxBackupCount)
	}
	if c.fileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, c.fileMode)
	}
	if c.umask&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: umask %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, c.umask)
	}
	if err := c.errorPolicy.validate(); err != nil {
		return err
	}
	if c.lockAttempts < 1 || c.lockDelay < 0 {
		return fmt.Errorf("%w: got %d attempts, %s delay", ErrInvalidLockRetry, c.lockAttempts, c.lockDelay)
	}
	return nil
}

// createPerm 新建文件使用的权限
func (c *config) createPerm() os.FileMode {
	return c.fileMode &^ c.umask
}

// Option 配置选项函数
type Option func(*config)

// WithMode 设置打开模式，默认 [ModeAppend]
func WithMode(mode OpenMode) Option {
	return func(c *config) {
		c.mode = mode
	}
}

// WithEncoding 设置写入字符集（IANA 名称，如 "gbk"、"iso-8859-1"）。
// 空字符串或 "utf-8" 表示原样写入。
func WithEncoding(name string) Option {
	return func(c *config) {
		c.encoding = name
	}
}

// WithTerminator 设置每条记录之后追加的终止符，默认 "\n"
func WithTerminator(term string) Option {
	return func(c *config) {
		c.terminator = term
	}
}

// WithErrorPolicy 设置记录无法用目标字符集表示时的处理策略，默认 [ErrorPolicyIgnore]
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(c *config) {
		c.errorPolicy = p
	}
}

// WithMaxBytes 设置按大小轮转的阈值（字节），0 表示不按大小轮转
//
// 阈值在写入前检查，单个文件可能超出阈值最多一条记录的长度。
func WithMaxBytes(n int64) Option {
	return func(c *config) {
		c.maxBytes = n
	}
}

// WithBackupCount 设置保留的备份数量
//
// 按大小轮转时 0 表示原地截断；按时间轮转时 0 表示全部保留。
func WithBackupCount(n int) Option {
	return func(c *config) {
		c.backupCount = n
	}
}

// WithGzip 设置是否 gzip 压缩轮转出的备份
func WithGzip(enable bool) Option {
	return func(c *config) {
		c.gzip = enable
	}
}

// WithNamer 设置按大小轮转时备份文件名的转换函数
//
// 入参为默认名 "<path>.<i>"，返回值作为实际文件名。压缩时在返回值后追加 ".gz"。
// 函数必须是确定性的，并且所有协作进程使用同一个函数。
func WithNamer(fn func(defaultName string) string) Option {
	return func(c *config) {
		c.namer = fn
	}
}

// WithOwner 设置新建日志文件与锁文件的属主（用户名/组名或数字 ID）
//
// 仅 Unix 生效，其他平台忽略。需要相应权限，失败通过 OnError 上报。
func WithOwner(user, group string) Option {
	return func(c *config) {
		c.owner = Owner{User: user, Group: group}
	}
}

// WithFileMode 设置新建日志文件与锁文件的权限
//
// 设置后新建文件会被显式 chmod 为 mode &^ umask，结果不受进程 umask 影响。
func WithFileMode(mode os.FileMode) Option {
	return func(c *config) {
		c.fileMode = mode
		c.chmod = true
	}
}

// WithUmask 设置作用于新建文件的掩码，所有平台生效
func WithUmask(mask os.FileMode) Option {
	return func(c *config) {
		c.umask = mask
		c.chmod = true
	}
}

// WithLockFileDirectory 把锁文件放到指定目录，目录不存在时自动创建
//
// 所有协作进程必须使用同一目录。
func WithLockFileDirectory(dir string) Option {
	return func(c *config) {
		c.lockDir = dir
	}
}

// WithKeepFileOpen 设置写入后是否保持日志文件打开，默认 true
//
// Windows 上日志文件总是写完即关，以免阻止其他进程改名。
func WithKeepFileOpen(keep bool) Option {
	return func(c *config) {
		c.keepFileOpen = keep
	}
}

// WithKeepLockFileOpen 设置释放锁后是否保持锁文件打开，默认 true
func WithKeepLockFileOpen(keep bool) Option {
	return func(c *config) {
		c.keepLockFileOpen = keep
	}
}

// WithLockRetry 设置获取锁的重试预算
//
// 每次尝试都是非阻塞的；锁被占用时间隔 delay 再试，最多 attempts 次，
// 用尽后返回 [ErrLockAcquisitionFailed]。锁被占用以外的错误不重试。
func WithLockRetry(attempts uint, delay time.Duration) Option {
	return func(c *config) {
		c.lockAttempts = attempts
		c.lockDelay = delay
	}
}

// WithOnError 设置非致命错误回调
//
// 回调在所有锁释放后执行，panic 会被 recover。默认为 nil（静默忽略）。
func WithOnError(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider，默认使用全局 provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}

// WithClock 设置时间源，nil 表示 time.Now
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithWhen 设置按时间轮转的单位，默认 [WhenHour]
func WithWhen(w When) Option {
	return func(c *config) {
		c.when = w
	}
}

// WithInterval 设置时间单位的倍数，默认 1
func WithInterval(n int) Option {
	return func(c *config) {
		c.interval = n
	}
}

// WithUTC 设置轮转边界与后缀使用 UTC，默认使用本地时区
func WithUTC(utc bool) Option {
	return func(c *config) {
		c.utc = utc
	}
}

// WithLocation 设置轮转边界与后缀使用的时区，优先于 [WithUTC]
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		c.location = loc
	}
}

// WithAtTime 设置 MIDNIGHT 与 W0-W6 在一天中的轮转时刻，默认 00:00:00
func WithAtTime(hour, minute, second int) Option {
	return func(c *config) {
		c.atTime = &TimeOfDay{Hour: hour, Minute: minute, Second: second}
	}
}

// WithSuffix 设置时间备份的 strftime 后缀模式，空字符串表示按单位选默认值
func WithSuffix(pattern string) Option {
	return func(c *config) {
		c.suffix = pattern
	}
}
