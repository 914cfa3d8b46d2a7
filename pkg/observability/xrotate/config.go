package xrotate

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 文件配置形式，字段带 koanf 标签，可由 xconf 直接反序列化
//
//	path: /var/log/app.log
//	max_bytes: 104857600
//	backup_count: 5
//	use_gzip: true
//	timed:
//	  when: MIDNIGHT
//	  at_time: "02:00"
type Config struct {
	Path               string          `koanf:"path"`
	Mode               string          `koanf:"mode"`
	Encoding           string          `koanf:"encoding"`
	Terminator         *string         `koanf:"terminator"`
	MaxBytes           int64           `koanf:"max_bytes"`
	BackupCount        int             `koanf:"backup_count"`
	UseGzip            bool            `koanf:"use_gzip"`
	Owner              OwnerConfig     `koanf:"owner"`
	FileMode           string          `koanf:"file_mode"`
	Umask              string          `koanf:"umask"`
	LockDir            string          `koanf:"lock_dir"`
	KeepFileOpen       *bool           `koanf:"keep_file_open"`
	KeepLockFileOpen   *bool           `koanf:"keep_lock_file_open"`
	UnicodeErrorPolicy string          `koanf:"unicode_error_policy"`
	LockRetry          LockRetryConfig `koanf:"lock_retry"`

	// Timed 非空且 When 非空时使用按时间轮转
	Timed *TimedConfig `koanf:"timed"`
}

// OwnerConfig 新建文件的属主
type OwnerConfig struct {
	User  string `koanf:"user"`
	Group string `koanf:"group"`
}

// LockRetryConfig 获取排他锁的重试预算，零值表示默认
type LockRetryConfig struct {
	Attempts uint          `koanf:"attempts"`
	Delay    time.Duration `koanf:"delay"`
}

// TimedConfig 按时间轮转的参数
type TimedConfig struct {
	When     string `koanf:"when"`
	Interval int    `koanf:"interval"`
	UTC      bool   `koanf:"utc"`
	AtTime   string `koanf:"at_time"`
	Suffix   string `koanf:"suffix"`
}

// IsTimed 是否配置了按时间轮转
func (c Config) IsTimed() bool {
	return c.Timed != nil && strings.TrimSpace(c.Timed.When) != ""
}

// Options 把 Config 转换为选项列表
func (c Config) Options() ([]Option, error) {
	mode, err := ParseOpenMode(c.Mode)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithMode(mode),
		WithEncoding(c.Encoding),
		WithMaxBytes(c.MaxBytes),
		WithBackupCount(c.BackupCount),
		WithGzip(c.UseGzip),
		WithLockFileDirectory(c.LockDir),
	}
	if c.Terminator != nil {
		opts = append(opts, WithTerminator(*c.Terminator))
	}
	if c.Owner.User != "" || c.Owner.Group != "" {
		opts = append(opts, WithOwner(c.Owner.User, c.Owner.Group))
	}
	if c.FileMode != "" {
		m, err := parsePerm(c.FileMode)
		if err != nil {
			return nil, fmt.Errorf("%w: file_mode %q", ErrInvalidFileMode, c.FileMode)
		}
		opts = append(opts, WithFileMode(m))
	}
	if c.Umask != "" {
		m, err := parsePerm(c.Umask)
		if err != nil {
			return nil, fmt.Errorf("%w: umask %q", ErrInvalidFileMode, c.Umask)
		}
		opts = append(opts, WithUmask(m))
	}
	if c.KeepFileOpen != nil {
		opts = append(opts, WithKeepFileOpen(*c.KeepFileOpen))
	}
	if c.KeepLockFileOpen != nil {
		opts = append(opts, WithKeepLockFileOpen(*c.KeepLockFileOpen))
	}
	if c.UnicodeErrorPolicy != "" {
		opts = append(opts, WithErrorPolicy(ErrorPolicy(strings.ToLower(c.UnicodeErrorPolicy))))
	}
	if c.LockRetry.Attempts > 0 || c.LockRetry.Delay > 0 {
		attempts, delay := c.LockRetry.Attempts, c.LockRetry.Delay
		if attempts == 0 {
			attempts = DefaultLockAttempts
		}
		if delay == 0 {
			delay = DefaultLockDelay
		}
		opts = append(opts, WithLockRetry(attempts, delay))
	}

	if c.IsTimed() {
		timedOpts, err := c.Timed.options()
		if err != nil {
			return nil, err
		}
		opts = append(opts, timedOpts...)
	}
	return opts, nil
}

func (t *TimedConfig) options() ([]Option, error) {
	when, err := ParseWhen(t.When)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithWhen(when), WithUTC(t.UTC), WithSuffix(t.Suffix)}
	if t.Interval != 0 {
		opts = append(opts, WithInterval(t.Interval))
	}
	if t.AtTime != "" {
		at, err := ParseTimeOfDay(t.AtTime)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithAtTime(at.Hour, at.Minute, at.Second))
	}
	return opts, nil
}

// parsePerm 解析八进制权限，如 "0644"、"644"、"0o644"
func parsePerm(s string) (os.FileMode, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0o"), "0O")
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(v), nil
}

// NewFromConfig 按 Config 创建 Writer，extra 在 Config 之后应用
//
// 配置了 Timed.When 时创建按时间轮转的 Writer，否则按大小轮转。
func NewFromConfig(c Config, extra ...Option) (*Writer, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)
	if c.IsTimed() {
		return NewTimed(c.Path, opts...)
	}
	return NewSize(c.Path, opts...)
}
