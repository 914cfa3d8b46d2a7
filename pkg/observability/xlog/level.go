package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，数值与 slog.Level 相同
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// String 标准级别返回大写名称，其余交给 slog（如 "INFO+2"）
func (l Level) String() string {
	return slog.Level(l).String()
}

// MarshalText 实现 encoding.TextMarshaler，便于写入配置
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，xconf 解码 level 字段时使用
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析级别名称
//
// 接受 debug、info、warn、warning、error（不区分大小写，忽略首尾空白），
// 以及 slog 的偏移写法，如 "INFO+2"、"error-1"。
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		return LevelWarn, nil
	}
	if name == "" {
		return LevelInfo, fmt.Errorf("%w: empty", ErrUnknownLevel)
	}
	var sl slog.Level
	if err := sl.UnmarshalText([]byte(name)); err != nil {
		return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return Level(sl), nil
}
