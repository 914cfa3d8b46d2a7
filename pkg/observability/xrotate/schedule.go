package xrotate

import (
	"fmt"
	"strings"
	"time"
)

// When 按时间轮转的单位
type When string

const (
	// WhenSecond 每 interval 秒
	WhenSecond When = "S"
	// WhenMinute 每 interval 分钟
	WhenMinute When = "M"
	// WhenHour 每 interval 小时
	WhenHour When = "H"
	// WhenDay 每 interval × 24 小时（固定时长，不对齐午夜）
	WhenDay When = "D"
	// WhenMidnight 每 interval 天的 AtTime（默认午夜）
	WhenMidnight When = "MIDNIGHT"
)

// WhenWeekday 返回每周指定星期几轮转的单位，对应 "W0"（周一）到 "W6"（周日）
func WhenWeekday(day time.Weekday) When {
	return When(fmt.Sprintf("W%d", (int(day)+6)%7))
}

// ParseWhen 解析时间单位，大小写不敏感
func ParseWhen(s string) (When, error) {
	w := When(strings.ToUpper(strings.TrimSpace(s)))
	switch w {
	case WhenSecond, WhenMinute, WhenHour, WhenDay, WhenMidnight:
		return w, nil
	}
	if _, ok := w.weekday(); ok {
		return w, nil
	}
	return "", fmt.Errorf("%w: %q, want S/M/H/D/MIDNIGHT/W0-W6", ErrInvalidWhen, s)
}

// weekday W0-W6 对应的 time.Weekday
func (w When) weekday() (time.Weekday, bool) {
	if len(w) != 2 || w[0] != 'W' || w[1] < '0' || w[1] > '6' {
		return 0, false
	}
	return time.Weekday((int(w[1]-'0') + 1) % 7), true
}

// unit 固定时长单位的长度，日历单位返回 0
func (w When) unit() time.Duration {
	switch w {
	case WhenSecond:
		return time.Second
	case WhenMinute:
		return time.Minute
	case WhenHour:
		return time.Hour
	case WhenDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// schedule 计算轮转边界
//
// S/M/H/D 是固定时长；MIDNIGHT 与 W0-W6 是日历时刻，用 time.Date 在 loc 中构造，
// 夏令时切换由 time.Date 吸收。
type schedule struct {
	when     When
	interval int
	loc      *time.Location
	at       TimeOfDay

	step    time.Duration // 固定时长单位
	days    int           // 日历单位的天数
	weekly  bool
	weekday time.Weekday
}

func newSchedule(cfg *config) (schedule, error) {
	when, err := ParseWhen(string(cfg.when))
	if err != nil {
		return schedule{}, err
	}
	if cfg.interval < 1 {
		return schedule{}, fmt.Errorf("%w: got %d, want >= 1", ErrInvalidInterval, cfg.interval)
	}

	s := schedule{when: when, interval: cfg.interval, loc: time.Local}
	switch {
	case cfg.location != nil:
		s.loc = cfg.location
	case cfg.utc:
		s.loc = time.UTC
	}
	if cfg.atTime != nil {
		if err := cfg.atTime.validate(); err != nil {
			return schedule{}, err
		}
		s.at = *cfg.atTime
	}

	if unit := when.unit(); unit > 0 {
		s.step = unit * time.Duration(cfg.interval)
		return s, nil
	}
	if day, ok := when.weekday(); ok {
		s.weekly = true
		s.weekday = day
		s.days = 7 * cfg.interval
		return s, nil
	}
	s.days = cfg.interval
	return s, nil
}

// on 返回 t 所在日期（loc 中）的 AtTime 时刻，day 为相对天数
func (s schedule) on(t time.Time, day int) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d+day, s.at.Hour, s.at.Minute, s.at.Second, 0, s.loc)
}

// first 第一个轮转边界
//
// 固定时长单位为 now + interval；MIDNIGHT 为下一个 AtTime；W 为下一个指定星期几的 AtTime。
func (s schedule) first(now time.Time) time.Time {
	now = now.In(s.loc)
	if s.step > 0 {
		return now.Truncate(time.Second).Add(s.step)
	}
	t := s.on(now, 0)
	if !t.After(now) {
		t = s.on(now, 1)
	}
	if s.weekly {
		for t.Weekday() != s.weekday {
			t = s.on(t, 1)
		}
	}
	return t
}

// next 边界 b 之后的一个边界
func (s schedule) next(b time.Time) time.Time {
	if s.step > 0 {
		return b.Add(s.step)
	}
	return s.on(b, s.days)
}

// previous 边界 b 之前的一个边界，即 b 所结束区间的起点
func (s schedule) previous(b time.Time) time.Time {
	if s.step > 0 {
		return b.Add(-s.step).In(s.loc)
	}
	return s.on(b, -s.days)
}

// advance 从 b 开始按整数个区间前进，直到严格晚于 now
func (s schedule) advance(b, now time.Time) time.Time {
	if b.After(now) {
		return b
	}
	if s.step > 0 {
		k := now.Sub(b)/s.step + 1
		return b.Add(k * s.step)
	}
	for !b.After(now) {
		b = s.next(b)
	}
	return b
}
