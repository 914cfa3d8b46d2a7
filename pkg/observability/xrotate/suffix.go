package xrotate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// 各单位的默认后缀
const (
	suffixSecond = "%Y-%m-%d_%H-%M-%S"
	suffixMinute = "%Y-%m-%d_%H-%M"
	suffixHour   = "%Y-%m-%d_%H"
	suffixDay    = "%Y-%m-%d"
)

// DefaultSuffix 返回时间单位 w 的默认 strftime 后缀
func DefaultSuffix(w When) string {
	switch w {
	case WhenSecond:
		return suffixSecond
	case WhenMinute:
		return suffixMinute
	case WhenHour:
		return suffixHour
	default:
		return suffixDay
	}
}

// strftimeVerb 一个 strftime 转换符对应的 Go 时间布局与匹配正则
type strftimeVerb struct {
	layout string
	re     string
}

var strftimeVerbs = map[byte]strftimeVerb{
	'Y': {"2006", `\d{4}`},
	'y': {"06", `\d{2}`},
	'm': {"01", `\d{2}`},
	'd': {"02", `\d{2}`},
	'e': {"_2", `[ \d]\d`},
	'j': {"002", `\d{3}`},
	'H': {"15", `\d{2}`},
	'I': {"03", `\d{2}`},
	'M': {"04", `\d{2}`},
	'S': {"05", `\d{2}`},
	'p': {"PM", `[AP]M`},
	'b': {"Jan", `[A-Za-z]{3}`},
	'h': {"Jan", `[A-Za-z]{3}`},
	'B': {"January", `[A-Za-z]+`},
	'a': {"Mon", `[A-Za-z]{3}`},
	'A': {"Monday", `[A-Za-z]+`},
	'F': {"2006-01-02", `\d{4}-\d{2}-\d{2}`},
	'T': {"15:04:05", `\d{2}:\d{2}:\d{2}`},
	'R': {"15:04", `\d{2}:\d{2}`},
	'D': {"01/02/06", `\d{2}/\d{2}/\d{2}`},
}

// suffixPattern 时间备份文件名后缀
//
// 格式化用 strftime；反向解析时把模式翻译为 Go 布局与正则。
// 包含无法翻译的转换符时 layout 为空，保留期排序退化为按修改时间。
type suffixPattern struct {
	pattern string
	f       *strftime.Strftime
	re      *regexp.Regexp
	layout  string
}

func newSuffixPattern(pattern string) (*suffixPattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidSuffix)
	}
	f, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSuffix, pattern, err)
	}
	stampRE, layout := translateStrftime(pattern)
	re, err := regexp.Compile(`(?s)^(` + stampRE + `)(?:\.(\d+))?$`)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSuffix, pattern, err)
	}

	s := &suffixPattern{pattern: pattern, f: f, re: re, layout: layout}
	// 格式化结果不能跨目录，也不能为空
	probe := s.format(time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC))
	if probe == "" || strings.ContainsAny(probe, `/\`) || strings.ContainsRune(probe, 0) {
		return nil, fmt.Errorf("%w: %q produces %q", ErrInvalidSuffix, pattern, probe)
	}
	return s, nil
}

// translateStrftime 把 strftime 模式翻译为正则片段与 Go 布局
func translateStrftime(pattern string) (string, string) {
	var re, layout, lit strings.Builder
	parsable := true
	flush := func() {
		if lit.Len() == 0 {
			return
		}
		s := lit.String()
		re.WriteString(regexp.QuoteMeta(s))
		layout.WriteString(s)
		// 字母数字字面量可能被 Go 布局误识别
		if strings.IndexFunc(s, isAlnum) >= 0 {
			parsable = false
		}
		lit.Reset()
	}

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 == len(pattern) {
			lit.WriteByte(c)
			continue
		}
		i++
		verb := pattern[i]
		if verb == '%' {
			lit.WriteByte('%')
			continue
		}
		flush()
		if v, ok := strftimeVerbs[verb]; ok {
			re.WriteString(v.re)
			layout.WriteString(v.layout)
			continue
		}
		re.WriteString(`.+?`)
		parsable = false
	}
	flush()

	if !parsable {
		return re.String(), ""
	}
	return re.String(), layout.String()
}

func isAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func (s *suffixPattern) format(t time.Time) string {
	return s.f.FormatString(t)
}

// match 拆分 "<stamp>[.N]"，不匹配时 ok 为 false
func (s *suffixPattern) match(rest string) (stamp string, seq int, ok bool) {
	m := s.re.FindStringSubmatch(rest)
	if m == nil {
		return "", 0, false
	}
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", 0, false
		}
		seq = n
	}
	return m[1], seq, true
}

// parse 把时间戳解析回时间，模式不可逆时 ok 为 false
func (s *suffixPattern) parse(stamp string, loc *time.Location) (time.Time, bool) {
	if s.layout == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(s.layout, stamp, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
