package xrotate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ErrorPolicy 记录无法用目标字符集表示时的处理策略
type ErrorPolicy string

const (
	// ErrorPolicyIgnore 丢弃无法表示的字符（默认）
	ErrorPolicyIgnore ErrorPolicy = "ignore"

	// ErrorPolicyReplace 用字符集的替换字符代替无法表示的字符
	ErrorPolicyReplace ErrorPolicy = "replace"

	// ErrorPolicyStrict 拒绝整条记录并返回 [ErrEncoding]
	ErrorPolicyStrict ErrorPolicy = "strict"
)

func (p ErrorPolicy) validate() error {
	switch p {
	case ErrorPolicyIgnore, ErrorPolicyReplace, ErrorPolicyStrict:
		return nil
	default:
		return fmt.Errorf("%w: %q, want ignore/replace/strict", ErrInvalidErrorPolicy, string(p))
	}
}

// recordEncoder 把记录文本转换为目标字符集字节
//
// enc 为 nil 表示 UTF-8 原样写入，只处理非法 UTF-8 序列。
type recordEncoder struct {
	enc    encoding.Encoding
	policy ErrorPolicy
}

func newRecordEncoder(name string, policy ErrorPolicy) (*recordEncoder, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	if isUTF8Name(name) {
		return &recordEncoder{policy: policy}, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	if enc == unicode.UTF8 {
		return &recordEncoder{policy: policy}, nil
	}
	return &recordEncoder{enc: enc, policy: policy}, nil
}

func isUTF8Name(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	default:
		return false
	}
}

// encode 返回 record+terminator 的目标字符集字节。
//
// 先严格编码，失败后再按策略处理：strict 返回 ErrEncoding，replace 替换，
// ignore 逐字符丢弃无法编码的部分。
func (e *recordEncoder) encode(record []byte, terminator string) ([]byte, error) {
	text := string(record) + terminator

	if !utf8.ValidString(text) {
		switch e.policy {
		case ErrorPolicyStrict:
			return nil, fmt.Errorf("%w: invalid UTF-8 sequence", ErrEncoding)
		case ErrorPolicyReplace:
			text = strings.ToValidUTF8(text, string(utf8.RuneError))
		default:
			text = strings.ToValidUTF8(text, "")
		}
	}

	if e.enc == nil {
		return []byte(text), nil
	}

	out, err := e.enc.NewEncoder().String(text)
	if err == nil {
		return []byte(out), nil
	}

	switch e.policy {
	case ErrorPolicyStrict:
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	case ErrorPolicyReplace:
		out, err = encoding.ReplaceUnsupported(e.enc.NewEncoder()).String(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
		}
		return []byte(out), nil
	default:
		return e.encodeDropping(text), nil
	}
}

// encodeDropping 逐字符编码，跳过无法编码的字符
func (e *recordEncoder) encodeDropping(text string) []byte {
	enc := e.enc.NewEncoder()
	buf := make([]byte, 0, len(text))
	for _, r := range text {
		b, err := enc.String(string(r))
		if err != nil {
			continue
		}
		buf = append(buf, b...)
	}
	return buf
}
