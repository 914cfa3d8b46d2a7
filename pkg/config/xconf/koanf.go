package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xclog/pkg/util/xfile"
)

// koanfConfig Config 的 koanf 实现，加载后只读，可并发使用
type koanfConfig struct {
	k      *koanf.Koanf
	path   string
	format Format
	tag    string
}

// New 从文件加载配置，格式由扩展名决定（.yaml/.yml/.json）。Path 返回绝对路径。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	safePath, err := xfile.SanitizePath(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	format, err := detectFormat(safePath)
	if err != nil {
		return nil, err
	}

	//#nosec G304 -- 路径已经过 SanitizePath
	data, err := os.ReadFile(safePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	c, err := load(data, format, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	c.path = safePath
	return c, nil
}

// NewFromBytes 从字节数据加载配置，需要显式指定格式
//
// 空数据得到空配置，Unmarshal 返回目标的零值。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !isValidFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return load(data, format, applyOptions(opts))
}

func load(data []byte, format Format, o *Options) (*koanfConfig, error) {
	k := koanf.New(o.Delim)
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parserFor(format)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}
	return &koanfConfig{k: k, format: format, tag: o.Tag}, nil
}

func (c *koanfConfig) Client() *koanf.Koanf {
	return c.k
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	if err := c.k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Has(path string) bool {
	return c.k.Exists(path)
}

func (c *koanfConfig) Path() string {
	return c.path
}

func (c *koanfConfig) Format() Format {
	return c.format
}

// Decode 把 path 下的配置反序列化为 T
func Decode[T any](c Config, path string) (T, error) {
	var out T
	err := c.Unmarshal(path, &out)
	return out, err
}

// DecodeRequired 与 [Decode] 相同，但 path 不存在时返回 [ErrMissingSection]
func DecodeRequired[T any](c Config, path string) (T, error) {
	var zero T
	if path != "" && !c.Has(path) {
		return zero, fmt.Errorf("%w: %s", ErrMissingSection, path)
	}
	return Decode[T](c, path)
}

// MustUnmarshal 反序列化失败时 panic，用于启动阶段的必要配置
func MustUnmarshal(c Config, path string, target any) {
	if err := c.Unmarshal(path, target); err != nil {
		panic(err)
	}
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

func parserFor(format Format) koanf.Parser {
	if format == FormatJSON {
		return json.Parser()
	}
	return yaml.Parser()
}
