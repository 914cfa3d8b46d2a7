package xconf

import "github.com/knadh/koanf/v2"

// Format 配置格式
type Format string

// 支持的配置格式
const (
	// FormatYAML YAML 格式
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式
	FormatJSON Format = "json"
)

// Config 只读的已加载配置
type Config interface {
	// Client 返回底层的 koanf 实例，用于按键读取单个值。
	Client() *koanf.Koanf

	// Unmarshal 把 path 下的配置反序列化到 target，path 为空时反序列化整个配置。
	Unmarshal(path string, target any) error

	// Has 报告 path 是否存在。
	Has(path string) bool

	// Path 返回配置文件路径，从字节数据创建时为空。
	Path() string

	// Format 返回配置格式。
	Format() Format
}
