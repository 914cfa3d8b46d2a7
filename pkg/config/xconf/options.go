package xconf

// Options 加载选项
type Options struct {
	// Delim 键分隔符，默认 "."
	Delim string

	// Tag 反序列化使用的结构体标签，默认 "koanf"
	Tag string
}

// Option 选项函数
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim: ".",
		Tag:   "koanf",
	}
}

func applyOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithDelim 设置键分隔符，例如 "log.rotation.max_bytes" 中的 "."
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置反序列化使用的结构体标签
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}
