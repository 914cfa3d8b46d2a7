package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xclog/pkg/observability/xrotate"
)

// ReplaceAttrFunc 属性替换函数，用于字段重命名、脱敏或过滤
//
// 返回空 Key 的 Attr 会移除该属性。
//
//	func(groups []string, a slog.Attr) slog.Attr {
//	    if a.Key == "password" {
//	        return slog.String("password", "***")
//	    }
//	    return a
//	}
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

type rotationKind int

const (
	rotationNone rotationKind = iota
	rotationSize
	rotationConfig
	rotationLumberjack
)

// rotationParams 记录轮转参数，轮转器在 Build 时才创建
type rotationParams struct {
	kind     rotationKind
	filename string
	cfg      xrotate.Config
	opts     []xrotate.Option
}

// Builder 日志配置构建器
//
// 遇到第一个配置错误后，后续 Set 调用不再生效，错误在 Build 时返回。
// Builder 只能 Build 一次。
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	attrs       []slog.Attr
	onError     ErrorHook
	onRotation  func(error)

	rotation rotationParams
	rotator  xrotate.Rotator

	registry *Registry
	name     string

	built bool
	err   error
}

// New 创建构建器，默认输出到 stderr、Info 级别、text 格式
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetOutput 设置输出目标，之后设置的轮转会覆盖它
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		return b.fail(ErrNilOutput)
	}
	b.output = w
	return b
}

func (b *Builder) SetLevel(level Level) *Builder {
	if b.err != nil {
		return b
	}
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 按名称设置级别，见 [ParseLevel]
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		return b.fail(err)
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空字符串表示默认的 text
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		return b.fail(fmt.Errorf("%w: %q", ErrUnknownFormat, format))
	}
	return b
}

func (b *Builder) SetAddSource(enable bool) *Builder {
	if b.err == nil {
		b.addSource = enable
	}
	return b
}

func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	if b.err == nil {
		b.replaceAttr = fn
	}
	return b
}

// SetAttrs 添加每条日志都携带的固定属性，如服务名、进程号
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	if b.err == nil {
		b.attrs = append(b.attrs, attrs...)
	}
	return b
}

// SetOnError 设置写入失败的回调，nil 表示使用 [StderrErrors]
//
// 轮转文件的写入失败（取锁超时、严格编码失败、磁盘 I/O 错误）都会到这里，
// 回调拿到的是没有写出的那条记录：
//
//	logger, cleanup, _ := xlog.New().
//		SetRotation("/var/log/app.log", xrotate.WithMaxBytes(64<<20)).
//		SetOnError(func(ctx context.Context, r slog.Record, err error) {
//			dropped.Add(ctx, 1)
//		}).
//		Build()
func (b *Builder) SetOnError(hook ErrorHook) *Builder {
	if b.err == nil {
		b.onError = hook
	}
	return b
}

// SetOnRotationError 设置轮转器非致命错误的回调（轮转推迟、压缩失败等）
//
// 默认打印到 stderr。xrotate.WithOnError 出现在轮转选项里时以选项为准。
func (b *Builder) SetOnRotationError(fn func(error)) *Builder {
	if b.err == nil {
		b.onRotation = fn
	}
	return b
}

// SetRotation 输出到按大小轮转的文件，多个进程可以同时写同一个文件
//
//	xlog.New().SetRotation("/var/log/app.log",
//	    xrotate.WithMaxBytes(100<<20),
//	    xrotate.WithBackupCount(5),
//	    xrotate.WithGzip(true),
//	)
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	if b.err == nil {
		b.rotation = rotationParams{kind: rotationSize, filename: filename, opts: opts}
		b.rotator = nil
	}
	return b
}

// SetRotationConfig 按 xrotate.Config 创建轮转器，配置了 timed.when 时按时间轮转
func (b *Builder) SetRotationConfig(c xrotate.Config, opts ...xrotate.Option) *Builder {
	if b.err == nil {
		b.rotation = rotationParams{kind: rotationConfig, cfg: c, opts: opts}
		b.rotator = nil
	}
	return b
}

// SetLumberjack 输出到单进程的 lumberjack 轮转文件
func (b *Builder) SetLumberjack(filename string, opts ...xrotate.Option) *Builder {
	if b.err == nil {
		b.rotation = rotationParams{kind: rotationLumberjack, filename: filename, opts: opts}
		b.rotator = nil
	}
	return b
}

// SetRotator 使用已创建的轮转器，cleanup 会关闭它
func (b *Builder) SetRotator(r xrotate.Rotator) *Builder {
	if b.err != nil {
		return b
	}
	if r == nil {
		return b.fail(ErrNilRotator)
	}
	b.rotator = r
	b.rotation = rotationParams{}
	return b
}

// SetRegistry Build 时把轮转器以 name 注册到 reg，由 [Registry.Stop] 统一关闭
func (b *Builder) SetRegistry(reg *Registry, name string) *Builder {
	if b.err == nil {
		b.registry = reg
		b.name = name
	}
	return b
}

// Build 构建 Logger
//
// 返回的 cleanup 关闭轮转器，可重复调用。配置错误或轮转器创建失败时返回 error。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.built {
		return nil, nil, ErrBuilderUsed
	}
	b.built = true
	if b.err != nil {
		return nil, nil, b.err
	}

	rotator, err := b.openRotator()
	if err != nil {
		return nil, nil, err
	}
	output := b.output
	if rotator != nil {
		output = rotator
	}
	if b.registry != nil && rotator != nil {
		if err := b.registry.Register(b.name, rotator); err != nil {
			_ = rotator.Close()
			return nil, nil, err
		}
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}
	var inner slog.Handler
	if b.format == "json" {
		inner = slog.NewJSONHandler(output, opts)
	} else {
		inner = slog.NewTextHandler(output, opts)
	}
	if len(b.attrs) > 0 {
		inner = inner.WithAttrs(b.attrs)
	}

	logger := &xlogger{
		handler:   NewHandler(inner, b.onError),
		levelVar:  b.levelVar,
		addSource: b.addSource,
	}
	return logger, closeOnce(rotator), nil
}

// BuildSlog 与 Build 相同，返回标准库 *slog.Logger
func (b *Builder) BuildSlog() (*slog.Logger, func() error, error) {
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return slog.New(logger.(*xlogger).Handler()), cleanup, nil
}

func (b *Builder) openRotator() (xrotate.Rotator, error) {
	if b.rotator != nil {
		return b.rotator, nil
	}
	// 调用方的 WithOnError 在后，优先生效
	opts := append([]xrotate.Option{xrotate.WithOnError(b.rotationHook())}, b.rotation.opts...)
	var (
		w   *xrotate.Writer
		err error
	)
	switch b.rotation.kind {
	case rotationSize:
		w, err = xrotate.NewSize(b.rotation.filename, opts...)
	case rotationConfig:
		w, err = xrotate.NewFromConfig(b.rotation.cfg, opts...)
	case rotationLumberjack:
		return xrotate.NewLumberjack(b.rotation.filename, opts...)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (b *Builder) rotationHook() func(error) {
	if b.onRotation != nil {
		return b.onRotation
	}
	return func(err error) {
		_, _ = fmt.Fprintf(errorOutput, "xlog: rotation: %v\n", err)
	}
}

func closeOnce(r xrotate.Rotator) func() error {
	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			if r != nil {
				err = r.Close()
			}
		})
		return err
	}
}
