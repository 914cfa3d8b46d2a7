package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xclog/pkg/config/xconf"
	"github.com/omeyang/xclog/pkg/observability/xlog"
	"github.com/omeyang/xclog/pkg/observability/xrotate"
)

const defaultSection = "rotation"

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件（.yaml/.yml/.json）"},
		&cli.StringFlag{Name: "section", Usage: "配置节点路径，空字符串表示根节点", Value: defaultSection},
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "日志文件路径"},
		&cli.Int64Flag{Name: "max-bytes", Usage: "按大小轮转的阈值，0 表示不按大小轮转"},
		&cli.IntFlag{Name: "backup-count", Usage: "保留的备份数量"},
		&cli.BoolFlag{Name: "gzip", Usage: "gzip 压缩备份"},
		&cli.StringFlag{Name: "when", Usage: "按时间轮转的单位：S/M/H/D/MIDNIGHT/W0-W6"},
		&cli.IntFlag{Name: "interval", Usage: "按时间轮转的间隔"},
		&cli.BoolFlag{Name: "utc", Usage: "时间边界与备份后缀使用 UTC"},
		&cli.StringFlag{Name: "lock-dir", Usage: "锁文件目录，默认与日志文件同目录"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "输出调试信息"},
	}
}

// loadConfig 读取配置文件，再用命令行参数覆盖
func loadConfig(cmd *cli.Command) (xrotate.Config, error) {
	var cfg xrotate.Config
	if path := cmd.String("config"); path != "" {
		c, err := xconf.New(path)
		if err != nil {
			return cfg, err
		}
		section := strings.TrimSpace(cmd.String("section"))
		if section == "" {
			cfg, err = xconf.Decode[xrotate.Config](c, "")
		} else {
			cfg, err = xconf.DecodeRequired[xrotate.Config](c, section)
		}
		if err != nil {
			return cfg, err
		}
	}

	if cmd.IsSet("file") {
		cfg.Path = cmd.String("file")
	}
	if cmd.IsSet("max-bytes") {
		cfg.MaxBytes = cmd.Int64("max-bytes")
	}
	if cmd.IsSet("backup-count") {
		cfg.BackupCount = cmd.Int("backup-count")
	}
	if cmd.IsSet("gzip") {
		cfg.UseGzip = cmd.Bool("gzip")
	}
	if cmd.IsSet("lock-dir") {
		cfg.LockDir = cmd.String("lock-dir")
	}
	if cmd.IsSet("when") || cmd.IsSet("interval") || cmd.IsSet("utc") {
		if cfg.Timed == nil {
			cfg.Timed = &xrotate.TimedConfig{}
		}
		if cmd.IsSet("when") {
			cfg.Timed.When = cmd.String("when")
		}
		if cmd.IsSet("interval") {
			cfg.Timed.Interval = cmd.Int("interval")
		}
		if cmd.IsSet("utc") {
			cfg.Timed.UTC = cmd.Bool("utc")
		}
	}

	if cfg.Path == "" {
		return cfg, usagef("缺少日志文件路径：使用 --file 或在配置文件中设置 path")
	}
	return cfg, nil
}

// newDiagLogger 诊断日志输出到 stderr，默认只输出 Warn 及以上
func newDiagLogger(cmd *cli.Command, s streams) (xlog.LoggerWithLevel, func() error, error) {
	level := xlog.LevelWarn
	if cmd.Bool("verbose") {
		level = xlog.LevelDebug
	}
	return xlog.New().
		SetOutput(s.err).
		SetLevel(level).
		SetAttrs(xlog.Component("xclogctl"), xlog.Process()).
		Build()
}

// rotationWarnings 把轮转器的非致命错误写入诊断日志
func rotationWarnings(ctx context.Context, logger xlog.Logger, path string) xrotate.Option {
	return xrotate.WithOnError(func(err error) {
		logger.Warn(ctx, "rotation warning", xlog.Path(path), xlog.Err(err))
	})
}
