package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xclog/pkg/observability/xlog"
	"github.com/omeyang/xclog/pkg/observability/xrotate"
)

const (
	// maxLineSize write 单条记录的上限
	maxLineSize = 1 << 20

	// lineBuffer 读取与写入之间的缓冲行数
	lineBuffer = 256
)

// errRecordsDropped write 结束时仍有记录未写入
var errRecordsDropped = errors.New("records dropped")

// withDiag 为命令准备配置与诊断日志
func withDiag(s streams, fn func(ctx context.Context, cmd *cli.Command, cfg xrotate.Config, logger xlog.Logger) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, cleanup, err := newDiagLogger(cmd, s)
		if err != nil {
			return err
		}
		defer func() { _ = cleanup() }()
		return fn(ctx, cmd, cfg, logger)
	}
}

func createWriteCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "write",
		Usage: "把标准输入的每一行作为一条记录写入日志",
		Action: withDiag(s, func(ctx context.Context, _ *cli.Command, cfg xrotate.Config, logger xlog.Logger) error {
			return cmdWrite(ctx, cfg, s.in, logger)
		}),
	}
}

func createRotateCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "rotate",
		Usage: "立即轮转",
		Action: withDiag(s, func(ctx context.Context, _ *cli.Command, cfg xrotate.Config, logger xlog.Logger) error {
			return cmdRotate(ctx, cfg, s.out, logger)
		}),
	}
}

func createStatusCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "查看日志文件、锁文件与备份",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "以 JSON 输出"},
		},
		Action: withDiag(s, func(_ context.Context, cmd *cli.Command, cfg xrotate.Config, _ xlog.Logger) error {
			return cmdStatus(cfg, cmd.Bool("json"), s.out)
		}),
	}
}

// cmdWrite 读取 in 的每一行写入日志，直到 EOF 或 ctx 取消
//
// 读取与写入分属两个 goroutine，ctx 取消后已读入缓冲的行仍会写完。
// 写入失败的行记入诊断日志，结束时返回 errRecordsDropped。
func cmdWrite(ctx context.Context, cfg xrotate.Config, in io.Reader, logger xlog.Logger) error {
	w, err := xrotate.NewFromConfig(cfg, rotationWarnings(ctx, logger, cfg.Path))
	if err != nil {
		return err
	}

	lines := make(chan string, lineBuffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(lines)
		return scanLines(gctx, in, lines)
	})

	var written, dropped int64
	g.Go(func() error {
		for line := range lines {
			if err := w.Emit(line); err != nil {
				dropped++
				logger.Error(ctx, "record dropped", xlog.Path(w.Path()), xlog.Err(err))
				continue
			}
			written++
		}
		return nil
	})

	err = g.Wait()
	err = errors.Join(err, w.Close())
	logger.Debug(ctx, "write finished",
		xlog.Path(w.Path()),
		xlog.Count(written),
		slog.Int64("dropped", dropped),
		slog.Int64("rotations", w.Rotations()),
	)
	if err != nil {
		return err
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d of %d", errRecordsDropped, dropped, written+dropped)
	}
	return nil
}

// scanLines ctx 取消时停止读取，不返回错误
func scanLines(ctx context.Context, in io.Reader, lines chan<- string) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		select {
		case lines <- line:
		case <-ctx.Done():
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func cmdRotate(ctx context.Context, cfg xrotate.Config, out io.Writer, logger xlog.Logger) error {
	w, err := xrotate.NewFromConfig(cfg, rotationWarnings(ctx, logger, cfg.Path))
	if err != nil {
		return err
	}
	rotateErr := w.Rotate()
	closeErr := w.Close()
	if err := errors.Join(rotateErr, closeErr); err != nil {
		return err
	}
	if w.Rotations() == 0 {
		_, _ = fmt.Fprintf(out, "%s: nothing to rotate\n", w.Path())
		return nil
	}
	_, _ = fmt.Fprintf(out, "%s: rotated\n", w.Path())
	return nil
}

// statusView status 命令的输出
type statusView struct {
	Path         string    `json:"path"`
	LockPath     string    `json:"lock_path"`
	Size         int64     `json:"size"`
	NextRotation time.Time `json:"next_rotation,omitzero"`
	Backups      []string  `json:"backups"`
}

func cmdStatus(cfg xrotate.Config, asJSON bool, out io.Writer) error {
	st, err := xrotate.Inspect(cfg.Path, inspectOptions(cfg)...)
	if err != nil {
		return err
	}
	view := statusView{
		Path:         st.Path,
		LockPath:     st.LockPath,
		Size:         st.Size,
		NextRotation: st.NextRotation,
		Backups:      st.Backups,
	}
	if view.Backups == nil {
		view.Backups = []string{}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	_, _ = fmt.Fprintf(out, "path:      %s\n", view.Path)
	_, _ = fmt.Fprintf(out, "lock:      %s\n", view.LockPath)
	_, _ = fmt.Fprintf(out, "size:      %d\n", view.Size)
	if !view.NextRotation.IsZero() {
		_, _ = fmt.Fprintf(out, "next:      %s\n", view.NextRotation.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(out, "backups:   %d\n", len(view.Backups))
	for _, b := range view.Backups {
		_, _ = fmt.Fprintf(out, "  %s\n", b)
	}
	return nil
}

func inspectOptions(cfg xrotate.Config) []xrotate.Option {
	var opts []xrotate.Option
	if cfg.LockDir != "" {
		opts = append(opts, xrotate.WithLockFileDirectory(cfg.LockDir))
	}
	if cfg.LockRetry.Attempts > 0 || cfg.LockRetry.Delay > 0 {
		attempts, delay := cfg.LockRetry.Attempts, cfg.LockRetry.Delay
		if attempts == 0 {
			attempts = xrotate.DefaultLockAttempts
		}
		if delay == 0 {
			delay = xrotate.DefaultLockDelay
		}
		opts = append(opts, xrotate.WithLockRetry(attempts, delay))
	}
	return opts
}
