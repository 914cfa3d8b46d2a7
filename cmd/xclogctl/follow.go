package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xclog/pkg/observability/xlog"
	"github.com/omeyang/xclog/pkg/observability/xrotate"
	"github.com/omeyang/xclog/pkg/util/xfile"
)

const defaultPollInterval = time.Second

func createFollowCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "follow",
		Usage: "持续输出日志新增内容，跨越轮转",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "from-start", Usage: "从文件开头输出，默认只输出新增内容"},
			&cli.DurationFlag{Name: "poll", Usage: "补充检查的间隔，防止漏掉文件事件", Value: defaultPollInterval},
		},
		Action: withDiag(s, func(ctx context.Context, cmd *cli.Command, cfg xrotate.Config, logger xlog.Logger) error {
			f := newFollower(cfg.Path, s.out, logger)
			f.fromStart = cmd.Bool("from-start")
			if p := cmd.Duration("poll"); p > 0 {
				f.poll = p
			}
			return f.run(ctx)
		}),
	}
}

// follower 类似 tail -F：文件被改名轮转后读完旧文件，再从头读新文件；
// 原地截断后从头读。
type follower struct {
	path      string
	out       io.Writer
	logger    xlog.Logger
	poll      time.Duration
	fromStart bool

	f      *os.File
	offset int64
}

func newFollower(path string, out io.Writer, logger xlog.Logger) *follower {
	return &follower{path: path, out: out, logger: logger, poll: defaultPollInterval}
}

// run 直到 ctx 取消，返回 nil；监听或读取失败时返回错误
func (fw *follower) run(ctx context.Context) error {
	abs, err := filepath.Abs(fw.path)
	if err != nil {
		return err
	}
	fw.path = abs

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// 监听目录：轮转会改名并重建文件
	if err := watcher.Add(filepath.Dir(fw.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(fw.path), err)
	}
	defer fw.closeFile()

	if err := fw.open(!fw.fromStart); err != nil {
		_ = watcher.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return watcher.Close()
	})
	g.Go(func() error {
		return fw.loop(gctx, watcher)
	})
	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (fw *follower) loop(ctx context.Context, watcher *fsnotify.Watcher) error {
	ticker := time.NewTicker(fw.poll)
	defer ticker.Stop()

	if err := fw.sync(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if err := fw.sync(ctx); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn(ctx, "watch error", xlog.Path(fw.path), xlog.Err(err))
		case <-ticker.C:
			if err := fw.sync(ctx); err != nil {
				return err
			}
		}
	}
}

// sync 输出当前句柄的新增内容；路径已指向另一个文件时读完旧句柄再切换
func (fw *follower) sync(ctx context.Context) error {
	if fw.f == nil {
		if err := fw.open(false); err != nil {
			return err
		}
		if fw.f == nil {
			return nil
		}
	}

	if err := fw.checkTruncated(ctx); err != nil {
		return err
	}
	if err := fw.drain(); err != nil {
		return err
	}

	replaced, err := fw.replaced()
	if err != nil || !replaced {
		return err
	}
	// 上次读取之后、改名之前，旧文件可能还有写入
	if err := fw.drain(); err != nil {
		return err
	}
	fw.logger.Debug(ctx, "file rotated, reopening", xlog.Path(fw.path))
	fw.closeFile()
	if err := fw.open(false); err != nil {
		return err
	}
	if fw.f == nil {
		return nil
	}
	return fw.drain()
}

// open 打开 path；不存在时保持未打开状态，等待创建事件
func (fw *follower) open(seekEnd bool) error {
	//#nosec G304 -- 路径来自命令行或配置
	f, err := os.Open(fw.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", fw.path, err)
	}
	var offset int64
	if seekEnd {
		if offset, err = f.Seek(0, io.SeekEnd); err != nil {
			_ = f.Close()
			return fmt.Errorf("seek %s: %w", fw.path, err)
		}
	}
	fw.f = f
	fw.offset = offset
	return nil
}

func (fw *follower) closeFile() {
	if fw.f != nil {
		_ = fw.f.Close()
		fw.f = nil
		fw.offset = 0
	}
}

func (fw *follower) drain() error {
	n, err := io.Copy(fw.out, fw.f)
	fw.offset += n
	if err != nil {
		return fmt.Errorf("read %s: %w", fw.path, err)
	}
	return nil
}

// checkTruncated backup_count 为 0 时按大小轮转会原地截断
func (fw *follower) checkTruncated(ctx context.Context) error {
	info, err := fw.f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", fw.path, err)
	}
	if info.Size() >= fw.offset {
		return nil
	}
	fw.logger.Debug(ctx, "file truncated, reading from start", xlog.Path(fw.path))
	if _, err := fw.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", fw.path, err)
	}
	fw.offset = 0
	return nil
}

// replaced 路径已指向另一个文件。已改名而新文件还没创建时返回 false，
// 等下次事件再切换
func (fw *follower) replaced() (bool, error) {
	if !xfile.Exists(fw.path) {
		return false, nil
	}
	same, err := xfile.SameFile(fw.f, fw.path)
	if err != nil {
		return false, err
	}
	return !same, nil
}
