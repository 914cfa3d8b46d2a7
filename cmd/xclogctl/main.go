// xclogctl 是多进程轮转日志的命令行工具。
//
// 用法:
//
//	xclogctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config        配置文件（YAML/JSON），内容见 xrotate.Config
//	    --section       配置文件中的节点路径（默认: rotation，空字符串表示根节点）
//	-f, --file          日志文件路径，覆盖配置文件中的 path
//	    --max-bytes     按大小轮转的阈值
//	    --backup-count  保留的备份数量
//	    --gzip          压缩备份
//	    --when          按时间轮转的单位（S/M/H/D/MIDNIGHT/W0-W6）
//	    --interval      按时间轮转的间隔
//	    --lock-dir      锁文件目录
//	-v, --verbose       输出调试信息到 stderr
//	    --version       显示版本信息
//
// 命令:
//
//	write    把标准输入的每一行作为一条记录写入日志
//	rotate   立即轮转
//	status   查看日志文件、锁文件与备份
//	follow   持续输出日志新增内容，跨越轮转
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（含 write 有记录未写入）
//	2: 参数错误
//
// 示例:
//
//	myapp 2>&1 | xclogctl -f /var/log/myapp.log --max-bytes 104857600 --backup-count 5 write
//	xclogctl -c /etc/myapp/log.yaml status
//	xclogctl -f /var/log/myapp.log follow
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// streams 命令的输入输出，测试时替换
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func init() {
	// -v 留给 --verbose
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "显示版本信息"}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	os.Exit(run(ctx, os.Args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}))
}

func createApp(s streams) *cli.Command {
	return &cli.Command{
		Name:      "xclogctl",
		Usage:     "多进程轮转日志工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Reader:    s.in,
		Writer:    s.out,
		ErrWriter: s.err,
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			createWriteCommand(s),
			createRotateCommand(s),
			createStatusCommand(s),
			createFollowCommand(s),
		},
		// 退出码由 run 统一映射，不让 urfave/cli 调用 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				_, _ = fmt.Fprintln(s.err, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, s streams) int {
	err := createApp(s).Run(ctx, args)
	if err == nil {
		return exitOK
	}
	var usage *usageError
	if errors.As(err, &usage) {
		_, _ = fmt.Fprintf(s.err, "参数错误: %v\n", usage)
		return exitUsage
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) || isCLIUsageError(err) {
		return exitUsage
	}
	_, _ = fmt.Fprintf(s.err, "错误: %v\n", err)
	return exitFail
}

// isCLIUsageError urfave/cli 的参数解析错误没有独立类型，只能按消息识别；
// 详细信息已由框架输出到 stderr
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, p := range []string{
		"flag provided but not defined",
		"flag needs an argument",
		"invalid value",
		"Required flag",
		"No help topic",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// setupSignalHandler 第一次信号取消 ctx，第二次直接退出
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
