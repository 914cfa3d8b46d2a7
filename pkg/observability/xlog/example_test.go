package xlog_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/omeyang/xclog/pkg/observability/xlog"
	"github.com/omeyang/xclog/pkg/observability/xrotate"
)

func ExampleBuilder_SetRotation() {
	dir, err := os.MkdirTemp("", "xlog-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "app.log")
	logger, cleanup, err := xlog.New().
		SetRotation(path, xrotate.WithMaxBytes(1<<20), xrotate.WithBackupCount(3)).
		SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}

	logger.Info(context.Background(), "service started", xlog.Component("billing"))
	if err := cleanup(); err != nil {
		fmt.Println(err)
		return
	}

	data, _ := xrotate.ReadLocked(path)
	fmt.Print(string(data))
	// Output:
	// level=INFO msg="service started" component=billing
}

func ExampleNewHandler() {
	inner := slog.NewTextHandler(failingWriter{}, nil)
	h := xlog.NewHandler(inner, func(_ context.Context, r slog.Record, err error) {
		fmt.Printf("lost %q: %v\n", r.Message, err)
	})

	slog.New(h).Warn("disk almost full")
	fmt.Println("errors:", h.ErrorCount())
	// Output:
	// lost "disk almost full": no space left
	// errors: 1
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("no space left") }

func ExampleRegistry() {
	dir, err := os.MkdirTemp("", "xlog-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	reg := xlog.NewRegistry()
	for _, name := range []string{"access", "audit"} {
		if _, err := reg.Open(name, xrotate.Config{Path: filepath.Join(dir, name+".log")}); err != nil {
			fmt.Println(err)
			return
		}
	}
	fmt.Println(reg.Names())
	fmt.Println(reg.Stop())
	// Output:
	// [access audit]
	// <nil>
}
