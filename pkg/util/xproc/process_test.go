package xproc

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	id := Current()
	assert.Equal(t, os.Getpid(), id.PID)
	assert.NotEmpty(t, id.Name)
	assert.NotContains(t, id.Name, string(os.PathSeparator))
}

// 修改 os.Args 与包级变量，不可并行
func TestResolveName(t *testing.T) {
	errExe := errors.New("no /proc")
	tests := []struct {
		name string
		exe  string
		err  error
		args []string
		want string
	}{
		{"可执行文件", "/usr/local/bin/billing", nil, []string{"ignored"}, "billing"},
		{"回退到参数", "", errExe, []string{"./bin/worker"}, "worker"},
		{"可执行文件为根目录", "/", nil, []string{"/opt/app"}, "app"},
		{"参数为空", "", errExe, nil, ""},
		{"首个参数为空", "", errExe, []string{""}, ""},
		{"参数为当前目录", "", errExe, []string{"."}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			defer func() { os.Args = origArgs }()
			os.Args = tt.args

			restore := stubProcess(func() (string, error) { return tt.exe, tt.err }, 4242)
			defer restore()

			id := Current()
			assert.Equal(t, Identity{PID: 4242, Name: tt.want}, id)
		})
	}
}

func TestCurrentCachesName(t *testing.T) {
	calls := 0
	restore := stubProcess(func() (string, error) {
		calls++
		return "/bin/once", nil
	}, 1)
	defer restore()

	for range 3 {
		assert.Equal(t, "once", Current().Name)
	}
	assert.Equal(t, 1, calls)
}

func TestIdentityString(t *testing.T) {
	assert.Equal(t, "billing[4242]", Identity{PID: 4242, Name: "billing"}.String())
	assert.Equal(t, "[7]", Identity{PID: 7}.String())
}

func TestIdentityLogValue(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want string
	}{
		{"完整", Identity{PID: 4242, Name: "billing"}, "process.pid=4242 process.name=billing\n"},
		{"无进程名", Identity{PID: 7}, "process.pid=7\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
				ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
					if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
						return slog.Attr{}
					}
					return a
				},
			})
			slog.New(h).Info("", slog.Any("process", tt.id))
			require.Equal(t, tt.want, buf.String())
		})
	}
}

func BenchmarkCurrent(b *testing.B) {
	for b.Loop() {
		_ = Current()
	}
}
