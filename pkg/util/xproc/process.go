package xproc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// 测试中替换
var (
	osExecutable = os.Executable
	osGetpid     = os.Getpid
)

var (
	nameOnce  sync.Once
	nameValue string
)

// Identity 进程标识
type Identity struct {
	PID  int
	Name string
}

// Current 返回当前进程的标识。进程名在首次调用时解析并缓存。
func Current() Identity {
	nameOnce.Do(func() { nameValue = resolveName() })
	return Identity{PID: osGetpid(), Name: nameValue}
}

// String 形如 "billing[4242]"，进程名未知时只有 "[4242]"
func (id Identity) String() string {
	return fmt.Sprintf("%s[%d]", id.Name, id.PID)
}

// LogValue 实现 slog.LogValuer；进程名为空时省略 name
func (id Identity) LogValue() slog.Value {
	if id.Name == "" {
		return slog.GroupValue(slog.Int("pid", id.PID))
	}
	return slog.GroupValue(slog.Int("pid", id.PID), slog.String("name", id.Name))
}

// resolveName 优先取可执行文件名，失败时回退到 os.Args[0]
func resolveName() string {
	if exe, err := osExecutable(); err == nil && exe != "" {
		if name := baseName(exe); name != "" {
			return name
		}
	}
	if len(os.Args) == 0 {
		return ""
	}
	return baseName(os.Args[0])
}

// baseName filepath.Base 对空路径和根目录返回的 "."、"/" 视为无名
func baseName(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
