package xfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultDirPerm 日志目录与锁目录的默认权限（rwxr-x---）。
const DefaultDirPerm = 0750

// EnsureDir 以 [DefaultDirPerm] 创建 filename 的父目录。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 创建 filename 的父目录。
//
// filename 是文件路径而不是目录路径。perm 必须包含所有者执行位，否则目录无法进入。
// 目录已存在时不修改其权限；另一进程并发创建同一目录导致的 EEXIST 视为成功。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return MkdirAll(dir, perm)
}

// MkdirAll 创建目录 dir 及其所有父目录。
//
// 与 os.MkdirAll 的区别是：权限缺少所有者执行位时直接拒绝，并且把竞争
// 导致的 "already exists" 当作成功，只要最终 dir 确实是目录。
func MkdirAll(dir string, perm os.FileMode) error {
	if dir == "" {
		return fmt.Errorf("directory is required: %w", ErrEmptyPath)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	err := os.MkdirAll(dir, perm)
	if err == nil || !errors.Is(err, fs.ErrExist) {
		return err
	}
	info, statErr := os.Stat(dir)
	if statErr != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory: %w", dir, ErrInvalidPath)
	}
	return nil
}
