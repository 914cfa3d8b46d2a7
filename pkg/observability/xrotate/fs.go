package xrotate

import (
	"errors"
	"io/fs"
	"os"
)

//go:generate mockgen -source=fs.go -destination=mock_fs_test.go -package=xrotate

// fileSystem 轮转过程中可能失败的文件系统操作
//
// 生产实现直接转发到 os 包；测试注入失败以覆盖降级与推迟路径。
type fileSystem interface {
	Rename(oldpath, newpath string) error
	Remove(name string) error
	Stat(name string) (os.FileInfo, error)
}

type osFS struct{}

func (osFS) Rename(oldpath, newpath string) error  { return os.Rename(oldpath, newpath) }
func (osFS) Remove(name string) error              { return os.Remove(name) }
func (osFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func exists(fsys fileSystem, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil
}

// removeIfExists 删除文件，不存在不算错误
func removeIfExists(fsys fileSystem, name string) error {
	if err := fsys.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
