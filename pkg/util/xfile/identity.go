package xfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// 可注入的系统调用，仅用于测试
var (
	statFn = os.Stat
	openFn = os.Open
)

// SameFile 判断已打开的句柄 f 与路径 path 当前是否指向同一个文件。
//
// 其他进程轮转后，path 会指向新建的文件，而 f 仍指向被改名的旧文件，
// 此时返回 false。path 不存在时返回 (false, nil)。
func SameFile(f *os.File, path string) (bool, error) {
	if f == nil {
		return false, ErrNilFile
	}
	held, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("xfile: stat open handle %s: %w", f.Name(), err)
	}
	current, err := statFn(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("xfile: stat %s: %w", path, err)
	}
	return os.SameFile(held, current), nil
}

// Exists 报告 path 是否存在。stat 出错（包括权限不足）按不存在处理。
func Exists(path string) bool {
	_, err := statFn(path)
	return err == nil
}

// Size 返回 path 的当前字节数。
//
// 优先使用 stat；stat 失败且不是"文件不存在"时，退化为打开文件后 seek 到
// 末尾读取偏移量。文件不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)。
func Size(path string) (int64, error) {
	info, err := statFn(path)
	if err == nil {
		return info.Size(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}

	f, openErr := openFn(path)
	if openErr != nil {
		return 0, errors.Join(err, openErr)
	}
	defer f.Close()

	n, seekErr := f.Seek(0, io.SeekEnd)
	if seekErr != nil {
		return 0, errors.Join(err, seekErr)
	}
	return n, nil
}
