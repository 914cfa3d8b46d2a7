package xrotate

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

const (
	gzExt = ".gz"

	// compressChunkSize 压缩时每次读取的块大小，内存占用与文件大小无关
	compressChunkSize = 64 << 10
)

// newCompressor 构造 gzip 写入器，测试中替换以注入中途失败
var newCompressor = func(w io.Writer) io.WriteCloser {
	return gzip.NewWriter(w)
}

// compressFile 把 src 压缩为 src.gz 并删除 src，返回最终存在的文件名
//
// 任何一步失败都删除不完整的 .gz 并保留 src，返回 src 与包装了
// [ErrCompressFailed] 的错误。不会出现两者都不存在或只剩残缺 .gz 的情况。
func compressFile(fsys fileSystem, src string) (string, error) {
	dst := src + gzExt
	if err := writeGzip(src, dst); err != nil {
		_ = removeIfExists(fsys, dst)
		return src, fmt.Errorf("%w: %s: %w", ErrCompressFailed, src, err)
	}
	if err := fsys.Remove(src); err != nil {
		// 原文件删不掉时保留原文件，放弃 .gz，避免同一份数据出现两次
		_ = removeIfExists(fsys, dst)
		return src, fmt.Errorf("%w: remove %s: %w", ErrCompressFailed, src, err)
	}
	return dst, nil
}

func writeGzip(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	perm := DefaultFileMode
	if info, statErr := in.Stat(); statErr == nil {
		perm = info.Mode().Perm()
	}

	//#nosec G304 -- dst 由轮转器内部生成
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if out != nil {
			err = errors.Join(err, out.Close())
		}
	}()

	zw := newCompressor(out)
	buf := make([]byte, compressChunkSize)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, err := zw.Write(buf[:n]); err != nil {
				_ = zw.Close()
				return err
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			_ = zw.Close()
			return readErr
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	closeErr := out.Close()
	out = nil
	return closeErr
}
