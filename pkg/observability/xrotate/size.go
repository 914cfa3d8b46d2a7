package xrotate

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/omeyang/xclog/pkg/util/xfile"
)

// sizePolicy 按大小轮转
//
// 备份链为 path.1 … path.N（可能带 .gz），1 最新，N 最旧。
type sizePolicy struct {
	maxBytes    int64
	backupCount int
	namer       func(string) string
}

// NewSize 创建按大小轮转的 Writer
//
// 日志文件达到 [WithMaxBytes] 时轮转。[WithBackupCount] 为 0 时原地截断。
//
//	w, err := xrotate.NewSize("/var/log/app.log",
//	    xrotate.WithMaxBytes(100<<20),
//	    xrotate.WithBackupCount(5),
//	    xrotate.WithGzip(true),
//	)
func NewSize(filename string, opts ...Option) (*Writer, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	w, err := newWriter(filename, cfg)
	if err != nil {
		return nil, err
	}
	w.policy = newSizePolicy(&w.cfg)
	return w, nil
}

func newSizePolicy(cfg *config) *sizePolicy {
	return &sizePolicy{
		maxBytes:    cfg.maxBytes,
		backupCount: cfg.backupCount,
		namer:       cfg.namer,
	}
}

func (p *sizePolicy) name() string { return "size" }

// exceeded 日志文件当前大小是否已达到阈值
func (p *sizePolicy) exceeded(w *Writer) (bool, error) {
	if p.maxBytes <= 0 {
		return false, nil
	}
	size, err := xfile.Size(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("xrotate: size of %s: %w", w.path, err)
	}
	return size >= p.maxBytes, nil
}

func (p *sizePolicy) shouldRotate(w *Writer) (string, error) {
	over, err := p.exceeded(w)
	if err != nil {
		return "", err
	}
	if !over {
		w.degraded.Store(false)
		return "", nil
	}
	return triggerSize, nil
}

func (p *sizePolicy) rotate(w *Writer, trigger string) error {
	var errs []error
	if err := w.closeFile(w.cfg.gzip); err != nil {
		errs = append(errs, err)
	}

	if p.backupCount <= 0 {
		if err := w.truncateActive(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		w.rotated(p.name(), trigger)
		return errors.Join(errs...)
	}

	tmp, moved, err := w.moveAside()
	if err != nil || !moved {
		return errors.Join(append(errs, err)...)
	}
	src := w.compressBackup(tmp)

	// 扫描整个保留区间，中间有空位时更高序号的备份仍然会被移动
	for i := p.backupCount - 1; i >= 1; i-- {
		if err := p.shift(w, p.backupName(w.path, i), p.backupName(w.path, i+1)); err != nil {
			errs = append(errs, err)
		}
	}

	if err := w.place(src, p.backupName(w.path, 1)); err != nil {
		// 临时文件保留在磁盘上，数据不丢失
		return errors.Join(append(errs, err)...)
	}
	w.rotated(p.name(), trigger)
	return errors.Join(errs...)
}

// shift 把序号 i 的备份（明文或压缩）移到序号 i+1
func (p *sizePolicy) shift(w *Writer, src, dst string) error {
	for _, from := range []string{src + gzExt, src} {
		if exists(w.fs, from) {
			return w.place(from, dst)
		}
	}
	return nil
}

// backupName 第 i 个备份的文件名（不含 .gz）
func (p *sizePolicy) backupName(path string, i int) string {
	name := fmt.Sprintf("%s.%d", path, i)
	if p.namer != nil {
		return p.namer(name)
	}
	return name
}
