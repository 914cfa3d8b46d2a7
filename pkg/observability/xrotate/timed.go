package xrotate

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// timedPolicy 按时间轮转，同时组合一个按大小的触发条件
//
// 下一次轮转时刻保存在锁文件中，所有进程读取同一个值，因此无论何时启动
// 都在同一个边界上轮转。
type timedPolicy struct {
	size        *sizePolicy
	sched       schedule
	suffix      *suffixPattern
	backupCount int
}

// NewTimed 创建按时间轮转的 Writer
//
// 轮转出的文件名为 "<path>.<strftime(suffix, 区间起点)>"，同名已存在时追加 ".1"、".2" …。
// [WithBackupCount] 为 0 时保留全部备份。[WithMaxBytes] 非 0 时达到大小也会轮转，
// 但不推进时间边界。
//
//	w, err := xrotate.NewTimed("/var/log/app.log",
//	    xrotate.WithWhen(xrotate.WhenMidnight),
//	    xrotate.WithBackupCount(7),
//	)
func NewTimed(filename string, opts ...Option) (*Writer, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	sched, err := newSchedule(&cfg)
	if err != nil {
		return nil, err
	}
	pattern := cfg.suffix
	if pattern == "" {
		pattern = DefaultSuffix(sched.when)
	}
	suffix, err := newSuffixPattern(pattern)
	if err != nil {
		return nil, err
	}

	w, err := newWriter(filename, cfg)
	if err != nil {
		return nil, err
	}
	p := &timedPolicy{
		size:        newSizePolicy(&w.cfg),
		sched:       sched,
		suffix:      suffix,
		backupCount: cfg.backupCount,
	}
	w.policy = p

	if err := p.initialize(w); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (p *timedPolicy) name() string { return "timed" }

// initialize 锁文件中没有有效边界时写入第一个边界
func (p *timedPolicy) initialize(w *Writer) error {
	w.mu.Lock()
	err := p.initializeLocked(w)
	pending := w.takePending()
	w.mu.Unlock()

	w.report(pending)
	return err
}

func (p *timedPolicy) initializeLocked(w *Writer) error {
	if err := w.locker.lock(); err != nil {
		return err
	}
	defer w.unlock()

	_, err := p.boundary(w)
	return err
}

// boundary 读取持久化的下一次轮转时刻，缺失或损坏时计算并写回
func (p *timedPolicy) boundary(w *Writer) (time.Time, error) {
	next, ok, err := w.locker.readState()
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return time.Unix(next, 0).In(p.sched.loc), nil
	}
	b := p.sched.first(w.now())
	if err := w.locker.writeState(b.Unix()); err != nil {
		return time.Time{}, err
	}
	return b, nil
}

func (p *timedPolicy) shouldRotate(w *Writer) (string, error) {
	b, err := p.boundary(w)
	if err != nil {
		return "", err
	}
	if !w.now().Before(b) {
		return triggerTime, nil
	}
	over, err := p.size.exceeded(w)
	if err != nil {
		return "", err
	}
	if over {
		return triggerSize, nil
	}
	return "", nil
}

func (p *timedPolicy) rotate(w *Writer, trigger string) error {
	now := w.now()
	b, err := p.boundary(w)
	if err != nil {
		return err
	}

	var errs []error
	if err := w.closeFile(w.cfg.gzip); err != nil {
		errs = append(errs, err)
	}

	tmp, moved, err := w.moveAside()
	if err != nil {
		// 边界不推进，下一次写入重试
		return errors.Join(append(errs, err)...)
	}
	if moved {
		src := w.compressBackup(tmp)
		dst := p.freeName(w, w.path+"."+p.suffix.format(p.sched.previous(b)))
		if err := w.place(src, dst); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := p.enforceRetention(w); err != nil {
			errs = append(errs, err)
		}
		w.rotated(p.name(), trigger)
	}

	// 大小触发时 b 仍在未来，边界保持不变
	if next := p.sched.advance(b, now); !next.Equal(b) {
		if err := w.locker.writeState(next.Unix()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// freeName 返回明文与 .gz 形式都不存在的文件名
func (p *timedPolicy) freeName(w *Writer, base string) string {
	name := base
	for i := 1; exists(w.fs, name) || exists(w.fs, name+gzExt); i++ {
		name = fmt.Sprintf("%s.%d", base, i)
	}
	return name
}

type timedBackup struct {
	name string
	at   time.Time
	seq  int
}

// enforceRetention 删除最旧的备份，只保留 backupCount 个
func (p *timedPolicy) enforceRetention(w *Writer) error {
	if p.backupCount <= 0 {
		return nil
	}
	backups, err := p.listBackups(w.path)
	if err != nil {
		return err
	}
	if len(backups) <= p.backupCount {
		return nil
	}

	var errs []error
	for _, b := range backups[:len(backups)-p.backupCount] {
		if err := removeIfExists(w.fs, b.name); err != nil {
			errs = append(errs, fmt.Errorf("xrotate: remove expired backup %s: %w", b.name, err))
		}
	}
	return errors.Join(errs...)
}

// listBackups 按时间从旧到新列出 path 的时间备份
func (p *timedPolicy) listBackups(path string) ([]timedBackup, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("xrotate: list %s: %w", dir, err)
	}

	var backups []timedBackup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		stamp, seq, ok := p.suffix.match(strings.TrimSuffix(name[len(prefix):], gzExt))
		if !ok {
			continue
		}
		at, ok := p.suffix.parse(stamp, p.sched.loc)
		if !ok {
			info, err := e.Info()
			if err != nil {
				continue
			}
			at = info.ModTime()
		}
		backups = append(backups, timedBackup{name: filepath.Join(dir, name), at: at, seq: seq})
	}

	slices.SortFunc(backups, func(a, b timedBackup) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return backups, nil
}
