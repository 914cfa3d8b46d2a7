package xlog

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/omeyang/xclog/pkg/observability/xrotate"
)

// Registry 按名称管理轮转器，进程退出前用 Stop 统一关闭
//
// Registry 是普通对象，不存在包级全局实例；需要在多处共享时显式传递。
//
//	reg := xlog.NewRegistry()
//	defer reg.Stop()
//	w, err := reg.Open("access", cfg)
type Registry struct {
	mu      sync.RWMutex
	entries map[string]xrotate.Rotator
	order   []string
	stopped bool
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]xrotate.Rotator)}
}

// Register 以 name 注册 r，名称不能重复
func (r *Registry) Register(name string, rot xrotate.Rotator) error {
	if name == "" {
		return ErrEmptyName
	}
	if rot == nil {
		return ErrNilRotator
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRegistryStopped
	}
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.entries[name] = rot
	r.order = append(r.order, name)
	return nil
}

// Open 按配置创建 Writer 并以 name 注册，注册失败时关闭刚创建的 Writer
func (r *Registry) Open(name string, c xrotate.Config, opts ...xrotate.Option) (*xrotate.Writer, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	w, err := xrotate.NewFromConfig(c, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(name, w); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (r *Registry) Get(name string) (xrotate.Rotator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rot, ok := r.entries[name]
	return rot, ok
}

// Names 按注册顺序返回名称
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Stop 按注册的逆序关闭全部轮转器，之后 Register 返回 [ErrRegistryStopped]
//
// 已经被关闭过的轮转器（返回 xrotate.ErrClosed）不算错误。重复调用返回 nil。
func (r *Registry) Stop() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	order := r.order
	entries := r.entries
	r.order = nil
	r.entries = make(map[string]xrotate.Rotator)
	r.mu.Unlock()

	var errs []error
	for _, name := range slices.Backward(order) {
		if err := entries[name].Close(); err != nil && !errors.Is(err, xrotate.ErrClosed) {
			errs = append(errs, fmt.Errorf("xlog: close %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
