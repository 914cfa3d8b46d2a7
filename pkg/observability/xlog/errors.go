package xlog

import "errors"

// 配置错误
var (
	// ErrUnknownLevel 无法识别的级别名称
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrUnknownFormat 输出格式不是 text 或 json
	ErrUnknownFormat = errors.New("xlog: unknown format")

	// ErrNilOutput SetOutput 传入 nil
	ErrNilOutput = errors.New("xlog: nil output")

	// ErrBuilderUsed Builder 已经 Build 过
	ErrBuilderUsed = errors.New("xlog: builder already built")
)

// Registry 错误
var (
	ErrEmptyName       = errors.New("xlog: empty rotator name")
	ErrNilRotator      = errors.New("xlog: nil rotator")
	ErrDuplicateName   = errors.New("xlog: rotator name already registered")
	ErrRegistryStopped = errors.New("xlog: registry stopped")
)
