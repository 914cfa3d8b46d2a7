//go:build !unix

package xrotate

// applyOwner 非 Unix 平台没有 POSIX 属主概念，忽略
func applyOwner(string, Owner) error { return nil }
