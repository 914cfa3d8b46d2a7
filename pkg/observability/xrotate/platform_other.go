//go:build !windows

package xrotate

const forceCloseAfterWrite = false
