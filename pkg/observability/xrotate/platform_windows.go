//go:build windows

package xrotate

// Windows 上打开的文件无法被其他进程改名，日志文件必须写完即关
const forceCloseAfterWrite = true
