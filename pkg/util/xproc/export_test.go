package xproc

import "sync"

// stubProcess 替换进程信息来源并清空名称缓存，测试结束时恢复
func stubProcess(exe func() (string, error), pid int) func() {
	origExe, origPid := osExecutable, osGetpid
	osExecutable = exe
	osGetpid = func() int { return pid }
	resetName()
	return func() {
		osExecutable, osGetpid = origExe, origPid
		resetName()
	}
}

func resetName() {
	nameOnce = sync.Once{}
	nameValue = ""
}
