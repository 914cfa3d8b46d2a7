//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package xflock

import "os"

func lock(*os.File, Mode) error { return ErrUnsupportedPlatform }

func unlock(*os.File) error { return ErrUnsupportedPlatform }
