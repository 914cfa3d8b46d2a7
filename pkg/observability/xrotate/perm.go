package xrotate

import (
	"errors"
	"fmt"
	"os"
)

var chmodFn = os.Chmod

// applyCreatedPerm 在新建文件后调整权限与属主，失败为非致命错误
func applyCreatedPerm(path string, perm os.FileMode, chmod bool, owner Owner) error {
	var errs []error
	if chmod {
		//#nosec G302 -- 权限由调用方配置决定
		if err := chmodFn(path, perm); err != nil {
			errs = append(errs, fmt.Errorf("xrotate: chmod %s: %w", path, err))
		}
	}
	if err := applyOwner(path, owner); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
