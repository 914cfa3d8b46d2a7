//go:build unix

package xrotate

import (
	"fmt"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

var chown = unix.Chown

// applyOwner 把 path 的属主改为 owner，字段为空的部分保持不变（-1）
func applyOwner(path string, owner Owner) error {
	if owner.User == "" && owner.Group == "" {
		return nil
	}
	uid, gid := -1, -1
	if owner.User != "" {
		id, err := lookupID(owner.User, func(name string) (string, error) {
			u, err := user.Lookup(name)
			if err != nil {
				return "", err
			}
			return u.Uid, nil
		})
		if err != nil {
			return fmt.Errorf("xrotate: lookup user %q: %w", owner.User, err)
		}
		uid = id
	}
	if owner.Group != "" {
		id, err := lookupID(owner.Group, func(name string) (string, error) {
			g, err := user.LookupGroup(name)
			if err != nil {
				return "", err
			}
			return g.Gid, nil
		})
		if err != nil {
			return fmt.Errorf("xrotate: lookup group %q: %w", owner.Group, err)
		}
		gid = id
	}
	if err := chown(path, uid, gid); err != nil {
		return fmt.Errorf("xrotate: chown %s: %w", path, err)
	}
	return nil
}

// lookupID 名称可以直接是数字 ID
func lookupID(name string, lookup func(string) (string, error)) (int, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return id, nil
	}
	s, err := lookup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}
