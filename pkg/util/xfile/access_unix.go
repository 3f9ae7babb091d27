//go:build unix

package xfile

import "golang.org/x/sys/unix"

// accessFn 可在测试中替换以覆盖错误路径。
var accessFn = unix.Access

// accessWritable 使用 access(2) 检查写和遍历权限，不产生任何文件。
func accessWritable(dir string) error {
	return accessFn(dir, unix.W_OK|unix.X_OK)
}
