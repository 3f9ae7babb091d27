//go:build !unix

package xfile

import "os"

// accessWritable 在非 Unix 平台上通过创建并删除探测文件判断可写性。
func accessWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".xfile-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Remove(name)
}
