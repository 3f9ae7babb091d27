//go:build unix

package xfile

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

// 替换包级变量，不可并行。
func TestCheckWritableDir_AccessDenied(t *testing.T) {
	old := accessFn
	t.Cleanup(func() { accessFn = old })
	accessFn = func(string, uint32) error { return unix.EACCES }

	err := CheckWritableDir(t.TempDir())
	if !errors.Is(err, ErrNotWritable) {
		t.Fatalf("err = %v, want ErrNotWritable", err)
	}
	if !errors.Is(err, unix.EACCES) {
		t.Errorf("err = %v, want wrapped EACCES", err)
	}
}
