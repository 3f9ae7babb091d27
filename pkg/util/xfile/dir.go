package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 默认目录权限（所有者 rwx，组 r-x）。
const DefaultDirPerm = 0750

// EnsureDir 确保文件的父目录存在，使用 [DefaultDirPerm] 创建。
// 目录已存在时不修改其权限。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 确保文件的父目录存在，使用指定权限创建。
// perm 必须包含所有者执行位，否则目录无法遍历。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// CheckWritableDir 校验 dir 存在、是目录并且当前进程可以在其中创建文件。
//
// 不会创建目录。返回的错误包装 [ErrNotDir]、[ErrNotWritable] 或 os 层错误
// （如 fs.ErrNotExist），调用方可用 errors.Is 区分。
func CheckWritableDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory is required: %w", ErrEmptyPath)
	}
	if containsNullByte(dir) {
		return fmt.Errorf("directory contains null byte: %w", ErrNullByte)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("xfile: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDir, dir)
	}
	if err := accessWritable(dir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotWritable, dir, err)
	}
	return nil
}
