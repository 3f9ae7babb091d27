package xfile

import "errors"

var (
	// ErrEmptyPath 表示必需的路径参数为空。
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrInvalidPath 表示路径格式无效（如目录路径、非绝对路径等）。
	ErrInvalidPath = errors.New("xfile: invalid path")

	// ErrPathTraversal 表示检测到 ".." 路径段。
	ErrPathTraversal = errors.New("xfile: path traversal detected")

	// ErrPathEscaped 表示路径超出了基准目录范围。
	ErrPathEscaped = errors.New("xfile: path escapes base directory")

	// ErrNullByte 表示路径中包含空字节。
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrNotDir 表示目标存在但不是目录。
	ErrNotDir = errors.New("xfile: not a directory")

	// ErrNotWritable 表示目录不可写。
	ErrNotWritable = errors.New("xfile: directory is not writable")

	// ErrInvalidPerm 表示目录权限缺少所有者执行位。
	ErrInvalidPerm = errors.New("xfile: invalid directory permission")
)
