package xrotate

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration 配置错误：目录缺失/不可写、参数非法。构造期返回，致命。
	ErrConfiguration = errors.New("xrotate: invalid configuration")

	// ErrIO 单次打开/写入/关闭失败。通过 [*IOError] 返回，非致命。
	ErrIO = errors.New("xrotate: i/o failure")

	// ErrPrune 删除历史文件失败。通过 [*PruneError] 返回，非致命。
	ErrPrune = errors.New("xrotate: prune failure")

	// ErrClosed 轮转器或句柄已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")

	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（必须在 0~3650 范围内）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")
)

// IOError 描述一次文件打开、写入或关闭失败。
//
// errors.Is(err, ErrIO) 为 true，errors.Unwrap 返回底层 os 错误。
type IOError struct {
	Op   string // open / write / close
	Path string
	Err  error
}

// Error 实现 error 接口。
func (e *IOError) Error() string {
	return fmt.Sprintf("xrotate: %s %s: %v", e.Op, e.Path, e.Err)
}

// Is 支持 errors.Is(err, ErrIO)。
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// Unwrap 返回底层错误。
func (e *IOError) Unwrap() error {
	return e.Err
}

// PruneError 描述一个历史文件删除失败。
type PruneError struct {
	Path string
	Err  error
}

// Error 实现 error 接口。
func (e *PruneError) Error() string {
	return fmt.Sprintf("xrotate: prune %s: %v", e.Path, e.Err)
}

// Is 支持 errors.Is(err, ErrPrune)。
func (e *PruneError) Is(target error) bool {
	return target == ErrPrune
}

// Unwrap 返回底层错误。
func (e *PruneError) Unwrap() error {
	return e.Err
}
