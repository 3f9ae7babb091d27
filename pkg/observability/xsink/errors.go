package xsink

import "errors"

var (
	// ErrAlreadyStarted Start 被重复调用
	ErrAlreadyStarted = errors.New("xsink: already started")

	// ErrNilRotator 未提供轮转器
	ErrNilRotator = errors.New("xsink: rotator is required")

	// ErrInvalidCapacity 队列容量无效（必须在 1~1048576 范围内）
	ErrInvalidCapacity = errors.New("xsink: invalid queue capacity")

	// ErrShutdownTimeout 关闭超时，部分记录未写出
	ErrShutdownTimeout = errors.New("xsink: shutdown timed out")

	// ErrInvalidSchedule 轮转调度表达式无效
	ErrInvalidSchedule = errors.New("xsink: invalid rotate schedule")
)
