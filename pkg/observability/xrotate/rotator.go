package xrotate

import (
	"io"
	"time"
)

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]。额外提供 Rotate 方法用于手动触发轮转。
//
// 扩展新实现时，必须满足以下约定：
//   - Close 后调用 Write 或 Rotate 应返回 [ErrClosed]
//   - 重复调用 Close 应返回 [ErrClosed]
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入日志数据
	Write(p []byte) (n int, err error)

	// Close 关闭轮转器，释放资源
	Close() error

	// Rotate 手动触发日志轮转
	Rotate() error
}

// TimedRotator 按记录时间戳选择轮转周期的 Rotator。
//
// WriteAt 使用 t 而不是当前时钟决定目标文件，保证排队中的记录
// 落到它产生时所在的周期文件里。
type TimedRotator interface {
	Rotator

	// WriteAt 将 p 写入 t 所在周期的文件
	WriteAt(t time.Time, p []byte) (n int, err error)
}

// Reopener 可以在活跃文件被外部删除或改名后重新打开它。
type Reopener interface {
	// ReopenIfMissing 活跃文件不存在时重新打开，存在时不做任何事
	ReopenIfMissing() error
}

// PruneReporter 报告累计的删除失败次数，供诊断计数使用。
type PruneReporter interface {
	PruneFailures() uint64
}
