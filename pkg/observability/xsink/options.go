package xsink

import "time"

const (
	// DefaultCapacity 默认队列容量
	DefaultCapacity = 8192

	// DefaultShutdownTimeout Guard.Release 使用的关闭超时
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultRotateSchedule 默认轮转调度：每天零点
	DefaultRotateSchedule = "@midnight"

	// maxCapacity 队列容量上限
	maxCapacity = 1 << 20
)

// OverflowPolicy 队列满时的处理策略
type OverflowPolicy int

const (
	// OverflowDropNewest 丢弃正在入队的新记录，已排队的记录不受影响
	OverflowDropNewest OverflowPolicy = iota
)

// String 返回策略名称
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowDropNewest:
		return "drop-newest"
	default:
		return "unknown"
	}
}

// options Sink 配置
type options struct {
	capacity    int
	now         func() time.Time
	onError     func(error)
	schedule    string
	reopenWatch bool
}

func defaultOptions() options {
	return options{
		capacity: DefaultCapacity,
		now:      time.Now,
		schedule: DefaultRotateSchedule,
	}
}

// Option Sink 配置选项
type Option func(*options)

// WithCapacity 设置队列容量
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithClock 设置 Write 打时间戳用的时钟
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithOnError 设置内部错误回调。
//
// 回调在 worker 或调度 goroutine 上同步执行，不得向同一个 Sink 写入，
// 否则队列满时记录会被丢弃，关闭后会被静默丢弃。
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithRotateSchedule 设置定时轮转的 cron 表达式（支持 "@midnight" 等描述符）。
//
// 空字符串关闭定时轮转。只对 [xrotate.TimedRotator] 生效。
func WithRotateSchedule(spec string) Option {
	return func(o *options) {
		o.schedule = spec
	}
}

// WithReopenWatch 设置是否监视日志目录，活跃文件被外部删除后重新创建。
//
// 只对同时提供 Dir/Policy/ReopenIfMissing 的轮转器（如 *xrotate.Daily）生效。
func WithReopenWatch(enable bool) Option {
	return func(o *options) {
		o.reopenWatch = enable
	}
}
