package xsink

import (
	"sync"
	"time"

	"github.com/omeyang/apc/pkg/observability/xrotate"
)

// Guard 持有 Sink 的关闭责任。Release 可重复调用，只有第一次生效。
type Guard struct {
	sink    *Sink
	timeout time.Duration
	once    sync.Once
	status  ShutdownStatus
}

// Open 创建并启动 Sink，返回关闭用的 Guard。
//
// 调用方应在创建成功后立即 defer guard.Release()，
// 进程退出前必须等 Release 返回，否则队列中的记录会丢失。
func Open(rotator xrotate.Rotator, opts ...Option) (*Sink, *Guard, error) {
	s, err := New(rotator, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Start(); err != nil {
		return nil, nil, err
	}
	return s, &Guard{sink: s, timeout: DefaultShutdownTimeout}, nil
}

// Release 以 [DefaultShutdownTimeout] 关闭 Sink 并返回结果。
//
// nil Guard 上调用返回 ShutdownDrained。
func (g *Guard) Release() ShutdownStatus {
	if g == nil {
		return ShutdownDrained
	}
	g.once.Do(func() {
		g.status = g.sink.Shutdown(g.timeout)
	})
	return g.status
}

// Close 实现 io.Closer，便于交给 xlog 的 cleanup。超时返回 [ErrShutdownTimeout]。
func (g *Guard) Close() error {
	if g.Release() == ShutdownTimedOut {
		return ErrShutdownTimeout
	}
	return nil
}
