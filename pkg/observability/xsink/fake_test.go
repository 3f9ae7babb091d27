package xsink

import (
	"sync"
	"time"

	"github.com/omeyang/apc/pkg/observability/xrotate"
)

// memRotator 内存中的 TimedRotator，可设置每次写入的延迟或阻塞点
type memRotator struct {
	mu      sync.Mutex
	records [][]byte
	times   []time.Time
	closed  bool
	rotates int

	delay   time.Duration
	entered chan struct{} // 每次写入开始时发送（非阻塞）
	release chan struct{} // 非 nil 时写入等待它被关闭
}

var _ xrotate.TimedRotator = (*memRotator)(nil)

func (r *memRotator) Write(p []byte) (int, error) {
	return r.WriteAt(time.Time{}, p)
}

func (r *memRotator) WriteAt(t time.Time, p []byte) (int, error) {
	if r.entered != nil {
		select {
		case r.entered <- struct{}{}:
		default:
		}
	}
	if r.release != nil {
		<-r.release
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, xrotate.ErrClosed
	}
	r.records = append(r.records, append([]byte(nil), p...))
	r.times = append(r.times, t)
	return len(p), nil
}

func (r *memRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotates++
	return nil
}

func (r *memRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return xrotate.ErrClosed
	}
	r.closed = true
	return nil
}

func (r *memRotator) snapshot() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.records))
	copy(out, r.records)
	return out
}

func (r *memRotator) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
