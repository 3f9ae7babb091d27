package xsink

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/apc/pkg/observability/xrotate"
)

//go:generate mockgen -destination=mock_rotator_test.go -package=xsink github.com/omeyang/apc/pkg/observability/xrotate Rotator,TimedRotator

// Record 一条待写出的日志记录。入队后所有权转移给 Sink，调用方不得再修改 Data。
type Record struct {
	Time time.Time
	Data []byte
}

// ShutdownStatus 关闭结果
type ShutdownStatus int

const (
	// ShutdownDrained 队列已写完，文件已关闭
	ShutdownDrained ShutdownStatus = iota

	// ShutdownTimedOut 超时，剩余记录被丢弃
	ShutdownTimedOut
)

// String 返回状态名称
func (s ShutdownStatus) String() string {
	switch s {
	case ShutdownDrained:
		return "drained"
	case ShutdownTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("ShutdownStatus(%d)", int(s))
	}
}

// Stats 诊断计数快照
type Stats struct {
	Enqueued     uint64 // 成功入队
	Written      uint64 // 成功写盘
	Dropped      uint64 // 队列满、关闭后到达、超时未写
	FailedWrites uint64 // 写盘失败（记录已丢弃）
	FailedPrunes uint64 // 历史文件删除失败
	QueueLen     int
	QueueCap     int
}

// periodic 提供轮转时区的轮转器
type periodic interface {
	Policy() xrotate.Policy
}

// watchable 可被目录监视驱动重新打开的轮转器，*xrotate.Daily 满足。
type watchable interface {
	xrotate.Reopener
	periodic
	Dir() string
}

// Sink 非阻塞日志队列，见包文档。
type Sink struct {
	rotator xrotate.Rotator
	timed   xrotate.TimedRotator
	opts    options

	// mu 保护 closed 与向 queue 发送；生产者持读锁，关闭持写锁
	mu     sync.RWMutex
	closed bool
	queue  chan Record

	rotateCh chan struct{}
	reopenCh chan struct{}
	done     chan struct{}
	abort    atomic.Bool

	lifeMu  sync.Mutex
	started bool
	cron    *cron.Cron
	watcher *xrotate.RemovalWatcher

	shutdownOnce   sync.Once
	shutdownStatus ShutdownStatus

	enqueued     atomic.Uint64
	written      atomic.Uint64
	dropped      atomic.Uint64
	failedWrites atomic.Uint64
}

// New 创建 Sink，不启动 worker。
func New(rotator xrotate.Rotator, opts ...Option) (*Sink, error) {
	if rotator == nil {
		return nil, ErrNilRotator
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.capacity <= 0 || o.capacity > maxCapacity {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidCapacity, o.capacity, maxCapacity)
	}

	s := &Sink{
		rotator:  rotator,
		opts:     o,
		queue:    make(chan Record, o.capacity),
		rotateCh: make(chan struct{}, 1),
		reopenCh: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if timed, ok := rotator.(xrotate.TimedRotator); ok {
		s.timed = timed
		if o.schedule != "" {
			c, err := newRotateCron(rotator, o.schedule, s.signalRotate, cronLogger{report: s.report})
			if err != nil {
				return nil, err
			}
			s.cron = c
		}
	}
	return s, nil
}

// newRotateCron 在轮转器所在时区创建定时轮转调度
func newRotateCron(rotator xrotate.Rotator, spec string, fn func(), logger cron.Logger) (*cron.Cron, error) {
	loc := time.UTC
	if p, ok := rotator.(periodic); ok {
		loc = p.Policy().Location()
	}
	c := cron.New(cron.WithLocation(loc), cron.WithLogger(logger))
	if _, err := c.AddFunc(spec, fn); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	return c, nil
}

// cronLogger 把 cron 内部错误转给 OnError，丢弃常规信息
type cronLogger struct {
	report func(error)
}

func (l cronLogger) Info(string, ...any) {}

func (l cronLogger) Error(err error, msg string, _ ...any) {
	l.report(fmt.Errorf("xsink: cron %s: %w", msg, err))
}

// Start 启动 worker 与调度。重复调用返回 [ErrAlreadyStarted]。
func (s *Sink) Start() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	go s.run()
	if s.cron != nil {
		s.cron.Start()
	}
	if s.opts.reopenWatch {
		s.startWatch()
	}
	return nil
}

// startWatch 监视日志目录。失败只上报，不影响写入。
func (s *Sink) startWatch() {
	w, ok := s.rotator.(watchable)
	if !ok {
		return
	}
	policy := w.Policy()
	watcher, err := xrotate.WatchRemoval(w.Dir(),
		func(name string) bool {
			_, ok := policy.ParseFileName(name)
			return ok
		},
		func(string) { s.signalReopen() },
		s.report,
	)
	if err != nil {
		s.report(err)
		return
	}
	s.watcher = watcher
}

// Enqueue 将记录放入队列，从不阻塞。
//
// 队列满或已关闭时记录被丢弃，Dropped 加一。
func (s *Sink) Enqueue(rec Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- rec:
		s.enqueued.Add(1)
	default:
		s.dropped.Add(1)
	}
}

// Write 复制 p 并以当前时钟入队，实现 io.Writer。
//
// 总是返回 len(p), nil：是否落盘只体现在 Stats 中。
func (s *Sink) Write(p []byte) (int, error) {
	data := make([]byte, len(p))
	copy(data, p)
	s.Enqueue(Record{Time: s.opts.now(), Data: data})
	return len(p), nil
}

// Shutdown 停止接收新记录，等待最多 timeout 让 worker 写完队列并关闭文件。
//
// 未启动的 Sink 会先启动 worker 以写出已排队的记录。
// 可并发、重复调用，返回第一次调用的结果。
func (s *Sink) Shutdown(timeout time.Duration) ShutdownStatus {
	s.shutdownOnce.Do(func() {
		s.shutdownStatus = s.shutdown(timeout)
	})
	return s.shutdownStatus
}

func (s *Sink) shutdown(timeout time.Duration) ShutdownStatus {
	s.lifeMu.Lock()
	if !s.started {
		s.started = true
		go s.run()
	}

	s.mu.Lock()
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.stopAux()
	s.lifeMu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.done:
		return ShutdownDrained
	case <-timer.C:
		s.abort.Store(true)
		return ShutdownTimedOut
	}
}

// stopAux 停止调度与目录监视，返回后不会再有新信号
func (s *Sink) stopAux() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.report(err)
		}
	}
}

// Done 返回 worker 退出时关闭的 channel
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// Stats 返回诊断计数快照（并发安全）。
func (s *Sink) Stats() Stats {
	st := Stats{
		Enqueued:     s.enqueued.Load(),
		Written:      s.written.Load(),
		Dropped:      s.dropped.Load(),
		FailedWrites: s.failedWrites.Load(),
		QueueLen:     len(s.queue),
		QueueCap:     cap(s.queue),
	}
	if pr, ok := s.rotator.(xrotate.PruneReporter); ok {
		st.FailedPrunes = pr.PruneFailures()
	}
	return st
}

// signalRotate 请求 worker 轮转，未处理的请求会合并
func (s *Sink) signalRotate() {
	select {
	case s.rotateCh <- struct{}{}:
	default:
	}
}

// signalReopen 请求 worker 检查活跃文件，未处理的请求会合并
func (s *Sink) signalReopen() {
	select {
	case s.reopenCh <- struct{}{}:
	default:
	}
}

// report 通过回调上报内部错误，回调 panic 被隔离。
func (s *Sink) report(err error) {
	if err != nil && s.opts.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		s.opts.onError(err)
	}
}

// run worker 主循环，轮转状态只在这里访问。
func (s *Sink) run() {
	defer close(s.done)

	// failing 标记连续失败，只上报每段失败的第一次
	failing := false
	for {
		select {
		case rec, ok := <-s.queue:
			if !ok {
				s.closeRotator()
				return
			}
			failing = s.write(rec, failing)

		case <-s.rotateCh:
			if err := s.rotator.Rotate(); err != nil {
				s.report(fmt.Errorf("xsink: scheduled rotate: %w", err))
			}

		case <-s.reopenCh:
			if r, ok := s.rotator.(xrotate.Reopener); ok {
				if err := r.ReopenIfMissing(); err != nil {
					s.report(fmt.Errorf("xsink: reopen: %w", err))
				}
			}
		}
	}
}

// write 写出一条记录，返回写完后是否处于失败状态
func (s *Sink) write(rec Record, failing bool) bool {
	if s.abort.Load() {
		s.dropped.Add(1)
		return failing
	}

	var err error
	if s.timed != nil {
		_, err = s.timed.WriteAt(rec.Time, rec.Data)
	} else {
		_, err = s.rotator.Write(rec.Data)
	}
	if err != nil {
		s.failedWrites.Add(1)
		if !failing {
			s.report(fmt.Errorf("xsink: write failed, dropping records until recovery: %w", err))
		}
		return true
	}
	s.written.Add(1)
	return false
}

func (s *Sink) closeRotator() {
	if err := s.rotator.Close(); err != nil && !errors.Is(err, xrotate.ErrClosed) {
		s.report(fmt.Errorf("xsink: close: %w", err))
	}
}
