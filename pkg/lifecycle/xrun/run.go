package xrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Service 可由 Run 管理的服务
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc 函数适配为 Service
type ServiceFunc func(ctx context.Context) error

func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

type namedService struct {
	name string
	fn   func(ctx context.Context) error
}

func (s namedService) Run(ctx context.Context) error { return s.fn(ctx) }

func (s namedService) Name() string { return s.name }

// Named 返回带名称的 Service，名称用于生命周期日志
func Named(name string, fn func(ctx context.Context) error) Service {
	if fn == nil {
		return nil
	}
	return namedService{name: name, fn: fn}
}

// DefaultSignals 默认监听的信号：SIGHUP、SIGINT、SIGTERM、SIGQUIT。
// 每次调用返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// Run 运行 services 直到全部返回，期间监听终止信号。
//
// 信号监听不会让 Run 继续阻塞：最后一个服务返回后监听随即退出。
// 收到信号时以 *SignalError 取消所有服务并由 Run 返回。
func Run(ctx context.Context, opts []Option, services ...Service) error {
	g, _ := NewGroup(ctx, opts...)

	servicesDone := make(chan struct{})
	var running sync.WaitGroup
	for i, svc := range services {
		running.Add(1)
		g.Go(serviceName(svc, i), func(ctx context.Context) error {
			defer running.Done()
			if svc == nil {
				return ErrNilService
			}
			return svc.Run(ctx)
		})
	}
	go func() {
		running.Wait()
		close(servicesDone)
	}()

	if !g.opts.noSignalHandler {
		signals := g.opts.signals
		// signal.Notify 不带信号参数会订阅全部信号
		if len(signals) == 0 {
			signals = DefaultSignals()
		}
		g.eg.Go(func() error {
			g.watchSignals(g.ctx, signals, servicesDone)
			return nil
		})
	}

	return g.Wait()
}

func (g *Group) watchSignals(ctx context.Context, signals []os.Signal, done <-chan struct{}) {
	testc := testSigChan(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	var sig os.Signal
	select {
	case sig = <-testc:
	case sig = <-sigCh:
	case <-done:
		return
	case <-ctx.Done():
		return
	}

	g.opts.logger.Info(ctx, "received signal",
		slog.String("group", g.opts.name),
		slog.String("signal", sig.String()),
	)
	g.cancel(&SignalError{Signal: sig})
}

func serviceName(svc Service, i int) string {
	if n, ok := svc.(interface{ Name() string }); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("service-%d", i)
}

// testSigChanKey 测试通过 context 注入信号，避免向测试进程发送真实信号
type testSigChanKey struct{}

func testSigChan(ctx context.Context) <-chan os.Signal {
	c, ok := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	if !ok {
		return nil
	}
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}
