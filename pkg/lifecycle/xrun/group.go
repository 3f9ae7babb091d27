package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/apc/pkg/observability/xlog"
)

// Group 管理一组并发服务，任一服务出错时取消其余服务。
//
// Go 与 Cancel 可并发调用，Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 context 在任一服务出错或 Cancel 后取消。
// nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 启动名为 name 的服务
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilService
		}
		log := g.opts.logger
		log.Debug(g.ctx, "service starting", g.attrs(name)...)

		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn(g.ctx, "service exited with error", append(g.attrs(name), xlog.Err(err))...)
		} else {
			log.Debug(g.ctx, "service stopped", g.attrs(name)...)
		}
		return err
	})
}

// Wait 等待所有服务返回。
//
// 由 Cancel 或信号导致的 context.Canceled 被过滤，改为返回取消原因；
// 没有显式原因时返回 nil。服务自身返回的 context.Canceled 原样返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.opts.logger.Debug(context.Background(), "all services stopped", g.attrs("")...)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil && g.causeCtx.Err() == nil {
		return err
	}
	if g.causeCtx.Err() != nil {
		if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
	}
	return nil
}

// Cancel 以 cause 为原因取消所有服务，Wait 将返回 cause。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context
func (g *Group) Context() context.Context {
	return g.ctx
}

func (g *Group) attrs(service string) []slog.Attr {
	attrs := []slog.Attr{slog.String("group", g.opts.name)}
	if service != "" {
		attrs = append(attrs, slog.String("service", service))
	}
	return attrs
}
