// Package xrun 基于 errgroup 的进程生命周期管理。
//
// [Run] 并发运行应用服务并监听终止信号：
//   - 所有服务返回后 Run 返回，一次性任务型进程可以自然退出
//   - 任一服务返回错误时取消其余服务，Run 返回该错误
//   - 收到信号时取消所有服务，Run 返回 *[SignalError]
//
// 典型用法：
//
//	guard := ... // 日志 Guard
//	defer guard.Release()
//
//	err := xrun.Run(ctx, []xrun.Option{xrun.WithLogger(logger)},
//		xrun.Named("app", app.Run),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//		// 被信号中断
//	}
//
// 服务函数应监听 ctx.Done() 并尽快返回。
package xrun
