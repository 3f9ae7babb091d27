// Package xmetrics 把日志队列的诊断计数导出为 OpenTelemetry 指标。
//
// # 使用示例
//
//	reg, err := xmetrics.RegisterSinkStats(sink,
//		xmetrics.WithAttributes(attribute.String("sink", "apc")),
//	)
//	if err != nil {
//		return err
//	}
//	defer reg.Unregister()
//
// # 指标命名
//
// 累计计数（observable counter）：
//   - apc.log.records.enqueued
//   - apc.log.records.written
//   - apc.log.records.dropped
//   - apc.log.writes.failed
//   - apc.log.prunes.failed
//
// 瞬时值（observable gauge）：
//   - apc.log.queue.length
//   - apc.log.queue.capacity
//
// 指标在采集时通过回调读取快照，热路径没有额外开销。
// 默认使用全局 MeterProvider，未配置 SDK 时为 no-op。
package xmetrics
