// Package xsink 提供非阻塞的日志落盘队列。
//
// # 模型
//
// 任意数量的生产者调用 [Sink.Enqueue] 或 [Sink.Write]，记录进入一个容量固定的
// FIFO 队列；唯一的后台 worker goroutine 依次取出记录交给 [xrotate.Rotator] 写盘。
// 轮转状态与文件句柄只在 worker 上访问，文件 I/O 无需加锁。
//
// 生产者永远不会因 I/O 阻塞：
//   - 队列满时丢弃新到的记录（[OverflowDropNewest]），Dropped 计数加一
//   - 关闭后到达的记录同样丢弃并计数
//   - 写入失败的记录直接丢弃，FailedWrites 计数加一，不重试
//
// 未被丢弃的记录按入队顺序写出。
//
// # 控制信号
//
// 除记录外，worker 还处理两种可合并的信号：
//   - 轮转：轮转器实现 [xrotate.TimedRotator] 时，robfig/cron 在每天零点
//     （轮转器所在时区）发出，即使午夜前后没有日志也会切换文件并清理
//   - 重新打开：开启 [WithReopenWatch] 后，活跃文件被外部删除或改名时由 fsnotify 发出
//
// # 关闭
//
// [Sink.Shutdown] 关闭队列并等待 worker 写完剩余记录、关闭文件；
// 超时后 worker 不再写盘，剩余记录计入 Dropped，返回 [ShutdownTimedOut]。
// 超时只是一个结果，不是错误。重复调用返回第一次的结果。
//
// [Open] 返回的 [Guard] 把关闭包装为幂等的 Release，适合配合 defer 使用：
//
//	sink, guard, err := xsink.Open(rotator, xsink.WithCapacity(8192))
//	if err != nil {
//		return err
//	}
//	defer guard.Release()
//
// # 诊断
//
// [Sink.Stats] 随时返回计数快照，可通过 xmetrics.RegisterSinkStats 导出为 OTel 指标。
// 内部错误通过 [WithOnError] 回调上报，不经过日志系统，避免递归。
package xsink
