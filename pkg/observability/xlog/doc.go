// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
// Builder 为一次性使用，遇到第一个配置错误后后续 Set 被跳过，错误由 Build 返回：
//
//	logger, cleanup, err := xlog.New().
//		SetLevel(xlog.LevelInfo).
//		SetAddSource(true).
//		SetOutput(sink).
//		SetOutputCloser(guard).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// 输出通常是 xsink.Sink：Handler 在调用方 goroutine 上格式化，
// 字节交给非阻塞队列，由后台 worker 写盘。cleanup 关闭 SetOutputCloser 指定的资源，
// 多次调用只生效一次。
//
// # 内部错误
//
// Handler 写入失败不会返回给业务代码，计数后交给 SetOnError 回调。
// 回调不能再写同一个 Logger；递归调用会被跳过。
//
// # 全局 Logger
//
// [Default]/[SetDefault] 与 [Debug]、[Info]、[Warn]、[Error]、[Stack] 便利函数，
// 供启动代码等无法注入 Logger 的地方使用。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，[ParseLevel] 大小写不敏感。
// 级别保存在共享的 slog.LevelVar 中，派生 Logger 同步生效。
package xlog
