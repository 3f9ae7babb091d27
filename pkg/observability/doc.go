// Package observability 日志与指标相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog
//   - xsink: 非阻塞日志队列，单 worker 写盘
//   - xrotate: 日志文件轮转（按天、按大小）
//   - xmetrics: 日志队列计数的 OpenTelemetry 指标
//
// 数据流：xlog → xsink → xrotate。
package observability
