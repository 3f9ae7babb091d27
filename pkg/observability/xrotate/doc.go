// Package xrotate 提供日志文件轮转功能。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate）。
//
// # 当前实现
//
//   - [NewDaily]: 按自然日轮转，文件名为 "{prefix}{YYYY-MM-DD}{suffix}"，
//     按保留数量删除最旧的文件。Daily 同时实现 [TimedRotator]，
//     由记录自身的时间戳决定写入哪个文件。
//   - [NewLumberjack]: 基于 lumberjack v2 的按大小轮转。
//
// # 组成
//
//   - [Policy]: 纯决策逻辑。给定时间返回活跃文件名，给定历史文件列表返回需要删除的文件。
//   - [FileWriter]: 负责打开、写入、切换文件句柄，不负责创建目录。
//   - [Daily]: 持有轮转状态（当前周期、打开的句柄），串起 Policy 与 FileWriter。
//
// # 并发模型
//
// Daily 不是并发安全的：它的轮转状态只能由一个 goroutine 持有和修改，
// 通常是 xsink 的后台 worker。这样文件 I/O 不需要任何锁。
// lumberjack 实现是并发安全的。
//
// # 错误
//
//   - [ErrConfiguration]: 构造期错误（目录不存在、不可写、参数非法），致命。
//   - [*IOError]: 单次打开或写入失败，非致命，调用方丢弃该记录后继续。
//   - [*PruneError]: 删除历史文件失败，非致命，下次轮转时再尝试。
//
// 内部错误通过 OnError 回调上报，不经过日志库，避免 Rotator 作为日志输出目标时递归写入。
package xrotate
