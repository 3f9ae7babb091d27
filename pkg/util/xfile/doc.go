// Package xfile 提供日志目录相关的路径工具。
//
// # 路径拼接
//
// [SafeJoin] 把文件名拼到基准目录下，并保证结果不逃出该目录。
// 轮转文件名由配置中的前缀、日期和后缀组成，前缀来自配置文件，
// 必须经过 SafeJoin 才能落盘。
//
// [SanitizePath] 只做格式净化（空路径、空字节、相对路径穿越、目录路径）。
//
// # 目录检查
//
// [CheckWritableDir] 校验目录存在且当前进程可写。Unix 平台使用 access(2)，
// 其他平台通过创建探测文件判断。
//
// [EnsureDir] 创建文件的父目录，仅用于写入默认配置文件；
// 日志目录不会被自动创建，调用方必须预先准备。
package xfile
