package xlog

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// global 全局 Logger，未设置时惰性创建 stderr/Info/text 的默认实例
var global atomic.Pointer[LoggerWithLevel]

// Default 返回全局 Logger
func Default() LoggerWithLevel {
	if l := global.Load(); l != nil {
		return *l
	}
	var l LoggerWithLevel = newFallback()
	if global.CompareAndSwap(nil, &l) {
		return l
	}
	return *global.Load()
}

// newFallback 默认参数构建，不会失败
func newFallback() *xlogger {
	levelVar := new(slog.LevelVar)
	return &xlogger{
		handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}),
		shared:  &shared{levelVar: levelVar},
	}
}

// SetDefault 替换全局 Logger，nil 被忽略
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	global.Store(&l)
}

// ResetDefault 恢复为未设置状态（用于测试）
func ResetDefault() {
	global.Store(nil)
}

// logGlobal 全局函数比实例方法少一层 log，帧数与实例路径一致
func logGlobal(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.emit(ctx, level, msg, attrs, callerSkip)
		return
	}
	switch level {
	case slog.LevelDebug:
		l.Debug(ctx, msg, attrs...)
	case slog.LevelInfo:
		l.Info(ctx, msg, attrs...)
	case slog.LevelWarn:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

// Debug 使用全局 Logger 记录 Debug 日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelDebug, msg, attrs)
}

// Info 使用全局 Logger 记录 Info 日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelInfo, msg, attrs)
}

// Warn 使用全局 Logger 记录 Warn 日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelWarn, msg, attrs)
}

// Error 使用全局 Logger 记录 Error 日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelError, msg, attrs)
}

// Stack 使用全局 Logger 记录带调用栈的错误日志
func Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.stack(ctx, msg, attrs, callerSkip-1)
		return
	}
	l.Stack(ctx, msg, attrs...)
}
