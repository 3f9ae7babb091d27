//go:build debug

package bootstrap

import "github.com/omeyang/apc/pkg/observability/xlog"

// DefaultLevel debug 构建默认输出 Debug 级别
const DefaultLevel = xlog.LevelDebug
