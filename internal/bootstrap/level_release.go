//go:build !debug

package bootstrap

import "github.com/omeyang/apc/pkg/observability/xlog"

// DefaultLevel 发布构建默认输出 Info 级别
const DefaultLevel = xlog.LevelInfo
