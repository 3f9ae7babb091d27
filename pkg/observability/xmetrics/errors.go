package xmetrics

import "errors"

// ErrNilSource 未提供计数来源
var ErrNilSource = errors.New("xmetrics: stats source is required")
