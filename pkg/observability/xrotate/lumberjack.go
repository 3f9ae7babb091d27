package xrotate

import (
	"fmt"
	"sync/atomic"

	"github.com/omeyang/apc/pkg/util/xfile"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Lumberjack 默认配置值
const (
	// DefaultMaxSizeMB 默认单个日志文件最大大小（MB）
	DefaultMaxSizeMB = 100

	// DefaultMaxAgeDays 默认保留备份的天数，0 表示不按天数清理
	DefaultMaxAgeDays = 0

	// maxSizeMB 单个日志文件大小上限（10 GB）
	maxSizeMB = 10240

	// maxAgeDays 备份保留天数上限（约 10 年）
	maxAgeDays = 3650
)

// lumberjackConfig 按大小轮转的配置
type lumberjackConfig struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	localTime  bool
}

// LumberjackOption lumberjack 配置选项函数
type LumberjackOption func(*lumberjackConfig)

// WithMaxSize 设置单个日志文件最大大小（MB），超过时触发轮转
func WithMaxSize(mb int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.maxSizeMB = mb
	}
}

// WithMaxBackups 设置保留的备份文件数量（不含当前文件）
func WithMaxBackups(n int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.maxBackups = n
	}
}

// WithMaxAge 设置保留备份的天数
func WithMaxAge(days int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.maxAgeDays = days
	}
}

// WithLocalTime 设置备份文件名中的时间戳是否使用本地时间（默认 UTC）
func WithLocalTime(local bool) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.localTime = local
	}
}

// lumberjackRotator 基于 lumberjack 的 Rotator 实现，并发安全。
//
// 备份文件不压缩。
type lumberjackRotator struct {
	logger *lumberjack.Logger
	closed atomic.Bool
}

// NewLumberjack 创建按大小轮转的 Rotator。
//
// filename 的父目录应已存在；备份数量必须大于 0 或设置了保留天数，
// 否则 lumberjack 会无限保留备份。
func NewLumberjack(filename string, opts ...LumberjackOption) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := lumberjackConfig{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxFiles,
		maxAgeDays: DefaultMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateLumberjack(&cfg); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			LocalTime:  cfg.localTime,
		},
	}, nil
}

// validateLumberjack 验证 lumberjack 配置
func validateLumberjack(cfg *lumberjackConfig) error {
	if cfg.maxSizeMB <= 0 || cfg.maxSizeMB > maxSizeMB {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, cfg.maxSizeMB, maxSizeMB)
	}
	if cfg.maxBackups < 0 || cfg.maxBackups > maxFiles {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, cfg.maxBackups, maxFiles)
	}
	if cfg.maxAgeDays < 0 || cfg.maxAgeDays > maxAgeDays {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, cfg.maxAgeDays, maxAgeDays)
	}
	if cfg.maxBackups == 0 && cfg.maxAgeDays == 0 {
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrConfiguration)
	}
	return nil
}

// Write 实现 io.Writer 接口
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil {
		// Close 可能在 logger.Write 执行期间完成，统一返回 ErrClosed
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, &IOError{Op: "write", Path: r.logger.Filename, Err: err}
	}
	return n, nil
}

// Close 实现 io.Closer 接口。重复调用返回 [ErrClosed]。
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

// Rotate 手动触发轮转
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return &IOError{Op: "rotate", Path: r.logger.Filename, Err: err}
	}
	return nil
}
