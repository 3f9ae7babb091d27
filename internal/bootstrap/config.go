package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omeyang/apc/pkg/observability/xrotate"
	"github.com/omeyang/apc/pkg/observability/xsink"
)

// DefaultConfigFile 默认配置文件名
const DefaultConfigFile = "apc_conf.json"

// 轮转方式
const (
	RotationDaily = "daily"
	RotationSize  = "size"
)

// 日志文件命名
const (
	logPrefix   = "apc-log_"
	logSuffix   = ".log"
	sizeLogName = "apc.log"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("bootstrap: invalid config")

// Config 应用配置
type Config struct {
	Log LogConfig `koanf:"log_config"`
}

// LogConfig 日志配置，未出现在配置文件中的字段保留默认值
type LogConfig struct {
	// Dir 日志目录
	Dir string `koanf:"log_dir"`

	// MaxRotationCount 保留的日志文件数量
	MaxRotationCount int `koanf:"log_max_rotation_count"`

	// Rotation 轮转方式：daily 或 size
	Rotation string `koanf:"log_rotation"`

	// MaxSizeMB size 轮转时单个文件的大小上限
	MaxSizeMB int `koanf:"log_max_size_mb"`

	// QueueCapacity 异步队列容量
	QueueCapacity int `koanf:"log_queue_capacity"`

	// LocalTime 文件名日期使用本地时区，默认 UTC
	LocalTime bool `koanf:"log_local_time"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Dir:              "./log",
			MaxRotationCount: xrotate.DefaultMaxFiles,
			Rotation:         RotationDaily,
			MaxSizeMB:        xrotate.DefaultMaxSizeMB,
			QueueCapacity:    xsink.DefaultCapacity,
			LocalTime:        false,
		},
	}
}

// Validate 校验配置。
//
// 这里只做值域检查，目录是否可写由 InitLogging 在构造轮转器时校验。
func (c Config) Validate() error {
	l := c.Log
	var errs []error
	if strings.TrimSpace(l.Dir) == "" {
		errs = append(errs, errors.New("log_dir is required"))
	}
	if l.MaxRotationCount < 0 {
		errs = append(errs, fmt.Errorf("log_max_rotation_count must be >= 0, got %d", l.MaxRotationCount))
	}
	switch l.Rotation {
	case RotationDaily:
	case RotationSize:
		if l.MaxSizeMB <= 0 {
			errs = append(errs, fmt.Errorf("log_max_size_mb must be > 0, got %d", l.MaxSizeMB))
		}
		if l.MaxRotationCount == 0 {
			errs = append(errs, errors.New("log_max_rotation_count must be > 0 for size rotation"))
		}
	default:
		errs = append(errs, fmt.Errorf("log_rotation must be %q or %q, got %q", RotationDaily, RotationSize, l.Rotation))
	}
	if l.QueueCapacity <= 0 {
		errs = append(errs, fmt.Errorf("log_queue_capacity must be > 0, got %d", l.QueueCapacity))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// toMap 用于写出默认配置文件，键与 koanf 标签一致
func (c Config) toMap() map[string]any {
	return map[string]any{
		"log_config": map[string]any{
			"log_dir":                c.Log.Dir,
			"log_max_rotation_count": c.Log.MaxRotationCount,
			"log_rotation":           c.Log.Rotation,
			"log_max_size_mb":        c.Log.MaxSizeMB,
			"log_queue_capacity":     c.Log.QueueCapacity,
			"log_local_time":         c.Log.LocalTime,
		},
	}
}
