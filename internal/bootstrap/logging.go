package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/apc/pkg/observability/xlog"
	"github.com/omeyang/apc/pkg/observability/xmetrics"
	"github.com/omeyang/apc/pkg/observability/xrotate"
	"github.com/omeyang/apc/pkg/observability/xsink"
	"github.com/omeyang/apc/pkg/util/xfile"
)

// Logging 已装配的日志链路
type Logging struct {
	Logger xlog.LoggerWithLevel
	Sink   *xsink.Sink

	cleanup  func() error
	metrics  metric.Registration
	once     sync.Once
	closeErr error
}

// LoggingOption InitLogging 选项
type LoggingOption func(*loggingOptions)

type loggingOptions struct {
	meterProvider metric.MeterProvider
	now           func() time.Time
}

// WithMeterProvider 指定注册队列指标的 MeterProvider，默认使用全局 Provider
func WithMeterProvider(mp metric.MeterProvider) LoggingOption {
	return func(o *loggingOptions) {
		o.meterProvider = mp
	}
}

// WithClock 指定日志记录时间戳与日期轮转使用的时钟
func WithClock(now func() time.Time) LoggingOption {
	return func(o *loggingOptions) {
		o.now = now
	}
}

// InitLogging 按配置装配日志链路并启动写入 worker。
//
// 日志目录不存在时创建。目录不可写等配置问题在 worker 启动前返回，
// 错误包装 xrotate.ErrConfiguration。链路内部故障（写入失败、清理失败）
// 写到 errOut，errOut 为 nil 时使用 os.Stderr。
//
// 调用方必须在进程退出前调用 Close。
func InitLogging(cfg LogConfig, level xlog.Level, errOut io.Writer, opts ...LoggingOption) (*Logging, error) {
	if err := (Config{Log: cfg}).Validate(); err != nil {
		return nil, err
	}
	o := &loggingOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	report := newReporter(errOut)

	rotator, err := newRotator(cfg, report, o.now)
	if err != nil {
		return nil, err
	}

	sink, guard, err := xsink.Open(rotator,
		xsink.WithCapacity(cfg.QueueCapacity),
		xsink.WithClock(o.now),
		xsink.WithOnError(report),
		xsink.WithReopenWatch(true),
	)
	if err != nil {
		return nil, errors.Join(err, rotator.Close())
	}

	logger, cleanup, err := xlog.New().
		SetOutput(sink).
		SetOutputCloser(guard).
		SetLevel(level).
		SetFormat("text").
		SetAddSource(true).
		SetOnError(report).
		Build()
	if err != nil {
		return nil, errors.Join(err, guard.Close())
	}

	var metricOpts []xmetrics.Option
	if o.meterProvider != nil {
		metricOpts = append(metricOpts, xmetrics.WithMeterProvider(o.meterProvider))
	}
	reg, err := xmetrics.RegisterSinkStats(sink, metricOpts...)
	if err != nil {
		return nil, errors.Join(err, cleanup())
	}

	return &Logging{
		Logger:  logger,
		Sink:    sink,
		cleanup: cleanup,
		metrics: reg,
	}, nil
}

// Close 注销指标并排空队列，重复调用返回第一次的结果。
// 排空超时时返回包装 xsink.ErrShutdownTimeout 的错误。
func (l *Logging) Close() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		var errs []error
		if l.metrics != nil {
			errs = append(errs, l.metrics.Unregister())
		}
		errs = append(errs, l.cleanup())
		l.closeErr = errors.Join(errs...)
	})
	return l.closeErr
}

// Stats 返回日志队列的诊断计数
func (l *Logging) Stats() xsink.Stats {
	return l.Sink.Stats()
}

func newRotator(cfg LogConfig, report func(error), now func() time.Time) (xrotate.Rotator, error) {
	// EnsureDir 创建的是文件的父目录
	if err := xfile.EnsureDir(filepath.Join(cfg.Dir, logPrefix)); err != nil {
		return nil, fmt.Errorf("%w: create log directory %s: %w", xrotate.ErrConfiguration, cfg.Dir, err)
	}

	switch cfg.Rotation {
	case RotationSize:
		if err := xfile.CheckWritableDir(cfg.Dir); err != nil {
			return nil, fmt.Errorf("%w: log directory %s: %w", xrotate.ErrConfiguration, cfg.Dir, err)
		}
		return xrotate.NewLumberjack(filepath.Join(cfg.Dir, sizeLogName),
			xrotate.WithMaxSize(cfg.MaxSizeMB),
			xrotate.WithMaxBackups(cfg.MaxRotationCount),
			xrotate.WithLocalTime(cfg.LocalTime),
		)
	default:
		loc := time.UTC
		if cfg.LocalTime {
			loc = time.Local
		}
		return xrotate.NewDaily(cfg.Dir,
			xrotate.WithPrefix(logPrefix),
			xrotate.WithSuffix(logSuffix),
			xrotate.WithMaxFiles(cfg.MaxRotationCount),
			xrotate.WithLocation(loc),
			xrotate.WithClock(now),
			xrotate.WithOnError(report),
		)
	}
}

// newReporter 内部故障回调可能来自 worker、cron 与目录监视三个 goroutine
func newReporter(w io.Writer) func(error) {
	var mu sync.Mutex
	return func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "apc: log: %v\n", err)
	}
}
