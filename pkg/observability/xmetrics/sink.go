package xmetrics

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/apc/pkg/observability/xsink"
)

const (
	metricEnqueued      = "apc.log.records.enqueued"
	metricWritten       = "apc.log.records.written"
	metricDropped       = "apc.log.records.dropped"
	metricFailedWrites  = "apc.log.writes.failed"
	metricFailedPrunes  = "apc.log.prunes.failed"
	metricQueueLength   = "apc.log.queue.length"
	metricQueueCapacity = "apc.log.queue.capacity"
)

// StatsSource 提供诊断计数快照，*xsink.Sink 满足。
type StatsSource interface {
	Stats() xsink.Stats
}

// RegisterSinkStats 注册日志队列指标，返回的 Registration 用于注销回调。
func RegisterSinkStats(source StatsSource, opts ...Option) (metric.Registration, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	cfg := &config{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	counters := []struct {
		name string
		desc string
		get  func(xsink.Stats) uint64
		inst metric.Int64ObservableCounter
	}{
		{name: metricEnqueued, desc: "records accepted by the queue", get: func(s xsink.Stats) uint64 { return s.Enqueued }},
		{name: metricWritten, desc: "records written to disk", get: func(s xsink.Stats) uint64 { return s.Written }},
		{name: metricDropped, desc: "records dropped on overflow, after close or on shutdown timeout", get: func(s xsink.Stats) uint64 { return s.Dropped }},
		{name: metricFailedWrites, desc: "records dropped because the write failed", get: func(s xsink.Stats) uint64 { return s.FailedWrites }},
		{name: metricFailedPrunes, desc: "old log files that could not be deleted", get: func(s xsink.Stats) uint64 { return s.FailedPrunes }},
	}
	instruments := make([]metric.Observable, 0, len(counters)+2)
	for i := range counters {
		c, err := meter.Int64ObservableCounter(counters[i].name,
			metric.WithDescription(counters[i].desc),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("xmetrics: create counter %s failed: %w", counters[i].name, err)
		}
		counters[i].inst = c
		instruments = append(instruments, c)
	}

	queueLen, err := meter.Int64ObservableGauge(metricQueueLength,
		metric.WithDescription("records waiting in the queue"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xmetrics: create gauge %s failed: %w", metricQueueLength, err)
	}
	queueCap, err := meter.Int64ObservableGauge(metricQueueCapacity,
		metric.WithDescription("queue capacity"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xmetrics: create gauge %s failed: %w", metricQueueCapacity, err)
	}
	instruments = append(instruments, queueLen, queueCap)

	attrOpt := metric.WithAttributeSet(attribute.NewSet(cfg.attrs...))
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		st := source.Stats()
		for _, c := range counters {
			o.ObserveInt64(c.inst, clampInt64(c.get(st)), attrOpt)
		}
		o.ObserveInt64(queueLen, int64(st.QueueLen), attrOpt)
		o.ObserveInt64(queueCap, int64(st.QueueCap), attrOpt)
		return nil
	}, instruments...)
	if err != nil {
		return nil, fmt.Errorf("xmetrics: register callback failed: %w", err)
	}
	return reg, nil
}

// clampInt64 将 uint64 计数转换为 OTel 使用的 int64，溢出时取最大值
func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
