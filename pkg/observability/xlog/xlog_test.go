package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/omeyang/apc/pkg/observability/xlog"
)

func build(t *testing.T, b *xlog.Builder) xlog.LoggerWithLevel {
	t.Helper()
	logger, cleanup, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Errorf("cleanup error: %v", err)
		}
	})
	return logger
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetLevel(xlog.LevelDebug))
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=\"debug message\"",
		"level=INFO msg=\"info message\"",
		"level=WARN msg=\"warn message\"",
		"level=ERROR msg=\"error message\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\noutput: %s", want, out)
		}
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))

	logger.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", buf.String())
	}

	logger.SetLevel(xlog.LevelDebug)
	if got := logger.GetLevel(); got != xlog.LevelDebug {
		t.Fatalf("GetLevel() = %v, want DEBUG", got)
	}
	if !logger.Enabled(context.Background(), xlog.LevelDebug) {
		t.Fatal("debug should be enabled after SetLevel")
	}
	logger.Debug(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug not written after SetLevel: %q", buf.String())
	}
}

func TestLogger_DerivedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))
	child := logger.With(slog.String("component", "sink")).WithGroup("g")

	logger.SetLevel(xlog.LevelError)
	child.Info(context.Background(), "filtered")
	if buf.Len() != 0 {
		t.Fatalf("child should follow parent level, got %q", buf.String())
	}

	logger.SetLevel(xlog.LevelInfo)
	child.Info(context.Background(), "kept", slog.Int("n", 1))
	out := buf.String()
	if !strings.Contains(out, "component=sink") || !strings.Contains(out, "g.n=1") {
		t.Fatalf("unexpected derived output: %q", out)
	}

	if logger.With() != xlog.Logger(logger) {
		t.Error("With() without attrs should return the same logger")
	}
	if logger.WithGroup("") != xlog.Logger(logger) {
		t.Error("WithGroup(\"\") should return the same logger")
	}
}

func TestLogger_AddSourceReportsCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetAddSource(true))

	logger.Info(context.Background(), "where")
	if !strings.Contains(buf.String(), "xlog_test.go:") {
		t.Fatalf("source should point at the caller, got %q", buf.String())
	}
}

func TestLogger_StackAttachesTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetFormat("json").SetAddSource(true))

	logger.Stack(context.Background(), "boom", xlog.Err(errors.New("bad")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if rec["level"] != "ERROR" || rec["error"] != "bad" {
		t.Fatalf("unexpected record: %v", rec)
	}
	stack, _ := rec[xlog.KeyStack].(string)
	if !strings.Contains(stack, "goroutine") {
		t.Fatalf("stack missing: %q", stack)
	}
	src, _ := rec[slog.SourceKey].(map[string]any)
	if file, _ := src["file"].(string); !strings.HasSuffix(file, "xlog_test.go") {
		t.Fatalf("source should point at the caller, got %v", src)
	}
}

func TestLogger_NilContext(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))

	//nolint:staticcheck // 验证 nil ctx 不 panic
	logger.Info(nil, "nil ctx")
	if !strings.Contains(buf.String(), "nil ctx") {
		t.Fatalf("nil ctx should still log, got %q", buf.String())
	}
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name string
		b    *xlog.Builder
	}{
		{"未知格式", xlog.New().SetFormat("xml")},
		{"未知级别", xlog.New().SetLevelString("verbose")},
		{"nil 输出", xlog.New().SetOutput(nil)},
		{"首个错误生效", xlog.New().SetFormat("xml").SetLevelString("debug")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, cleanup, err := tt.b.Build()
			if err == nil {
				t.Fatal("Build() should fail")
			}
			if logger != nil || cleanup != nil {
				t.Fatal("Build() should return nil logger and cleanup on error")
			}
		})
	}
}

func TestBuilder_FormatAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().
		SetOutput(&buf).
		SetFormat(" JSON ").
		SetLevelString("warning").
		SetAttrs(slog.String("app", "apc")).
		SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}))

	logger.Warn(context.Background(), "json out")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec["app"] != "apc" || rec["msg"] != "json out" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, ok := rec[slog.TimeKey]; ok {
		t.Fatal("time should be removed by ReplaceAttr")
	}
}

type recordingCloser struct {
	name  string
	order *[]string
	err   error
}

func (c *recordingCloser) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestBuilder_CleanupClosesOnce(t *testing.T) {
	var order []string
	closeErr := errors.New("close failed")
	_, cleanup, err := xlog.New().
		SetOutputCloser(&recordingCloser{name: "first", order: &order}).
		SetOutputCloser(&recordingCloser{name: "second", order: &order, err: closeErr}).
		SetOutputCloser(nil).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if err := cleanup(); !errors.Is(err, closeErr) {
		t.Fatalf("cleanup() = %v, want %v", err, closeErr)
	}
	if err := cleanup(); !errors.Is(err, closeErr) {
		t.Fatalf("second cleanup() = %v, want cached %v", err, closeErr)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Fatalf("close order = %v, want reverse registration", order)
	}
}
