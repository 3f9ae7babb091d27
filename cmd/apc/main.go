// apc 启动时加载配置并装配异步、按天轮转的文件日志。
//
// 用法:
//
//	apc [--config apc_conf.json] [--log-level debug|info|warn|error]
//
// 首次运行时配置文件不存在，会写出默认配置并以退出码 2 退出，
// 编辑后重新运行即可。
//
// 退出码:
//
//	0: 正常结束（包括收到终止信号后的优雅退出）
//	1: 配置无效、日志目录不可用等运行失败
//	2: 配置文件刚被创建，需要编辑后重新运行
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/apc/internal/bootstrap"
	"github.com/omeyang/apc/pkg/lifecycle/xrun"
	"github.com/omeyang/apc/pkg/observability/xlog"
)

const (
	exitOK            = 0
	exitFailure       = 1
	exitConfigCreated = 2
)

// 版本信息，通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stderr))
}

func createApp(stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "apc",
		Usage:     "加载配置并初始化轮转文件日志",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.json/.yaml）",
				Value:   bootstrap.DefaultConfigFile,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)，默认取决于构建类型",
			},
		},
		// 退出码统一由 run 映射，不让 urfave/cli 直接 os.Exit
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runApp(ctx, cmd.String("config"), cmd.String("log-level"), stderr)
		},
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	err := createApp(stderr).Run(ctx, args)
	switch {
	case err == nil, errors.Is(err, xrun.ErrSignal):
		return exitOK
	case errors.Is(err, bootstrap.ErrConfigCreated):
		return exitConfigCreated
	default:
		fmt.Fprintf(stderr, "apc: %v\n", err)
		return exitFailure
	}
}

func runApp(ctx context.Context, configPath, levelFlag string, stderr io.Writer) (err error) {
	level := bootstrap.DefaultLevel
	if levelFlag != "" {
		if level, err = xlog.ParseLevel(levelFlag); err != nil {
			return err
		}
	}

	cfg, err := bootstrap.LoadConfig(configPath, stderr)
	if err != nil {
		return err
	}

	logging, err := bootstrap.InitLogging(cfg.Log, level, stderr)
	if err != nil {
		return err
	}
	// 任何退出路径都要排空日志队列
	defer func() {
		if cerr := logging.Close(); cerr != nil {
			fmt.Fprintf(stderr, "apc: log shutdown: %v\n", cerr)
		}
		printSummary(stderr, logging)
	}()

	xlog.SetDefault(logging.Logger)
	defer xlog.ResetDefault()

	err = xrun.Run(ctx, []xrun.Option{xrun.WithLogger(logging.Logger), xrun.WithName("apc")},
		xrun.Named("app", func(ctx context.Context) error {
			return app(ctx, cfg)
		}),
	)
	if errors.Is(err, xrun.ErrSignal) {
		logging.Logger.Info(context.Background(), "interrupted", slog.String("reason", err.Error()))
	}
	return err
}

// app 记录启动信息与加载的配置
func app(ctx context.Context, cfg bootstrap.Config) error {
	xlog.Info(ctx, "apc started",
		slog.String("version", Version),
		slog.String("commit", GitCommit),
	)
	xlog.Info(ctx, "loaded configuration",
		xlog.Path(cfg.Log.Dir),
		slog.Int("max_rotation_count", cfg.Log.MaxRotationCount),
		slog.String("rotation", cfg.Log.Rotation),
		slog.Int("max_size_mb", cfg.Log.MaxSizeMB),
		slog.Int("queue_capacity", cfg.Log.QueueCapacity),
		slog.Bool("local_time", cfg.Log.LocalTime),
	)
	return nil
}

// printSummary 只在有记录丢失或清理失败时输出
func printSummary(w io.Writer, logging *bootstrap.Logging) {
	st := logging.Stats()
	if st.Dropped == 0 && st.FailedWrites == 0 && st.FailedPrunes == 0 {
		return
	}
	fmt.Fprintf(w, "apc: log: written=%d dropped=%d failed_writes=%d failed_prunes=%d\n",
		st.Written, st.Dropped, st.FailedWrites, st.FailedPrunes)
}
