// Package bootstrap 进程启动装配：加载配置文件，初始化日志链路。
//
// 启动顺序：
//
//	cfg, err := bootstrap.LoadConfig(path, os.Stderr)  // 首次运行写出默认配置并返回 ErrConfigCreated
//	logging, err := bootstrap.InitLogging(cfg.Log, level, os.Stderr)
//	defer logging.Close()                               // 排空队列、关闭文件
//
// 日志链路为 xlog → xsink（非阻塞队列）→ xrotate（按天或按大小轮转），
// 队列统计通过 xmetrics 注册为 OpenTelemetry 指标。
// 链路内部的故障不经过 Logger，而是写到 errOut。
package bootstrap
