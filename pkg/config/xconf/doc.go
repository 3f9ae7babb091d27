// Package xconf 基于 koanf 的配置加载。
//
// 按扩展名识别格式（.json、.yaml/.yml），也可从字节数据加载。
// 结构体字段通过 koanf 标签映射：
//
//	type LogConfig struct {
//		Dir string `koanf:"log_dir"`
//	}
//
//	cfg, err := xconf.New("apc_conf.json")
//	if errors.Is(err, xconf.ErrNotFound) {
//		// 首次运行，写出默认配置
//	}
//	var lc LogConfig
//	err = cfg.Unmarshal("log_config", &lc)
//
// Unmarshal 只覆盖配置中出现的字段，调用前预先填好的默认值会被保留。
//
// [Marshal] 把 map 序列化为指定格式，JSON 输出带缩进，便于写出可编辑的默认配置文件。
//
// 配置在进程启动时加载一次，不支持热更新。
package xconf
