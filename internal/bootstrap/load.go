package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/omeyang/apc/pkg/config/xconf"
	"github.com/omeyang/apc/pkg/util/xfile"
	"github.com/omeyang/apc/pkg/util/xjson"
)

// ErrConfigCreated 配置文件不存在，已写出默认配置，需编辑后重新运行
var ErrConfigCreated = errors.New("bootstrap: config file created")

// LoadConfig 加载配置文件并校验。
//
// 文件不存在时按扩展名格式写出默认配置，向 notice 输出提示，
// 返回包装 [ErrConfigCreated] 的错误。notice 为 nil 时不输出。
func LoadConfig(path string, notice io.Writer) (Config, error) {
	if notice == nil {
		notice = io.Discard
	}

	cfg := DefaultConfig()
	conf, err := xconf.New(path)
	if errors.Is(err, xconf.ErrNotFound) {
		data, werr := writeDefault(path, cfg)
		if werr != nil {
			return Config{}, werr
		}
		fmt.Fprintf(notice, "config file %s not found, created it with defaults\n", path)
		if compact, cerr := xjson.Compact(data); cerr == nil {
			fmt.Fprintf(notice, "default config: %s\n", compact)
		}
		fmt.Fprintln(notice, "edit the config file and run again")
		return Config{}, fmt.Errorf("%w: %s", ErrConfigCreated, path)
	}
	if err != nil {
		return Config{}, err
	}

	if err := conf.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// writeDefault 以 O_EXCL 创建，不覆盖并发出现的同名文件，返回写入的内容
func writeDefault(path string, cfg Config) ([]byte, error) {
	format, err := xconf.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := xconf.Marshal(cfg.toMap(), format)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("bootstrap: create config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //#nosec G302 G304 -- 配置文件需可读
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create config file: %w", err)
	}
	_, werr := f.Write(data)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return nil, fmt.Errorf("bootstrap: write config file: %w", werr)
	}
	return data, nil
}
