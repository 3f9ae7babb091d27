package xconf

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/apc/pkg/util/xjson"
)

// koanfConfig Config 的 koanf 实现，构造后只读
type koanfConfig struct {
	k      *koanf.Koanf
	path   string
	format Format
	opts   *Options
}

// New 从文件加载配置，按扩展名识别格式。
//
// 文件不存在时返回的错误同时匹配 [ErrNotFound] 与 fs.ErrNotExist。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //#nosec G304 -- 路径来自命令行参数
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	c, err := load(data, format, opts)
	if err != nil {
		return nil, err
	}
	c.path = path
	return c, nil
}

// NewFromBytes 从字节数据加载配置。空数据得到空配置。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}
	return load(data, format, opts)
}

func load(data []byte, format Format, opts []Option) (*koanfConfig, error) {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	k := koanf.New(options.Delim)
	if len(bytes.TrimSpace(data)) > 0 {
		if err := k.Load(rawbytes.Provider(data), parserFor(format)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}
	return &koanfConfig{k: k, format: format, opts: options}, nil
}

func (c *koanfConfig) Client() *koanf.Koanf { return c.k }

func (c *koanfConfig) Unmarshal(path string, target any) error {
	if err := c.k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.Tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Exists(key string) bool { return c.k.Exists(key) }

func (c *koanfConfig) Path() string { return c.path }

func (c *koanfConfig) Format() Format { return c.format }

// Marshal 将 data 序列化为 format 格式，JSON 使用两个空格缩进。
func Marshal(data map[string]any, format Format) ([]byte, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}
	out, err := parserFor(format).Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalFailed, err)
	}
	if format != FormatJSON {
		return out, nil
	}

	// koanf 的 JSON parser 输出紧凑格式
	pretty, err := xjson.Indent(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalFailed, err)
	}
	return pretty, nil
}

// DetectFormat 根据扩展名识别配置格式
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

// parserFor 调用方保证 format 有效
func parserFor(format Format) koanf.Parser {
	if format == FormatYAML {
		return yaml.Parser()
	}
	return json.Parser()
}
