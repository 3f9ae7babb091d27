package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrNotFound 配置文件不存在，同时满足 errors.Is(err, fs.ErrNotExist)
	ErrNotFound = errors.New("xconf: config file not found")

	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置失败
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 解析配置失败
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 反序列化到结构体失败
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrMarshalFailed 序列化失败
	ErrMarshalFailed = errors.New("xconf: failed to marshal config")
)
