package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 只读配置
type Config interface {
	// Client 返回底层 koanf 实例
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空表示整个配置
	Unmarshal(path string, target any) error

	// Exists 报告 key 是否出现在配置中
	Exists(key string) bool

	// Path 返回配置文件路径，从字节创建时为空
	Path() string

	Format() Format
}
