// Package util 通用工具子包。
//
// 子包列表：
//   - xfile: 路径清洗、安全拼接、目录创建与可写性检查
//   - xjson: JSON 文本缩进与压缩
package util
