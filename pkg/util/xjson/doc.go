// Package xjson JSON 文本格式化。
//
//   - [Indent]: 两个空格缩进并以换行结尾，用于写出给人编辑的配置文件
//   - [Compact]: 去掉空白压成一行，用于在终端提示中回显
//
// 两者都只重排空白，不改变键顺序与数值表示。输入不是合法 JSON 时
// 返回包装 [ErrInvalid] 的错误。
package xjson
