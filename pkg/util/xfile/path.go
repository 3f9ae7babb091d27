package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
// 内核会在空字节处截断路径，Go 侧看到的路径与实际打开的不一致。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// isWindowsAbsPath 检测 "C:..."、"\\server\..." 和 "\foo" 形式的路径。
// 非 Windows 平台上 filepath.IsAbs 不识别这些形式。
func isWindowsAbsPath(path string) bool {
	if len(path) >= 2 && isASCIILetter(path[0]) && path[1] == ':' {
		return true
	}
	return len(path) >= 1 && path[0] == '\\'
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// isSeparator '/' 与 '\\' 在所有平台上都按分隔符处理
func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// hasDotDotSegment 报告 path 中是否有恰好为 ".." 的段，"app..2024.log" 不算
func hasDotDotSegment(path string) bool {
	for _, seg := range strings.FieldsFunc(path, isSeparator) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// SanitizePath 对文件路径做格式净化并返回 filepath.Clean 后的结果。
//
// 拒绝空路径、含空字节的路径、以分隔符结尾的目录路径，以及清理后仍带
// ".." 段的相对路径。绝对路径被接受，不做目录约束；需要约束时使用 [SafeJoin]。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if isSeparator(rune(filename[len(filename)-1])) {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SafeJoin 将相对路径 name 拼接到绝对目录 base 下。
//
// base 必须是绝对路径；name 必须是相对路径且不含 ".." 段。
// 结果保证位于 base 之内。符号链接不做解析。
//
//	SafeJoin("/var/log/apc", "apc-log_2024-01-15.log") // "/var/log/apc/apc-log_2024-01-15.log"
//	SafeJoin("/var/log/apc", "../etc/passwd")          // ErrPathTraversal
func SafeJoin(base, name string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base directory is required: %w", ErrEmptyPath)
	}
	if name == "" {
		return "", fmt.Errorf("path is required: %w", ErrEmptyPath)
	}
	if containsNullByte(base) || containsNullByte(name) {
		return "", fmt.Errorf("path contains null byte: %w", ErrNullByte)
	}

	cleanBase := filepath.Clean(base)
	if !filepath.IsAbs(cleanBase) {
		return "", fmt.Errorf("base must be an absolute path: %w", ErrInvalidPath)
	}
	if filepath.IsAbs(name) || isWindowsAbsPath(name) {
		return "", fmt.Errorf("path must be relative: %w", ErrInvalidPath)
	}

	cleanName := filepath.Clean(name)
	if hasDotDotSegment(cleanName) {
		return "", fmt.Errorf("path traversal in path: %w", ErrPathTraversal)
	}

	joined := filepath.Join(cleanBase, cleanName)
	rel, err := filepath.Rel(cleanBase, joined)
	if err != nil || hasDotDotSegment(rel) || rel == "." {
		return "", ErrPathEscaped
	}
	return joined, nil
}
