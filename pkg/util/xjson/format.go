package xjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalid 输入不是合法 JSON
var ErrInvalid = errors.New("xjson: invalid json")

// Indent 以两个空格缩进重排 data，结果以换行结尾
func Indent(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) + len(data)/2)
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Compact 去掉 data 中所有无意义的空白
func Compact(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return buf.Bytes(), nil
}
