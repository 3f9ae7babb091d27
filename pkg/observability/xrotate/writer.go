package xrotate

import (
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	retry "github.com/avast/retry-go/v5"
)

const (
	// DefaultFileMode 新建日志文件的默认权限
	DefaultFileMode os.FileMode = 0o644

	// DefaultOpenAttempts 打开文件遇到瞬时错误时的默认尝试次数
	DefaultOpenAttempts = 3

	// DefaultOpenDelay 两次打开尝试之间的固定间隔
	DefaultOpenDelay = 10 * time.Millisecond

	openFlags = os.O_WRONLY | os.O_APPEND | os.O_CREATE
)

// file 是 FileWriter 需要的最小文件能力，*os.File 满足。
type file interface {
	io.Writer
	io.Closer
}

// openFunc 可注入的打开函数，测试中用于模拟磁盘故障。
type openFunc func(name string, flag int, perm os.FileMode) (file, error)

func osOpen(name string, flag int, perm os.FileMode) (file, error) {
	//#nosec G304 -- 路径由 Policy 生成并经过 xfile.SafeJoin 约束
	return os.OpenFile(name, flag, perm)
}

// Handle 一个已打开的周期文件句柄。
//
// Handle 只能由创建它的 FileWriter 操作，且只能被单个 goroutine 使用。
type Handle struct {
	f      file
	path   string
	closed bool
}

// Path 返回句柄对应的文件路径。
func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

// FileWriter 负责文件的打开、写入与切换。
//
// FileWriter 不创建目录：目录缺失时 Open 返回 [*IOError]。
// 自身无状态（除配置外），可被多个 Handle 复用。
type FileWriter struct {
	mode     os.FileMode
	attempts uint
	delay    time.Duration
	onError  func(error)
	openFn   openFunc
}

// WriterOption FileWriter 配置选项
type WriterOption func(*FileWriter)

// WithWriterFileMode 设置新建文件权限
func WithWriterFileMode(mode os.FileMode) WriterOption {
	return func(w *FileWriter) {
		if mode != 0 {
			w.mode = mode
		}
	}
}

// WithWriterOpenRetry 设置瞬时打开错误的尝试次数与间隔。attempts 小于 1 时按 1 处理。
func WithWriterOpenRetry(attempts uint, delay time.Duration) WriterOption {
	return func(w *FileWriter) {
		w.attempts = max(attempts, 1)
		if delay >= 0 {
			w.delay = delay
		}
	}
}

// WithWriterOnError 设置非致命错误（如关闭旧句柄失败）的回调。
func WithWriterOnError(fn func(error)) WriterOption {
	return func(w *FileWriter) {
		w.onError = fn
	}
}

// NewFileWriter 创建 FileWriter
func NewFileWriter(opts ...WriterOption) *FileWriter {
	w := &FileWriter{
		mode:     DefaultFileMode,
		attempts: DefaultOpenAttempts,
		delay:    DefaultOpenDelay,
		openFn:   osOpen,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Open 以追加方式打开（不存在则创建）path。
//
// EINTR/EAGAIN/EMFILE/ENFILE 视为瞬时错误，按配置重试；其他错误立即返回 [*IOError]。
func (w *FileWriter) Open(path string) (*Handle, error) {
	f, err := retry.NewWithData[file](
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	).Do(func() (file, error) {
		return w.openFn(path, openFlags, w.mode)
	})
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return &Handle{f: f, path: path}, nil
}

// Write 将 p 完整写入 h。句柄已关闭时返回包装 [ErrClosed] 的 [*IOError]。
func (w *FileWriter) Write(h *Handle, p []byte) error {
	if h == nil || h.closed {
		return &IOError{Op: "write", Path: h.Path(), Err: ErrClosed}
	}
	if _, err := h.f.Write(p); err != nil {
		return &IOError{Op: "write", Path: h.path, Err: err}
	}
	return nil
}

// Close 关闭句柄。重复关闭返回包装 [ErrClosed] 的 [*IOError]。
func (w *FileWriter) Close(h *Handle) error {
	if h == nil || h.closed {
		return &IOError{Op: "close", Path: h.Path(), Err: ErrClosed}
	}
	h.closed = true
	if err := h.f.Close(); err != nil {
		return &IOError{Op: "close", Path: h.path, Err: err}
	}
	return nil
}

// Rotate 关闭 old 并打开 newPath。
//
// 关闭失败只通过 OnError 上报，不影响返回值；old 可以为 nil。
func (w *FileWriter) Rotate(old *Handle, newPath string) (*Handle, error) {
	if old != nil && !old.closed {
		w.report(w.Close(old))
	}
	return w.Open(newPath)
}

// report 通过回调上报内部错误，回调 panic 被隔离。
func (w *FileWriter) report(err error) {
	if err != nil && w.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		w.onError(err)
	}
}

// isTransient 判断打开错误是否值得重试。
func isTransient(err error) bool {
	return errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
