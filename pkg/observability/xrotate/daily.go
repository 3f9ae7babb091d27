package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/omeyang/apc/pkg/util/xfile"
)

const (
	// DefaultSuffix 默认文件名后缀
	DefaultSuffix = ".log"

	// DefaultMaxFiles 默认保留的文件数量（含当前文件）
	DefaultMaxFiles = 14

	// maxFiles 保留文件数量上限
	maxFiles = 1024
)

// removeFile 删除文件，测试中替换以模拟删除失败。
var removeFile = os.Remove

// 编译时接口检查
var (
	_ TimedRotator  = (*Daily)(nil)
	_ Reopener      = (*Daily)(nil)
	_ PruneReporter = (*Daily)(nil)
)

// dailyConfig Daily 的不可变配置，构造后只读。
type dailyConfig struct {
	prefix       string
	suffix       string
	maxFiles     int
	loc          *time.Location
	fileMode     os.FileMode
	openAttempts uint
	openDelay    time.Duration
	onError      func(error)
	now          func() time.Time
}

// DailyOption Daily 配置选项
type DailyOption func(*dailyConfig)

// WithPrefix 设置文件名前缀，如 "apc-log_"
func WithPrefix(prefix string) DailyOption {
	return func(c *dailyConfig) {
		c.prefix = prefix
	}
}

// WithSuffix 设置文件名后缀，如 ".log"
func WithSuffix(suffix string) DailyOption {
	return func(c *dailyConfig) {
		c.suffix = suffix
	}
}

// WithMaxFiles 设置保留的文件数量（含当前文件）。
//
// 0 表示只保留当前正在写入的文件。
func WithMaxFiles(n int) DailyOption {
	return func(c *dailyConfig) {
		c.maxFiles = n
	}
}

// WithLocation 设置计算日期的时区，默认 UTC。
func WithLocation(loc *time.Location) DailyOption {
	return func(c *dailyConfig) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithFileMode 设置新建日志文件的权限，默认 [DefaultFileMode]。
func WithFileMode(mode os.FileMode) DailyOption {
	return func(c *dailyConfig) {
		c.fileMode = mode
	}
}

// WithOpenRetry 设置瞬时打开错误的重试次数与间隔。
func WithOpenRetry(attempts uint, delay time.Duration) DailyOption {
	return func(c *dailyConfig) {
		c.openAttempts = attempts
		c.openDelay = delay
	}
}

// WithOnError 设置内部错误回调（关闭旧文件失败、删除历史文件失败）。
//
// 打开与写入失败直接返回给调用方，不经过回调。
//
// 回调在持有 Daily 的 goroutine 上同步执行，不得向同一个 Rotator 写入数据。
func WithOnError(fn func(error)) DailyOption {
	return func(c *dailyConfig) {
		c.onError = fn
	}
}

// WithClock 设置 Write/Rotate 使用的时钟，默认 time.Now。
func WithClock(now func() time.Time) DailyOption {
	return func(c *dailyConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Daily 按自然日轮转的 Rotator。
//
// 状态（当前周期、打开的句柄）在第一次写入时惰性建立，
// 跨过午夜或重启后重新建立。Daily 不是并发安全的，见包文档。
type Daily struct {
	dir    string
	policy Policy
	cfg    dailyConfig
	writer *FileWriter

	period string
	name   string
	handle *Handle
	closed bool

	pruneFailures atomic.Uint64
}

// NewDaily 创建按天轮转的 Rotator。
//
// dir 必须已经存在且可写，否则返回包装 [ErrConfiguration] 的错误；
// Daily 不会创建目录。
func NewDaily(dir string, opts ...DailyOption) (*Daily, error) {
	cfg := dailyConfig{
		suffix:       DefaultSuffix,
		maxFiles:     DefaultMaxFiles,
		loc:          time.UTC,
		fileMode:     DefaultFileMode,
		openAttempts: DefaultOpenAttempts,
		openDelay:    DefaultOpenDelay,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	absDir, err := validateDaily(dir, &cfg)
	if err != nil {
		return nil, err
	}

	d := &Daily{
		dir:    absDir,
		policy: NewPolicy(cfg.prefix, cfg.suffix, cfg.loc),
		cfg:    cfg,
	}
	d.writer = NewFileWriter(
		WithWriterFileMode(cfg.fileMode),
		WithWriterOpenRetry(cfg.openAttempts, cfg.openDelay),
		WithWriterOnError(d.report),
	)
	return d, nil
}

// validateDaily 校验配置并返回规范化的绝对目录。
func validateDaily(dir string, cfg *dailyConfig) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: log directory is required", ErrConfiguration)
	}
	if cfg.maxFiles < 0 || cfg.maxFiles > maxFiles {
		return "", fmt.Errorf("%w: max files got %d, want 0~%d", ErrConfiguration, cfg.maxFiles, maxFiles)
	}
	if cfg.fileMode&^os.FileMode(0o777) != 0 {
		return "", fmt.Errorf("%w: file mode %04o, only permission bits allowed", ErrConfiguration, cfg.fileMode)
	}
	if strings.ContainsAny(cfg.prefix+cfg.suffix, `/\`) {
		return "", fmt.Errorf("%w: prefix/suffix must not contain path separators", ErrConfiguration)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: log directory %s: %w", ErrConfiguration, dir, err)
	}
	if err := xfile.CheckWritableDir(absDir); err != nil {
		return "", fmt.Errorf("%w: log directory %s: %w", ErrConfiguration, absDir, err)
	}
	sample := cfg.prefix + periodLayout + cfg.suffix
	if _, err := xfile.SafeJoin(absDir, sample); err != nil {
		return "", fmt.Errorf("%w: file name %q: %w", ErrConfiguration, sample, err)
	}
	return absDir, nil
}

// Dir 返回日志目录（绝对路径）。
func (d *Daily) Dir() string { return d.dir }

// Policy 返回轮转策略。
func (d *Daily) Policy() Policy { return d.policy }

// MaxFiles 返回保留文件数量。
func (d *Daily) MaxFiles() int { return d.cfg.maxFiles }

// ActivePath 返回当前打开的文件路径，未打开时为空。只能在持有者 goroutine 上调用。
func (d *Daily) ActivePath() string { return d.handle.Path() }

// PruneFailures 返回累计删除失败次数（并发安全）。
func (d *Daily) PruneFailures() uint64 { return d.pruneFailures.Load() }

// Write 使用当前时钟写入，实现 io.Writer。
func (d *Daily) Write(p []byte) (int, error) {
	return d.WriteAt(d.cfg.now(), p)
}

// WriteAt 将 p 写入 t 所在日期的文件。
//
// 周期只会向前推进：时间戳早于当前周期的记录写入当前文件，
// 避免并发生产者在午夜附近造成文件来回切换。
func (d *Daily) WriteAt(t time.Time, p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	period, name := d.target(t)
	if d.handle == nil || period != d.period {
		if err := d.open(period, name); err != nil {
			return 0, err
		}
	}
	if err := d.writer.Write(d.handle, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Rotate 关闭当前文件，按当前时钟重新打开活跃文件并执行清理。
//
// 同一天内调用相当于重新打开同一文件（追加写入）。
func (d *Daily) Rotate() error {
	if d.closed {
		return ErrClosed
	}
	period, name := d.target(d.cfg.now())
	return d.open(period, name)
}

// ReopenIfMissing 当前文件被外部删除或改名后重新创建它。
func (d *Daily) ReopenIfMissing() error {
	if d.closed {
		return ErrClosed
	}
	if d.handle == nil {
		return nil
	}
	_, err := os.Stat(d.handle.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Op: "stat", Path: d.handle.path, Err: err}
	}
	return d.open(d.period, d.name)
}

// Close 关闭当前文件。重复调用返回 [ErrClosed]。
func (d *Daily) Close() error {
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	if d.handle == nil {
		return nil
	}
	err := d.writer.Close(d.handle)
	d.handle = nil
	return err
}

// target 计算 t 对应的周期与文件名，周期不回退。
func (d *Daily) target(t time.Time) (string, string) {
	period := d.policy.Period(t)
	if d.period != "" && period < d.period {
		return d.period, d.name
	}
	return period, d.policy.ActiveFileName(t)
}

// open 切换到指定周期的文件，成功后执行清理。
//
// 打开失败时轮转状态被清空，下一条记录会再次尝试打开。
// 打开失败只返回不上报，避免与调用方重复。
func (d *Daily) open(period, name string) error {
	path, err := xfile.SafeJoin(d.dir, name)
	if err != nil {
		return &IOError{Op: "open", Path: name, Err: err}
	}

	h, err := d.writer.Rotate(d.handle, path)
	if err != nil {
		d.handle = nil
		return err
	}
	d.handle, d.period, d.name = h, period, name
	d.prune()
	return nil
}

// prune 删除超出保留数量的最旧文件。
//
// 失败的文件计数并合并为一次回调；不重试，等下一次轮转时自然再次尝试。
func (d *Daily) prune() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		d.pruneFailures.Add(1)
		d.report(&PruneError{Path: d.dir, Err: err})
		return
	}

	// 活跃文件总是保留并占用一个名额，其余文件按日期保留最新的 maxFiles-1 个；
	// 时钟回拨后活跃文件可能不是最新的
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() != d.name {
			names = append(names, e.Name())
		}
	}

	var errs []error
	for _, name := range FilesToPrune(d.policy.Matching(names), max(d.cfg.maxFiles-1, 0)) {
		path := filepath.Join(d.dir, name)
		if err := removeFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.pruneFailures.Add(1)
			errs = append(errs, &PruneError{Path: path, Err: err})
		}
	}
	if len(errs) > 0 {
		d.report(errors.Join(errs...))
	}
}

// report 通过回调上报内部错误，回调 panic 被隔离。
func (d *Daily) report(err error) {
	if err != nil && d.cfg.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		d.cfg.onError(err)
	}
}
