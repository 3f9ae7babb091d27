package xrotate

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// RemovalWatcher 监视日志目录，在匹配的文件被删除或改名时发出通知。
//
// 典型用途：运维手工删除或 mv 走当前日志文件后，让持有者重新创建它。
// 通知只是一个信号，真正的重新打开由持有轮转状态的 goroutine 执行。
type RemovalWatcher struct {
	watcher *fsnotify.Watcher
	match   func(name string) bool
	notify  func(name string)
	onError func(error)

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// WatchRemoval 创建并启动目录监视。
//
// match 接收文件名（不含目录），返回是否关心该文件；notify 在事件 goroutine 上
// 同步调用，必须非阻塞。onError 可为 nil。
//
// 监视目录而非文件本身，文件被删除后仍能收到后续事件。
func WatchRemoval(dir string, match func(name string) bool, notify func(name string), onError func(error)) (*RemovalWatcher, error) {
	if match == nil || notify == nil {
		return nil, errors.New("xrotate: match and notify are required")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xrotate: failed to create watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmt.Errorf("xrotate: failed to watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	w := &RemovalWatcher{
		watcher: fsWatcher,
		match:   match,
		notify:  notify,
		onError: onError,
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Stop 停止监视。返回后不会再有 notify 回调。可重复调用。
func (w *RemovalWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *RemovalWatcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			if !w.match(name) {
				continue
			}
			select {
			case <-w.done:
				return
			default:
				w.notify(name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(fmt.Errorf("xrotate: watch error: %w", err))
			}
		}
	}
}
