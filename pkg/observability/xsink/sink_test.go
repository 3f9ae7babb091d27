package xsink

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/apc/pkg/observability/xrotate"
)

// =============================================================================
// 构造
// =============================================================================

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilRotator)

	for _, capacity := range []int{0, -1, maxCapacity + 1} {
		_, err := New(&memRotator{}, WithCapacity(capacity))
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity %d", capacity)
	}

	_, err = New(&memRotator{}, WithRotateSchedule("not a schedule"))
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestNew_ScheduleIgnoredForPlainRotator(t *testing.T) {
	ctrl := gomock.NewController(t)
	rotator := NewMockRotator(ctrl)
	rotator.EXPECT().Close().Return(nil)

	s, err := New(rotator, WithRotateSchedule("not a schedule"), nil)
	require.NoError(t, err)
	assert.Nil(t, s.cron)
	assert.Equal(t, ShutdownDrained, s.Shutdown(time.Second))
}

func TestStart_Twice(t *testing.T) {
	s, err := New(&memRotator{})
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
	assert.Equal(t, ShutdownDrained, s.Shutdown(time.Second))
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
}

// =============================================================================
// 入队与写出
// =============================================================================

func TestSink_WritesInOrder(t *testing.T) {
	r := &memRotator{}
	s, guard, err := Open(r, WithCapacity(1024))
	require.NoError(t, err)

	for i := range 100 {
		n, err := s.Write([]byte(strconv.Itoa(i)))
		require.NoError(t, err)
		require.Positive(t, n)
	}
	require.Equal(t, ShutdownDrained, guard.Release())

	got := r.snapshot()
	require.Len(t, got, 100)
	for i, rec := range got {
		assert.Equal(t, strconv.Itoa(i), string(rec))
	}
	assert.True(t, r.isClosed())

	st := s.Stats()
	assert.Equal(t, uint64(100), st.Enqueued)
	assert.Equal(t, uint64(100), st.Written)
	assert.Zero(t, st.Dropped)
	assert.Equal(t, 1024, st.QueueCap)
	assert.Zero(t, st.QueueLen)
}

func TestSink_WriteCopiesInput(t *testing.T) {
	r := &memRotator{}
	s, err := New(r)
	require.NoError(t, err)

	buf := []byte("original")
	_, err = s.Write(buf)
	require.NoError(t, err)
	copy(buf, "mutated!")

	require.Equal(t, ShutdownDrained, s.Shutdown(time.Second))
	assert.Equal(t, [][]byte{[]byte("original")}, r.snapshot())
}

func TestSink_WriteUsesClockForTimestamp(t *testing.T) {
	at := time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC)
	ctrl := gomock.NewController(t)
	rotator := NewMockTimedRotator(ctrl)
	gomock.InOrder(
		rotator.EXPECT().WriteAt(at, []byte("x")).Return(1, nil),
		rotator.EXPECT().Close().Return(nil),
	)

	s, guard, err := Open(rotator, WithClock(func() time.Time { return at }))
	require.NoError(t, err)
	_, _ = s.Write([]byte("x"))
	assert.Equal(t, ShutdownDrained, guard.Release())
}

func TestSink_PlainRotatorUsesWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	rotator := NewMockRotator(ctrl)
	gomock.InOrder(
		rotator.EXPECT().Write([]byte("x")).Return(1, nil),
		rotator.EXPECT().Close().Return(nil),
	)

	s, guard, err := Open(rotator)
	require.NoError(t, err)
	s.Enqueue(Record{Time: time.Now(), Data: []byte("x")})
	assert.Equal(t, ShutdownDrained, guard.Release())
	assert.Equal(t, uint64(1), s.Stats().Written)
}

func TestSink_WriteFailureDropsRecordAndContinues(t *testing.T) {
	ctrl := gomock.NewController(t)
	rotator := NewMockTimedRotator(ctrl)
	ioErr := &xrotate.IOError{Op: "write", Path: "apc.log", Err: syscall.ENOSPC}
	gomock.InOrder(
		rotator.EXPECT().WriteAt(gomock.Any(), []byte("a")).Return(0, ioErr),
		rotator.EXPECT().WriteAt(gomock.Any(), []byte("b")).Return(0, ioErr),
		rotator.EXPECT().WriteAt(gomock.Any(), []byte("c")).Return(1, nil),
		rotator.EXPECT().WriteAt(gomock.Any(), []byte("d")).Return(0, ioErr),
		rotator.EXPECT().Close().Return(nil),
	)

	var mu sync.Mutex
	var reported []error
	s, err := New(rotator, WithOnError(func(err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	}))
	require.NoError(t, err)

	for _, d := range []string{"a", "b", "c", "d"} {
		s.Enqueue(Record{Data: []byte(d)})
	}
	require.Equal(t, ShutdownDrained, s.Shutdown(time.Second))

	st := s.Stats()
	assert.Equal(t, uint64(3), st.FailedWrites)
	assert.Equal(t, uint64(1), st.Written)

	mu.Lock()
	defer mu.Unlock()
	// 每段连续失败只上报一次
	require.Len(t, reported, 2)
	for _, err := range reported {
		assert.ErrorIs(t, err, xrotate.ErrIO)
	}
}

func TestSink_CloseErrorIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	rotator := NewMockRotator(ctrl)
	rotator.EXPECT().Close().Return(errors.New("disk gone"))

	var reported error
	s, err := New(rotator, WithOnError(func(err error) { reported = err }))
	require.NoError(t, err)

	require.Equal(t, ShutdownDrained, s.Shutdown(time.Second))
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "disk gone")
}

func TestSink_OnErrorPanicIsContained(t *testing.T) {
	ctrl := gomock.NewController(t)
	rotator := NewMockRotator(ctrl)
	rotator.EXPECT().Write(gomock.Any()).Return(0, syscall.EIO)
	rotator.EXPECT().Close().Return(nil)

	s, err := New(rotator, WithOnError(func(error) { panic("boom") }))
	require.NoError(t, err)
	s.Enqueue(Record{Data: []byte("x")})
	assert.Equal(t, ShutdownDrained, s.Shutdown(time.Second))
	assert.Equal(t, uint64(1), s.Stats().FailedWrites)
}

// =============================================================================
// 溢出
// =============================================================================

func TestSink_EnqueueNeverBlocksWhenFull(t *testing.T) {
	r := &memRotator{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s, guard, err := Open(r, WithCapacity(1))
	require.NoError(t, err)

	// 第一条被 worker 取走并阻塞在写入中，第二条占满队列
	s.Enqueue(Record{Data: []byte("first")})
	<-r.entered
	s.Enqueue(Record{Data: []byte("second")})
	require.Equal(t, 1, s.Stats().QueueLen)

	const extra = 1000
	start := time.Now()
	for range extra {
		s.Enqueue(Record{Data: []byte("overflow")})
	}
	assert.Less(t, time.Since(start), time.Second, "enqueue must not wait for the writer")
	assert.Equal(t, uint64(extra), s.Stats().Dropped)

	close(r.release)
	require.Equal(t, ShutdownDrained, guard.Release())
	assert.Equal(t, [][]byte{[]byte("first"), []byte("second")}, r.snapshot())
	assert.Equal(t, uint64(2), s.Stats().Written)
}

func TestSink_ConcurrentProducersWithSlowWriter(t *testing.T) {
	const (
		producers   = 4
		perProducer = 2500
		total       = producers * perProducer
	)
	r := &memRotator{delay: 50 * time.Microsecond}
	s, guard, err := Open(r, WithCapacity(10))
	require.NoError(t, err)

	// seqMu 保证序号顺序就是入队顺序
	var (
		seqMu sync.Mutex
		seq   uint64
		wg    sync.WaitGroup
	)
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perProducer {
				seqMu.Lock()
				seq++
				data := make([]byte, 8)
				binary.BigEndian.PutUint64(data, seq)
				s.Enqueue(Record{Time: time.Now(), Data: data})
				seqMu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, ShutdownDrained, guard.Release())

	st := s.Stats()
	got := r.snapshot()
	assert.Equal(t, uint64(total), st.Written+st.Dropped)
	assert.Equal(t, uint64(len(got)), st.Written)
	assert.Equal(t, st.Enqueued, st.Written)

	var last uint64
	for _, rec := range got {
		n := binary.BigEndian.Uint64(rec)
		require.Greater(t, n, last, "records must keep enqueue order")
		last = n
	}
}

// =============================================================================
// 关闭
// =============================================================================

func TestSink_ShutdownDrainsToDisk(t *testing.T) {
	dir := t.TempDir()
	clock := func() time.Time { return time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC) }
	daily, err := xrotate.NewDaily(dir, xrotate.WithPrefix("apc-log_"), xrotate.WithClock(clock))
	require.NoError(t, err)

	s, guard, err := Open(daily, WithClock(clock))
	require.NoError(t, err)

	var want strings.Builder
	for i := range 500 {
		line := "line " + strconv.Itoa(i) + "\n"
		want.WriteString(line)
		_, _ = s.Write([]byte(line))
	}
	require.Equal(t, ShutdownDrained, guard.Release())

	data, err := os.ReadFile(filepath.Join(dir, "apc-log_2024-01-15.log"))
	require.NoError(t, err)
	assert.Equal(t, want.String(), string(data))
}

func TestSink_ShutdownUnstartedDrains(t *testing.T) {
	r := &memRotator{}
	s, err := New(r)
	require.NoError(t, err)

	for _, d := range []string{"a", "b", "c"} {
		s.Enqueue(Record{Data: []byte(d)})
	}
	assert.Equal(t, ShutdownDrained, s.Shutdown(time.Second))
	assert.Len(t, r.snapshot(), 3)
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
}

func TestSink_EnqueueAfterShutdownIsDropped(t *testing.T) {
	r := &memRotator{}
	s, guard, err := Open(r)
	require.NoError(t, err)
	require.Equal(t, ShutdownDrained, guard.Release())

	s.Enqueue(Record{Data: []byte("late")})
	n, err := s.Write([]byte("later"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	st := s.Stats()
	assert.Equal(t, uint64(2), st.Dropped)
	assert.Zero(t, st.Written)
	assert.Empty(t, r.snapshot())
}

func TestSink_ShutdownTimeout(t *testing.T) {
	r := &memRotator{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s, err := New(r, WithCapacity(4))
	require.NoError(t, err)
	require.NoError(t, s.Start())

	s.Enqueue(Record{Data: []byte("blocked")})
	<-r.entered
	s.Enqueue(Record{Data: []byte("pending-1")})
	s.Enqueue(Record{Data: []byte("pending-2")})

	assert.Equal(t, ShutdownTimedOut, s.Shutdown(20*time.Millisecond))
	// 重复调用返回第一次的结果
	assert.Equal(t, ShutdownTimedOut, s.Shutdown(time.Minute))

	close(r.release)
	<-s.Done()

	st := s.Stats()
	assert.Equal(t, uint64(1), st.Written)
	assert.Equal(t, uint64(2), st.Dropped)
	assert.True(t, r.isClosed())
}

func TestSink_ConcurrentShutdown(t *testing.T) {
	s, err := New(&memRotator{})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	var wg sync.WaitGroup
	results := make([]ShutdownStatus, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.Shutdown(time.Second)
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, ShutdownDrained, r)
	}
}

func TestSink_EnqueueRacingShutdown(t *testing.T) {
	r := &memRotator{}
	s, guard, err := Open(r, WithCapacity(64))
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					s.Enqueue(Record{Data: []byte("x")})
				}
			}
		}()
	}
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, ShutdownDrained, guard.Release())
	close(stop)
	wg.Wait()

	st := s.Stats()
	assert.Equal(t, st.Enqueued, st.Written, "every accepted record is written")
	assert.Equal(t, uint64(len(r.snapshot())), st.Written)
}

// =============================================================================
// Guard
// =============================================================================

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	rotator := NewMockRotator(ctrl)
	rotator.EXPECT().Close().Return(nil).Times(1)

	_, guard, err := Open(rotator)
	require.NoError(t, err)

	assert.Equal(t, ShutdownDrained, guard.Release())
	assert.Equal(t, ShutdownDrained, guard.Release())
	assert.NoError(t, guard.Close())

	var nilGuard *Guard
	assert.Equal(t, ShutdownDrained, nilGuard.Release())
}

func TestGuard_CloseReportsTimeout(t *testing.T) {
	r := &memRotator{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s, guard, err := Open(r)
	require.NoError(t, err)
	guard.timeout = 10 * time.Millisecond

	s.Enqueue(Record{Data: []byte("blocked")})
	<-r.entered

	assert.ErrorIs(t, guard.Close(), ErrShutdownTimeout)
	close(r.release)
	<-s.Done()
}

func TestOpen_InvalidOptions(t *testing.T) {
	s, g, err := Open(&memRotator{}, WithCapacity(0))
	assert.Nil(t, s)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "drained", ShutdownDrained.String())
	assert.Equal(t, "timed out", ShutdownTimedOut.String())
	assert.Equal(t, "ShutdownStatus(9)", ShutdownStatus(9).String())
	assert.Equal(t, "drop-newest", OverflowDropNewest.String())
	assert.Equal(t, "unknown", OverflowPolicy(9).String())
}
