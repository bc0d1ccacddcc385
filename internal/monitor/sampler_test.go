package monitor

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeReader struct {
	mu    sync.Mutex
	table *Table
	err   error
}

func (f *fakeReader) set(table *Table, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table = table
	f.err = err
}

func (f *fakeReader) ReadTable(ctx context.Context) (*Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func newTestSampler(t *testing.T, reader TableReader, opts Options) *Sampler {
	t.Helper()
	s := NewSampler(reader, opts)
	return s
}

func TestCycleRecordsSamples(t *testing.T) {
	reader := &fakeReader{}
	s := newTestSampler(t, reader, Options{Capacity: 10})
	if err := s.AddTarget(Target{Kind: MatchName, Name: "worker"}); err != nil {
		t.Fatal(err)
	}

	reader.set(testTable(
		Row{PID: 10, Name: "worker", StartTime: t0, CPUPercent: 12.5, MemoryRSS: 2048},
	), nil)
	s.runCycle(t0)

	snap := s.Snapshot()
	ps := snap.Process(10)
	if ps == nil {
		t.Fatal("snapshot is missing pid 10")
	}
	if !ps.Alive {
		t.Error("process should be alive")
	}
	if !reflect.DeepEqual(ps.CPU.Values, []float64{12.5}) {
		t.Errorf("cpu = %v, want [12.5]", ps.CPU.Values)
	}
	if !reflect.DeepEqual(ps.Memory.Values, []float64{2048}) {
		t.Errorf("memory = %v, want [2048]", ps.Memory.Values)
	}
}

// interval=1s, capacity=5：六轮记录 [10..60] 后历史为 [20..60]。
func TestCycleScenarioCapacityFive(t *testing.T) {
	reader := &fakeReader{}
	s := newTestSampler(t, reader, Options{Interval: time.Second, Capacity: 5})
	if err := s.AddTarget(Target{Kind: MatchName, Name: "worker"}); err != nil {
		t.Fatal(err)
	}

	now := t0
	for _, cpu := range []float64{10, 20, 30, 40, 50, 60} {
		reader.set(testTable(
			Row{PID: 10, Name: "worker", StartTime: t0, CPUPercent: cpu},
		), nil)
		s.runCycle(now)
		now = now.Add(time.Second)
	}

	want := []float64{20, 30, 40, 50, 60}
	if got := s.Snapshot().Process(10).CPU.Values; !reflect.DeepEqual(got, want) {
		t.Errorf("cpu history = %v, want %v", got, want)
	}
}

// 整表读取失败时：快照保持不变，错误状态置位；下一轮成功后清除。
func TestCycleTableFailureKeepsState(t *testing.T) {
	reader := &fakeReader{}
	s := newTestSampler(t, reader, Options{Capacity: 5})
	if err := s.AddTarget(Target{Kind: MatchName, Name: "worker"}); err != nil {
		t.Fatal(err)
	}

	reader.set(testTable(
		Row{PID: 10, Name: "worker", StartTime: t0, CPUPercent: 10},
	), nil)
	s.runCycle(t0)
	before := s.Snapshot()

	reader.set(nil, errors.New("permission denied"))
	s.runCycle(t0.Add(time.Second))

	after := s.Snapshot()
	if after != before {
		t.Error("snapshot should be unchanged after a failed cycle")
	}
	if s.Status().LastError == "" {
		t.Error("status should carry the cycle error")
	}
	if got := trackedPIDs(s.tracker); !reflect.DeepEqual(got, []int32{10}) {
		t.Errorf("tracked set should be preserved, got %v", got)
	}

	reader.set(testTable(
		Row{PID: 10, Name: "worker", StartTime: t0, CPUPercent: 20},
	), nil)
	s.runCycle(t0.Add(2 * time.Second))

	if s.Status().LastError != "" {
		t.Errorf("error status should be cleared by a successful cycle, got %q", s.Status().LastError)
	}
	want := []float64{10, 20}
	if got := s.Snapshot().Process(10).CPU.Values; !reflect.DeepEqual(got, want) {
		t.Errorf("cpu history = %v, want %v", got, want)
	}
}

// 单个进程读取失败不影响同一轮其他进程的采样。
func TestCycleProcessFailureIsolation(t *testing.T) {
	reader := &fakeReader{}
	s := newTestSampler(t, reader, Options{Capacity: 5})
	if err := s.AddTarget(Target{Kind: MatchContains, Name: "worker"}); err != nil {
		t.Fatal(err)
	}

	reader.set(testTable(
		Row{PID: 10, Name: "worker-a", StartTime: t0, Err: errors.New("exited mid-cycle")},
		Row{PID: 11, Name: "worker-b", StartTime: t0, CPUPercent: 30},
	), nil)
	s.runCycle(t0)

	snap := s.Snapshot()
	if got := snap.Process(11).CPU.Values; !reflect.DeepEqual(got, []float64{30}) {
		t.Errorf("healthy process samples = %v, want [30]", got)
	}
	if ps := snap.Process(10); ps != nil && len(ps.CPU.Values) != 0 {
		t.Errorf("failed process should have no sample this cycle, got %v", ps.CPU.Values)
	}
	if s.Status().LastError == "" {
		t.Error("per-process failure should be surfaced in status")
	}
}

func TestPIDReuseDropsHistory(t *testing.T) {
	reader := &fakeReader{}
	s := newTestSampler(t, reader, Options{Capacity: 5, Retention: time.Minute})
	if err := s.AddTarget(Target{Kind: MatchPID, PID: 100}); err != nil {
		t.Fatal(err)
	}

	reader.set(testTable(Row{PID: 100, Name: "alpha", StartTime: t0, CPUPercent: 10}), nil)
	s.runCycle(t0)
	reader.set(testTable(Row{PID: 100, Name: "alpha", StartTime: t0, CPUPercent: 20}), nil)
	s.runCycle(t0.Add(time.Second))

	// PID 复用：新身份不得继承旧历史
	reader.set(testTable(Row{PID: 100, Name: "beta", StartTime: t1, CPUPercent: 99}), nil)
	s.runCycle(t0.Add(2 * time.Second))

	ps := s.Snapshot().Process(100)
	if ps == nil {
		t.Fatal("snapshot is missing pid 100")
	}
	if !reflect.DeepEqual(ps.CPU.Values, []float64{99}) {
		t.Errorf("reused pid history = %v, want [99]", ps.CPU.Values)
	}
	if ps.Name != "beta" {
		t.Errorf("reused pid name = %q, want beta", ps.Name)
	}
}

func TestVanishedAbsentFromNextSnapshot(t *testing.T) {
	reader := &fakeReader{}
	s := newTestSampler(t, reader, Options{Capacity: 5, Retention: 0})
	if err := s.AddTarget(Target{Kind: MatchName, Name: "worker"}); err != nil {
		t.Fatal(err)
	}

	reader.set(testTable(Row{PID: 10, Name: "worker", StartTime: t0, CPUPercent: 10}), nil)
	s.runCycle(t0)

	reader.set(testTable(), nil)
	s.runCycle(t0.Add(time.Second))

	if ps := s.Snapshot().Process(10); ps != nil {
		t.Errorf("vanished process should be absent within one cycle, got %+v", ps)
	}
}

func TestVanishedGraceTail(t *testing.T) {
	reader := &fakeReader{}
	s := newTestSampler(t, reader, Options{Capacity: 5, Retention: 10 * time.Second})
	if err := s.AddTarget(Target{Kind: MatchName, Name: "worker"}); err != nil {
		t.Fatal(err)
	}

	reader.set(testTable(Row{PID: 10, Name: "worker", StartTime: t0, CPUPercent: 10}), nil)
	s.runCycle(t0)

	reader.set(testTable(), nil)
	s.runCycle(t0.Add(time.Second))

	// 宽限期内以 "刚退出" 状态保留历史，且身份可归属
	ps := s.Snapshot().Process(10)
	if ps == nil {
		t.Fatal("grace tail should keep the vanished process in the snapshot")
	}
	if ps.Alive {
		t.Error("vanished process should not be marked alive")
	}
	if ps.Name != "worker" {
		t.Errorf("grace tail name = %q, want worker", ps.Name)
	}
	if ps.TargetKey != "worker" {
		t.Errorf("grace tail target = %q, want worker", ps.TargetKey)
	}
	if !ps.FirstSeen.Equal(t0) {
		t.Errorf("grace tail first seen = %s, want %s", ps.FirstSeen, t0)
	}

	s.runCycle(t0.Add(15 * time.Second))
	if ps := s.Snapshot().Process(10); ps != nil {
		t.Errorf("history should be purged after the grace period, got %+v", ps)
	}
}

func TestTargetStatsRollup(t *testing.T) {
	reader := &fakeReader{}
	s := newTestSampler(t, reader, Options{Capacity: 5})
	if err := s.AddTarget(Target{Kind: MatchName, Name: "a", IncludeChildren: true}); err != nil {
		t.Fatal(err)
	}

	reader.set(testTable(
		Row{PID: 1, Name: "a", StartTime: t0, CPUPercent: 10, MemoryRSS: 100},
		Row{PID: 2, PPID: 1, Name: "b", StartTime: t0, CPUPercent: 5, MemoryRSS: 50},
	), nil)
	s.runCycle(t0)

	snap := s.Snapshot()
	if len(snap.Targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(snap.Targets))
	}
	stats := snap.Targets[0]
	if stats.ProcessCount != 2 {
		t.Errorf("ProcessCount = %d, want 2", stats.ProcessCount)
	}
	if stats.CurrentCPU != 15 {
		t.Errorf("CurrentCPU = %v, want 15", stats.CurrentCPU)
	}
	if stats.MemoryBytes != 150 {
		t.Errorf("MemoryBytes = %v, want 150", stats.MemoryBytes)
	}
	if stats.PeakCPU < 15 {
		t.Errorf("PeakCPU = %v, want >= 15", stats.PeakCPU)
	}
}

func TestSamplerStartStop(t *testing.T) {
	reader := &fakeReader{}
	reader.set(testTable(), nil)
	s := newTestSampler(t, reader, Options{Interval: MinInterval})

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start should fail while running")
	}

	// 首轮采样立即执行
	deadline := time.Now().Add(2 * time.Second)
	for s.Status().Cycle == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Status().Cycle == 0 {
		t.Fatal("no cycle ran after Start")
	}

	s.Stop()
	if got := s.State(); got != StateStopped {
		t.Errorf("state after Stop = %s, want stopped", got)
	}

	// 停止后可重新启动
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}

func TestSamplerStopIdempotent(t *testing.T) {
	reader := &fakeReader{}
	reader.set(testTable(), nil)
	s := newTestSampler(t, reader, Options{Interval: MinInterval})

	s.Stop() // 未启动时调用无效果

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	s.Stop()
}

// slowReader 每次读取耗时 delay，并记录是否出现过并发读取。
type slowReader struct {
	delay time.Duration

	active  atomic.Int32
	overlap atomic.Bool
	calls   atomic.Int32
}

func (r *slowReader) ReadTable(ctx context.Context) (*Table, error) {
	if r.active.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.active.Add(-1)
	r.calls.Add(1)

	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Table{Rows: map[int32]Row{}, ReadAt: time.Now()}, nil
}

// 一轮采样超过间隔时，下一轮顺延而不是并发执行。
func TestCycleOverrunDelaysNextCycle(t *testing.T) {
	reader := &slowReader{delay: MinInterval + 50*time.Millisecond}
	s := newTestSampler(t, reader, Options{Interval: MinInterval})

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for reader.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	if reader.calls.Load() < 3 {
		t.Fatal("expected at least 3 cycles")
	}
	if reader.overlap.Load() {
		t.Error("cycles ran concurrently, overrunning cycle must delay the next tick")
	}
}

// hangReader 在 hang 置位后阻塞到上下文超时。
type hangReader struct {
	table *Table
	hang  atomic.Bool
}

func (r *hangReader) ReadTable(ctx context.Context) (*Table, error) {
	if r.hang.Load() {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.table, nil
}

// 整表读取超时按整轮失败处理：快照与跟踪集保持不变，错误状态置位。
func TestCycleTimeoutFailsCycle(t *testing.T) {
	reader := &hangReader{table: testTable(
		Row{PID: 10, Name: "worker", StartTime: t0, CPUPercent: 10},
	)}
	s := newTestSampler(t, reader, Options{Capacity: 5, Timeout: 50 * time.Millisecond})
	if err := s.AddTarget(Target{Kind: MatchName, Name: "worker"}); err != nil {
		t.Fatal(err)
	}

	s.runCycle(t0)
	before := s.Snapshot()

	reader.hang.Store(true)
	s.runCycle(t0.Add(time.Second))

	if s.Status().LastError == "" {
		t.Error("timed-out cycle should surface an error in status")
	}
	if s.Snapshot() != before {
		t.Error("snapshot should be unchanged after a timed-out cycle")
	}
	if got := trackedPIDs(s.tracker); !reflect.DeepEqual(got, []int32{10}) {
		t.Errorf("tracked set should be preserved, got %v", got)
	}

	reader.hang.Store(false)
	s.runCycle(t0.Add(2 * time.Second))
	if s.Status().LastError != "" {
		t.Errorf("error status should be cleared by a successful cycle, got %q", s.Status().LastError)
	}
}

// 并发 Stop 都要等到采样循环真正退出后才返回。
func TestSamplerStopConcurrent(t *testing.T) {
	reader := &slowReader{delay: 50 * time.Millisecond}
	s := newTestSampler(t, reader, Options{Interval: MinInterval})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Stop()
			if got := s.State(); got != StateStopped {
				t.Errorf("Stop returned while state = %s", got)
			}
		}()
	}
	wg.Wait()
}

func TestSetIntervalValidation(t *testing.T) {
	s := newTestSampler(t, &fakeReader{}, Options{Interval: time.Second})

	if err := s.SetInterval(50 * time.Millisecond); err == nil {
		t.Error("SetInterval below the minimum should fail")
	}
	if got := s.Interval(); got != time.Second {
		t.Errorf("interval changed by rejected SetInterval: %s", got)
	}

	if err := s.SetInterval(200 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if got := s.Interval(); got != 200*time.Millisecond {
		t.Errorf("interval = %s, want 200ms", got)
	}
}

func TestSnapshotBeforeFirstCycle(t *testing.T) {
	s := newTestSampler(t, &fakeReader{}, Options{})
	snap := s.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() should never return nil")
	}
	if len(snap.Processes) != 0 {
		t.Errorf("empty snapshot expected before the first cycle")
	}
}
