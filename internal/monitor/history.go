package monitor

import (
	"sync"
	"time"

	"github.com/sarv/procscope/internal/errors"
)

// Metric identifies one tracked time series per process.
type Metric string

const (
	MetricCPU    Metric = "cpu"    // percent
	MetricMemory Metric = "memory" // bytes
)

// history holds the per-process ring buffers plus vanish bookkeeping.
type history struct {
	cpu    *Ring
	memory *Ring

	// 最后一次观察到的进程身份，进程退出后宽限期内的快照条目靠它归属
	ppid      int32
	name      string
	targetKey string
	firstSeen time.Time

	// vanishedAt is non-zero while the process is gone but its history
	// is retained for the configured grace period.
	vanishedAt time.Time
}

// Store is the bounded, per-process, per-metric time series store. It is
// written by the sampler goroutine and reconfigured from UI/HTTP
// goroutines; all state is guarded by one mutex. Readers never touch the
// store directly, they get deep copies via the sampler's Snapshot.
type Store struct {
	mu        sync.Mutex
	capacity  int
	retention time.Duration
	histories map[int32]*history
}

func NewStore(capacity int, retention time.Duration) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if retention < 0 {
		retention = 0
	}
	return &Store{
		capacity:  capacity,
		retention: retention,
		histories: make(map[int32]*history),
	}
}

// Record appends one sample, evicting the oldest when the ring is full.
// Recording marks the process live again, ending any grace period.
func (s *Store) Record(pid int32, metric Metric, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[pid]
	if !ok {
		h = &history{
			cpu:    NewRing(s.capacity),
			memory: NewRing(s.capacity),
		}
		s.histories[pid] = h
	}
	h.vanishedAt = time.Time{}

	switch metric {
	case MetricCPU:
		h.cpu.Push(value)
	case MetricMemory:
		h.memory.Push(value)
	}
}

// Observe refreshes the last-known identity attached to a process's
// history. Snapshot building falls back to it for processes inside the
// retention grace period, which are no longer in the tracked set.
func (s *Store) Observe(tp *TrackedProcess) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[tp.PID]
	if !ok {
		return
	}
	h.ppid = tp.PPID
	h.name = tp.Name
	h.targetKey = tp.TargetKey
	h.firstSeen = tp.FirstSeen
}

// Drop removes a process's history entirely. Used on PID reuse, where the
// new identity must not inherit the old one's samples.
func (s *Store) Drop(pid int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, pid)
}

// MarkVanished starts the retention grace period for a vanished process.
// With zero retention the history is purged immediately.
func (s *Store) MarkVanished(pid int32, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[pid]
	if !ok {
		return
	}
	if s.retention == 0 {
		delete(s.histories, pid)
		return
	}
	if h.vanishedAt.IsZero() {
		h.vanishedAt = now
	}
}

// Purge removes histories whose grace period has elapsed.
func (s *Store) Purge(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pid, h := range s.histories {
		if h.vanishedAt.IsZero() {
			continue
		}
		if now.Sub(h.vanishedAt) >= s.retention {
			delete(s.histories, pid)
		}
	}
}

// SetCapacity changes the shared ring capacity. Existing buffers are
// truncated oldest-first when shrinking.
func (s *Store) SetCapacity(capacity int) error {
	if capacity < 1 || capacity > MaxCapacity {
		return errors.InvalidCapacity(capacity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacity = capacity
	for _, h := range s.histories {
		h.cpu.Resize(capacity)
		h.memory.Resize(capacity)
	}
	return nil
}

func (s *Store) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

// SetRetention changes how long vanished processes' histories are kept.
func (s *Store) SetRetention(retention time.Duration) error {
	if retention < 0 {
		return errors.InvalidRetention(retention)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retention = retention
	return nil
}

func (s *Store) Retention() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retention
}

// series is a deep copy of one process's buffers and last-known
// identity, used for snapshots.
type series struct {
	cpu    *Ring
	memory *Ring

	ppid      int32
	name      string
	targetKey string
	firstSeen time.Time

	vanishedAt time.Time
}

func (s *Store) copySeries() map[int32]series {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int32]series, len(s.histories))
	for pid, h := range s.histories {
		cpu := NewRing(h.cpu.Cap())
		for _, v := range h.cpu.Values() {
			cpu.Push(v)
		}
		memory := NewRing(h.memory.Cap())
		for _, v := range h.memory.Values() {
			memory.Push(v)
		}
		out[pid] = series{
			cpu:        cpu,
			memory:     memory,
			ppid:       h.ppid,
			name:       h.name,
			targetKey:  h.targetKey,
			firstSeen:  h.firstSeen,
			vanishedAt: h.vanishedAt,
		}
	}
	return out
}
