package monitor

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sarv/procscope/internal/errors"
)

const (
	DefaultInterval  = time.Second
	MinInterval      = 100 * time.Millisecond
	DefaultCapacity  = 120
	MaxCapacity      = 86400
	DefaultRetention = 10 * time.Second
	DefaultTimeout   = 5 * time.Second
)

// State is the sampler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopRequested
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop_requested"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options configures a Sampler. Zero interval, capacity and timeout fall
// back to defaults; zero retention means vanished processes' histories
// are purged immediately.
type Options struct {
	Interval  time.Duration
	Capacity  int
	Retention time.Duration
	Timeout   time.Duration
}

// Status reports the outcome of the most recent poll cycle. LastError is
// empty when the last cycle fully succeeded; a successful cycle clears
// the error left by a failed one.
type Status struct {
	State       string        `json:"state"`
	Cycle       uint64        `json:"cycle"`
	LastCycleAt time.Time     `json:"last_cycle_at"`
	Interval    time.Duration `json:"interval"`
	Capacity    int           `json:"capacity"`
	Retention   time.Duration `json:"retention"`
	LastError   string        `json:"last_error,omitempty"`
}

type cycleResult struct {
	cycle uint64
	at    time.Time
	err   error
}

// Sampler drives polling at a fixed cadence on a single background
// goroutine: enumerate the process table, refresh the tracker, record
// metrics, publish a fresh snapshot. Cycles never overlap; a slow cycle
// delays the next tick instead of running concurrently with it.
type Sampler struct {
	reader  TableReader
	tracker *Tracker
	store   *Store

	interval atomic.Int64
	timeout  time.Duration

	startMu sync.Mutex
	state   atomic.Int32
	stopCh  chan struct{}
	doneCh  chan struct{}

	cycle atomic.Uint64
	snap  atomic.Pointer[Snapshot]
	last  atomic.Pointer[cycleResult]
}

func NewSampler(reader TableReader, opts Options) *Sampler {
	if opts.Interval < MinInterval {
		opts.Interval = DefaultInterval
	}
	if opts.Capacity < 1 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retention < 0 {
		opts.Retention = 0
	}

	s := &Sampler{
		reader:  reader,
		tracker: NewTracker(),
		store:   NewStore(opts.Capacity, opts.Retention),
		timeout: opts.Timeout,
	}
	s.interval.Store(int64(opts.Interval))
	return s
}

// Start launches the polling loop. Restarting a stopped sampler is
// allowed; starting a running one is an error.
func (s *Sampler) Start() error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	switch s.State() {
	case StateRunning, StateStopRequested:
		return errors.SamplerAlreadyRunning()
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.state.Store(int32(StateRunning))
	go s.run()

	log.Info().Dur("interval", s.Interval()).Msg("sampler started")
	return nil
}

// Stop requests a cooperative stop and waits for the loop to finish. An
// in-flight cycle completes; no new cycle begins after the request.
// Concurrent callers all block until the loop has exited.
func (s *Sampler) Stop() {
	s.startMu.Lock()
	if s.State() == StateIdle {
		s.startMu.Unlock()
		return
	}
	if s.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested)) {
		close(s.stopCh)
	}
	done := s.doneCh
	s.startMu.Unlock()

	<-done
	log.Info().Msg("sampler stopped")
}

func (s *Sampler) State() State {
	return State(s.state.Load())
}

func (s *Sampler) run() {
	defer close(s.doneCh)
	defer s.state.Store(int32(StateStopped))

	s.runCycle(time.Now())

	timer := time.NewTimer(s.Interval())
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-timer.C:
			// 停止请求优先于下一轮采样
			if s.State() != StateRunning {
				return
			}
			s.runCycle(now)
			timer.Reset(s.Interval())
		}
	}
}

// runCycle executes one poll cycle. A whole-table read failure leaves
// tracker, store and the published snapshot untouched and only records
// the error; a per-process read failure skips that process and lets the
// rest of the cycle proceed.
func (s *Sampler) runCycle(now time.Time) {
	cycle := s.cycle.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	table, err := s.reader.ReadTable(ctx)
	if err != nil {
		log.Warn().Err(err).Uint64("cycle", cycle).Msg("process table read failed, keeping previous state")
		s.last.Store(&cycleResult{cycle: cycle, at: now, err: err})
		return
	}

	delta := s.tracker.Refresh(table, now)

	reused := make(map[int32]bool, len(delta.Appeared))
	for _, pid := range delta.Appeared {
		reused[pid] = true
	}
	for _, pid := range delta.Vanished {
		if reused[pid] {
			// PID 复用：新身份不继承旧历史
			s.store.Drop(pid)
		} else {
			s.store.MarkVanished(pid, now)
		}
	}

	var procErr error
	for _, tp := range s.tracker.Tracked() {
		row, ok := table.Rows[tp.PID]
		if !ok {
			continue
		}
		if row.Err != nil {
			log.Debug().Int32("pid", tp.PID).Err(row.Err).Msg("skip sample")
			procErr = row.Err
		} else {
			s.store.Record(tp.PID, MetricCPU, row.CPUPercent)
			s.store.Record(tp.PID, MetricMemory, float64(row.MemoryRSS))
		}
		s.store.Observe(tp)
	}

	s.store.Purge(now)

	snap := buildSnapshot(now, cycle, s.tracker.Tracked(), s.store.copySeries(), s.tracker.Targets())
	s.snap.Store(snap)
	s.last.Store(&cycleResult{cycle: cycle, at: now, err: procErr})
}

// Snapshot returns the most recently published snapshot without blocking
// on the polling loop. Before the first cycle it returns an empty one.
func (s *Sampler) Snapshot() *Snapshot {
	if snap := s.snap.Load(); snap != nil {
		return snap
	}
	return &Snapshot{}
}

func (s *Sampler) Status() Status {
	status := Status{
		State:     s.State().String(),
		Interval:  s.Interval(),
		Capacity:  s.store.Capacity(),
		Retention: s.store.Retention(),
	}
	if last := s.last.Load(); last != nil {
		status.Cycle = last.cycle
		status.LastCycleAt = last.at
		if last.err != nil {
			status.LastError = last.err.Error()
		}
	}
	return status
}

func (s *Sampler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval changes the polling cadence, taking effect after the
// current tick. Invalid values are rejected and the previous interval
// stays in force.
func (s *Sampler) SetInterval(d time.Duration) error {
	if d < MinInterval {
		return errors.InvalidInterval(d)
	}
	s.interval.Store(int64(d))
	return nil
}

func (s *Sampler) Capacity() int {
	return s.store.Capacity()
}

func (s *Sampler) SetCapacity(capacity int) error {
	return s.store.SetCapacity(capacity)
}

func (s *Sampler) Retention() time.Duration {
	return s.store.Retention()
}

func (s *Sampler) SetRetention(retention time.Duration) error {
	return s.store.SetRetention(retention)
}

func (s *Sampler) Targets() []Target {
	return s.tracker.Targets()
}

func (s *Sampler) AddTarget(target Target) error {
	return s.tracker.AddTarget(target)
}

func (s *Sampler) RemoveTarget(key string) bool {
	return s.tracker.RemoveTarget(key)
}

func (s *Sampler) SetTargets(targets []Target) error {
	return s.tracker.SetTargets(targets)
}

// ListProcesses enumerates the full OS process table for the selector
// UI, sorted by name then PID. It bypasses tracker and store.
func (s *Sampler) ListProcesses(ctx context.Context) ([]Row, error) {
	table, err := s.reader.ReadTable(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].PID < rows[j].PID
	})
	return rows, nil
}
