package monitor

import (
	"sort"
	"sync"
	"time"
)

// TrackedProcess is a live OS process currently matched by a target,
// either directly or as a descendant of a direct match.
type TrackedProcess struct {
	PID       int32
	PPID      int32
	Name      string
	StartTime time.Time
	FirstSeen time.Time

	// TargetKey is the key of the target this process was matched
	// through. For descendants it is the root's target.
	TargetKey string
}

// sameIdentity reports whether a table row still describes this process.
// The OS may hand a freed PID to an unrelated process between two polls;
// a start-time mismatch (name mismatch as fallback when start times are
// unavailable) means the PID was reused.
func (tp *TrackedProcess) sameIdentity(row Row) bool {
	if !tp.StartTime.IsZero() || !row.StartTime.IsZero() {
		return tp.StartTime.Equal(row.StartTime)
	}
	return tp.Name == row.Name
}

// Delta is the set of PIDs that appeared or vanished between two
// consecutive refreshes. A reused PID shows up in both lists.
type Delta struct {
	Appeared []int32
	Vanished []int32
}

// Tracker maintains the set of tracked processes matching the current
// watch targets, including transitive descendants of targets with
// include-children enabled.
type Tracker struct {
	mu      sync.Mutex
	targets map[string]Target
	tracked map[int32]*TrackedProcess
}

func NewTracker() *Tracker {
	return &Tracker{
		targets: make(map[string]Target),
		tracked: make(map[int32]*TrackedProcess),
	}
}

func (t *Tracker) AddTarget(target Target) error {
	if err := target.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targets[target.Key()] = target
	return nil
}

// RemoveTarget removes a target by key. Processes matched only through it
// drop out on the next refresh.
func (t *Tracker) RemoveTarget(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.targets[key]; !ok {
		return false
	}
	delete(t.targets, key)
	return true
}

func (t *Tracker) SetTargets(targets []Target) error {
	for _, target := range targets {
		if err := target.Validate(); err != nil {
			return err
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targets = make(map[string]Target, len(targets))
	for _, target := range targets {
		t.targets[target.Key()] = target
	}
	return nil
}

func (t *Tracker) Targets() []Target {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Target, 0, len(t.targets))
	for _, target := range t.targets {
		out = append(out, target)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Refresh recomputes the tracked set against a fresh process table and
// returns the delta since the previous refresh. The previous set is kept
// unchanged when the caller could not read the table; Refresh is only
// called with a valid enumeration.
func (t *Tracker) Refresh(table *Table, now time.Time) Delta {
	t.mu.Lock()
	defer t.mu.Unlock()

	matched := t.match(table)

	next := make(map[int32]*TrackedProcess, len(matched))
	var delta Delta

	for pid, targetKey := range matched {
		row := table.Rows[pid]
		if prev, ok := t.tracked[pid]; ok && prev.sameIdentity(row) {
			// 同一进程继续跟踪
			prev.PPID = row.PPID
			prev.Name = row.Name
			prev.TargetKey = targetKey
			next[pid] = prev
			continue
		}
		if _, ok := t.tracked[pid]; ok {
			// PID 被复用：旧身份消失，新身份出现
			delta.Vanished = append(delta.Vanished, pid)
		}
		next[pid] = &TrackedProcess{
			PID:       row.PID,
			PPID:      row.PPID,
			Name:      row.Name,
			StartTime: row.StartTime,
			FirstSeen: now,
			TargetKey: targetKey,
		}
		delta.Appeared = append(delta.Appeared, pid)
	}

	for pid := range t.tracked {
		if _, ok := next[pid]; !ok {
			delta.Vanished = append(delta.Vanished, pid)
		}
	}

	t.tracked = next

	sort.Slice(delta.Appeared, func(i, j int) bool { return delta.Appeared[i] < delta.Appeared[j] })
	sort.Slice(delta.Vanished, func(i, j int) bool { return delta.Vanished[i] < delta.Vanished[j] })
	return delta
}

// match returns pid -> target key for every direct match and, for targets
// with include-children, every transitive descendant.
func (t *Tracker) match(table *Table) map[int32]string {
	matched := make(map[int32]string)

	// Direct matches first, in stable target order so that overlapping
	// targets resolve deterministically.
	keys := make([]string, 0, len(t.targets))
	for key := range t.targets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	children := childIndex(table)

	for _, key := range keys {
		target := t.targets[key]
		var roots []int32
		for pid, row := range table.Rows {
			if target.Matches(row.Name, pid) {
				roots = append(roots, pid)
			}
		}
		sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

		for _, root := range roots {
			if _, ok := matched[root]; !ok {
				matched[root] = key
			}
			if !target.IncludeChildren {
				continue
			}
			for _, pid := range descendants(root, children) {
				if _, ok := matched[pid]; !ok {
					matched[pid] = key
				}
			}
		}
	}

	return matched
}

func childIndex(table *Table) map[int32][]int32 {
	children := make(map[int32][]int32)
	for pid, row := range table.Rows {
		if pid == row.PPID {
			// 自引用的父链接，忽略
			continue
		}
		children[row.PPID] = append(children[row.PPID], pid)
	}
	for _, pids := range children {
		sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	}
	return children
}

// descendants walks the parent/child index iteratively with a visited
// set. Parent links come from a non-atomic read of the process table and
// can be stale or cyclic; the visited set guarantees termination.
func descendants(root int32, children map[int32][]int32) []int32 {
	visited := map[int32]bool{root: true}
	queue := append([]int32(nil), children[root]...)
	var out []int32

	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		if visited[pid] {
			continue
		}
		visited[pid] = true
		out = append(out, pid)
		queue = append(queue, children[pid]...)
	}

	return out
}

// Tracked returns the current tracked set, sorted by PID.
func (t *Tracker) Tracked() []*TrackedProcess {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*TrackedProcess, 0, len(t.tracked))
	for _, tp := range t.tracked {
		dup := *tp
		out = append(out, &dup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}
