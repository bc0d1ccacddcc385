package monitor

import (
	"sort"
	"time"
)

// MetricSeries is a read-only copy of one metric history plus its
// precomputed stats.
type MetricSeries struct {
	Values []float64 `json:"values"`
	Last   float64   `json:"last"`
	Avg    float64   `json:"avg"`
	Peak   float64   `json:"peak"`
}

func newMetricSeries(r *Ring) MetricSeries {
	return MetricSeries{
		Values: r.Values(),
		Last:   r.Last(),
		Avg:    r.Avg(),
		Peak:   r.Peak(),
	}
}

// ProcessSnapshot is one tracked process's state within a snapshot.
// Alive is false for a process inside its retention grace period.
type ProcessSnapshot struct {
	PID       int32     `json:"pid"`
	PPID      int32     `json:"ppid,omitempty"`
	Name      string    `json:"name"`
	TargetKey string    `json:"target,omitempty"`
	FirstSeen time.Time `json:"first_seen,omitempty"`
	Alive     bool      `json:"alive"`

	CPU    MetricSeries `json:"cpu"`
	Memory MetricSeries `json:"memory"`
}

// TargetStats is the per-target rollup over its matched processes:
// current totals plus average/peak over the retained history.
type TargetStats struct {
	Target       Target  `json:"target"`
	ProcessCount int     `json:"process_count"`
	CurrentCPU   float64 `json:"current_cpu"`
	AvgCPU       float64 `json:"avg_cpu"`
	PeakCPU      float64 `json:"peak_cpu"`
	MemoryBytes  float64 `json:"memory_bytes"`
	PeakMemory   float64 `json:"peak_memory_bytes"`
}

// Snapshot is an immutable point-in-time aggregate of all tracked
// processes and their histories. It is built fully, then published with
// an atomic pointer swap; readers may hold it as long as they like.
type Snapshot struct {
	TakenAt   time.Time         `json:"taken_at"`
	Cycle     uint64            `json:"cycle"`
	Processes []ProcessSnapshot `json:"processes"`
	Targets   []TargetStats     `json:"targets"`
}

// Process returns the snapshot entry for a PID, or nil.
func (s *Snapshot) Process(pid int32) *ProcessSnapshot {
	for i := range s.Processes {
		if s.Processes[i].PID == pid {
			return &s.Processes[i]
		}
	}
	return nil
}

func buildSnapshot(now time.Time, cycle uint64, tracked []*TrackedProcess, data map[int32]series, targets []Target) *Snapshot {
	snap := &Snapshot{
		TakenAt:   now,
		Cycle:     cycle,
		Processes: make([]ProcessSnapshot, 0, len(data)),
	}

	live := make(map[int32]*TrackedProcess, len(tracked))
	for _, tp := range tracked {
		live[tp.PID] = tp
	}

	for pid, ser := range data {
		ps := ProcessSnapshot{
			PID:    pid,
			CPU:    newMetricSeries(ser.cpu),
			Memory: newMetricSeries(ser.memory),
		}
		if tp, ok := live[pid]; ok {
			ps.PPID = tp.PPID
			ps.Name = tp.Name
			ps.TargetKey = tp.TargetKey
			ps.FirstSeen = tp.FirstSeen
			ps.Alive = true
		} else {
			// 宽限期内的 "刚退出" 条目用最后一次观察到的身份归属
			ps.PPID = ser.ppid
			ps.Name = ser.name
			ps.TargetKey = ser.targetKey
			ps.FirstSeen = ser.firstSeen
		}
		snap.Processes = append(snap.Processes, ps)
	}
	sort.Slice(snap.Processes, func(i, j int) bool {
		return snap.Processes[i].PID < snap.Processes[j].PID
	})

	// Per-target rollup: totals over live members, avg/peak are the max
	// over each member's history stats.
	byTarget := make(map[string][]*ProcessSnapshot)
	for i := range snap.Processes {
		ps := &snap.Processes[i]
		if ps.Alive {
			byTarget[ps.TargetKey] = append(byTarget[ps.TargetKey], ps)
		}
	}

	for _, target := range targets {
		stats := TargetStats{Target: target}
		for _, ps := range byTarget[target.Key()] {
			stats.ProcessCount++
			stats.CurrentCPU += ps.CPU.Last
			stats.MemoryBytes += ps.Memory.Last
			stats.AvgCPU = max(stats.AvgCPU, ps.CPU.Avg)
			stats.PeakCPU = max(stats.PeakCPU, ps.CPU.Peak)
			stats.PeakMemory = max(stats.PeakMemory, ps.Memory.Peak)
		}
		stats.PeakCPU = max(stats.PeakCPU, stats.CurrentCPU)
		stats.PeakMemory = max(stats.PeakMemory, stats.MemoryBytes)
		snap.Targets = append(snap.Targets, stats)
	}

	return snap
}
