package monitor

import (
	"context"
	"time"
)

// Row is one process in an enumeration of the OS process table.
type Row struct {
	PID       int32
	PPID      int32
	Name      string
	StartTime time.Time

	CPUPercent float64
	MemoryRSS  uint64

	// Err is set when the process was seen but its resource counters
	// could not be read this cycle (e.g. it exited mid-enumeration).
	// Such a row still participates in matching, but no sample is
	// recorded for it.
	Err error
}

// Table is a point-in-time enumeration of all OS processes.
type Table struct {
	Rows   map[int32]Row
	ReadAt time.Time
}

// TableReader is the only OS contract the monitor core relies on.
// Implementations must honor ctx cancellation and deadlines.
type TableReader interface {
	ReadTable(ctx context.Context) (*Table, error)
}
