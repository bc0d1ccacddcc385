package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/sarv/procscope/internal/errors"
)

// SystemReader reads the OS process table via gopsutil.
type SystemReader struct{}

func NewSystemReader() *SystemReader {
	return &SystemReader{}
}

// ReadTable enumerates all processes in one pass. A process whose name or
// parent cannot be read is dropped from the table; a process whose resource
// counters cannot be read is kept for matching with Row.Err set, so one bad
// process never fails the whole enumeration.
func (r *SystemReader) ReadTable(ctx context.Context) (*Table, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.ProcessTableReadFailed(err)
	}

	table := &Table{
		Rows:   make(map[int32]Row, len(procs)),
		ReadAt: time.Now(),
	}

	for _, p := range procs {
		if ctx.Err() != nil {
			return nil, errors.ProcessTableReadFailed(ctx.Err())
		}

		name, err := p.NameWithContext(ctx)
		if err != nil {
			// 进程可能在枚举过程中退出
			log.Debug().Int32("pid", p.Pid).Err(err).Msg("skip process: name unavailable")
			continue
		}

		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			log.Debug().Int32("pid", p.Pid).Err(err).Msg("skip process: ppid unavailable")
			continue
		}

		row := Row{
			PID:  p.Pid,
			PPID: ppid,
			Name: name,
		}

		if created, err := p.CreateTimeWithContext(ctx); err == nil {
			row.StartTime = time.UnixMilli(created)
		}

		cpu, cpuErr := p.CPUPercentWithContext(ctx)
		mem, memErr := p.MemoryInfoWithContext(ctx)
		switch {
		case cpuErr != nil:
			row.Err = errors.ProcessReadFailed(p.Pid, cpuErr)
		case memErr != nil:
			row.Err = errors.ProcessReadFailed(p.Pid, memErr)
		default:
			row.CPUPercent = cpu
			row.MemoryRSS = mem.RSS
		}

		table.Rows[row.PID] = row
	}

	return table, nil
}
