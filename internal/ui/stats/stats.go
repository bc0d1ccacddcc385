package stats

import (
	"fmt"

	"github.com/sarv/procscope/internal/monitor"
	"github.com/sarv/procscope/internal/ui/style"
	"github.com/sarv/procscope/pkg/util"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	Title     = "stats"
	ShowTitle = "监控详情"
)

var headers = []string{"PID", "进程名", "目标", "CPU%", "CPU均值", "CPU峰值", "内存", "内存峰值", "状态"}

// Stats renders the latest snapshot as a table: one row per tracked
// process, followed by one rollup row per target.
type Stats struct {
	*tview.Box
	title string
	table *tview.Table
}

func New() *Stats {
	stats := &Stats{
		Box:   tview.NewBox(),
		title: Title,
		table: tview.NewTable(),
	}

	stats.table.SetBorders(false)
	stats.table.SetSelectable(true, false)
	stats.table.SetTitle(fmt.Sprintf("[::b]%s", ShowTitle))
	stats.table.SetBorderColor(style.BorderColor)
	stats.table.SetBackgroundColor(style.BgColor)
	stats.table.SetTitleColor(style.FgColor)
	stats.table.SetFixed(1, 0)

	stats.setTableHeader()

	return stats
}

func (s *Stats) setTableHeader() {
	for col, h := range headers {
		s.table.SetCell(0, col, tview.NewTableCell(fmt.Sprintf("[black::b]%s", h)).
			SetExpansion(1).
			SetBackgroundColor(style.PageHeaderBgColor).
			SetTextColor(style.PageHeaderFgColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false))
	}
}

// Update replaces the table contents with the given snapshot. Safe to
// call from the UI goroutine only.
func (s *Stats) Update(snap *monitor.Snapshot) {
	s.table.Clear()
	s.setTableHeader()

	row := 1
	for _, ps := range snap.Processes {
		status := "运行中"
		color := style.RunningStatusFgColor
		if !ps.Alive {
			status = "已退出"
			color = style.PausedStatusFgColor
		}

		cells := []string{
			fmt.Sprintf("%d", ps.PID),
			ps.Name,
			ps.TargetKey,
			fmt.Sprintf("%.1f", ps.CPU.Last),
			fmt.Sprintf("%.1f", ps.CPU.Avg),
			fmt.Sprintf("%.1f", ps.CPU.Peak),
			util.ByteCountSI(int64(ps.Memory.Last)),
			util.ByteCountSI(int64(ps.Memory.Peak)),
			status,
		}
		for col, text := range cells {
			cell := tview.NewTableCell(text).
				SetTextColor(style.FgColor).
				SetBackgroundColor(style.BgColor).
				SetAlign(tview.AlignLeft)
			if col == len(cells)-1 {
				cell.SetTextColor(color)
			}
			s.table.SetCell(row, col, cell)
		}
		row++
	}

	// 目标汇总行
	for _, ts := range snap.Targets {
		cells := []string{
			"-",
			fmt.Sprintf("Σ %s", ts.Target.String()),
			fmt.Sprintf("%d 个进程", ts.ProcessCount),
			fmt.Sprintf("%.1f", ts.CurrentCPU),
			fmt.Sprintf("%.1f", ts.AvgCPU),
			fmt.Sprintf("%.1f", ts.PeakCPU),
			util.ByteCountSI(int64(ts.MemoryBytes)),
			util.ByteCountSI(int64(ts.PeakMemory)),
			"",
		}
		for col, text := range cells {
			s.table.SetCell(row, col, tview.NewTableCell(text).
				SetTextColor(style.InfoBarItemFgColor).
				SetBackgroundColor(style.BgColor).
				SetAlign(tview.AlignLeft))
		}
		row++
	}
}

func (s *Stats) Draw(screen tcell.Screen) {
	s.Box.DrawForSubclass(screen, s)
	s.Box.SetBorder(false)

	x, y, w, h := s.GetInnerRect()

	s.table.SetRect(x, y, w, h)
	s.table.SetBorder(true).SetBorderColor(style.BorderColor)

	s.table.Draw(screen)
}

func (s *Stats) Focus(delegate func(p tview.Primitive)) {
	delegate(s.table)
}

// HasFocus returns whether or not this primitive has focus
func (s *Stats) HasFocus() bool {
	return s.table.HasFocus()
}

func (s *Stats) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return s.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		if handler := s.table.InputHandler(); handler != nil {
			handler(event, setFocus)
		}
	})
}
