package infobar

import (
	"fmt"

	"github.com/sarv/procscope/internal/ui/style"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	Title = "infobar"
)

// InfoBarViewHeight info bar height.
const (
	InfoBarViewHeight = 5
	stateRow          = 0
	targetsRow        = 1
	cycleRow          = 2
	httpServerRow     = 3
	lastErrorRow      = 4

	// 列索引
	labelCol1 = 0 // 第一列标签
	valueCol1 = 1 // 第一列值
	labelCol2 = 2 // 第二列标签
	valueCol2 = 3 // 第二列值
	totalCols = 4
)

// InfoBar implements the info bar primitive.
type InfoBar struct {
	*tview.Box
	title string
	table *tview.Table
}

// New returns info bar view.
func New() *InfoBar {
	table := tview.NewTable()
	headerColor := style.InfoBarItemFgColor

	label := func(row, col int, text string) {
		table.SetCell(row, col, tview.NewTableCell(fmt.Sprintf(" [%s::]%s", headerColor, text)))
		table.SetCell(row, col+1, tview.NewTableCell(""))
	}

	// State 和 Interval 行
	label(stateRow, labelCol1, "State:")
	label(stateRow, labelCol2, "Interval:")

	// Targets 和 Capacity 行
	label(targetsRow, labelCol1, "Targets:")
	label(targetsRow, labelCol2, "Capacity:")

	// Cycle 和 Retention 行
	label(cycleRow, labelCol1, "Cycle:")
	label(cycleRow, labelCol2, "Retention:")

	// HTTP Server 和 Config Dir 行
	label(httpServerRow, labelCol1, "HTTP Server:")
	label(httpServerRow, labelCol2, "Config Dir:")

	// Last Error 行
	label(lastErrorRow, labelCol1, "Last Error:")

	infoBar := &InfoBar{
		Box:   tview.NewBox(),
		title: Title,
		table: table,
	}

	return infoBar
}

func (info *InfoBar) UpdateState(state string) {
	info.table.GetCell(stateRow, valueCol1).SetText(state)
}

func (info *InfoBar) UpdateInterval(interval string) {
	info.table.GetCell(stateRow, valueCol2).SetText(interval)
}

func (info *InfoBar) UpdateTargets(count int) {
	info.table.GetCell(targetsRow, valueCol1).SetText(fmt.Sprintf("%d", count))
}

func (info *InfoBar) UpdateCapacity(capacity int) {
	info.table.GetCell(targetsRow, valueCol2).SetText(fmt.Sprintf("%d", capacity))
}

func (info *InfoBar) UpdateCycle(cycle uint64) {
	info.table.GetCell(cycleRow, valueCol1).SetText(fmt.Sprintf("%d", cycle))
}

func (info *InfoBar) UpdateRetention(retention string) {
	info.table.GetCell(cycleRow, valueCol2).SetText(retention)
}

// UpdateHTTPServer updates HTTP Server value.
func (info *InfoBar) UpdateHTTPServer(server string) {
	info.table.GetCell(httpServerRow, valueCol1).SetText(server)
}

func (info *InfoBar) UpdateConfigDir(dir string) {
	info.table.GetCell(httpServerRow, valueCol2).SetText(dir)
}

func (info *InfoBar) UpdateLastError(msg string) {
	info.table.GetCell(lastErrorRow, valueCol1).SetText(msg)
}

// Draw draws this primitive onto the screen.
func (info *InfoBar) Draw(screen tcell.Screen) {
	info.Box.DrawForSubclass(screen, info)
	info.Box.SetBorder(false)

	x, y, width, height := info.GetInnerRect()

	info.table.SetRect(x, y, width, height)
	info.table.SetBorder(false)
	info.table.Draw(screen)
}
