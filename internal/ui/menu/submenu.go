package menu

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/sarv/procscope/internal/ui/style"
)

const (
	subMenuHelpHeight  = 1
	subMenuFrameHeight = 4 // 边框 + 表头 + 帮助行
	subMenuWidthSlack  = 8 // 两列间距与边框补偿
)

// SubMenu 居中弹出的二级菜单，ESC 触发 cancelHandler
type SubMenu struct {
	*tview.Box
	title         string
	layout        *tview.Flex
	table         *tview.Table
	width         int
	height        int
	items         []*Item
	cancelHandler func()
}

func NewSubMenu(title string) *SubMenu {
	sm := &SubMenu{
		Box:    tview.NewBox(),
		title:  title,
		layout: tview.NewFlex(),
		table:  tview.NewTable(),
	}

	sm.table.SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 1)
	sm.table.SetBorderColor(style.DialogBorderColor).
		SetBackgroundColor(style.DialogBgColor).
		SetTitleColor(style.DialogFgColor)

	sm.table.Select(1, 0).SetSelectedFunc(func(row, _ int) {
		if row == 0 {
			return
		}
		item := sm.items[row-1]
		if item.Selected != nil {
			item.Selected(item)
		}
	})

	sm.renderHeader()

	help := tview.NewTextView()
	help.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	help.SetTextColor(style.DialogFgColor).
		SetBackgroundColor(style.DialogBgColor)
	key := style.GetColorHex(style.MenuBgColor)
	txt := style.GetColorHex(style.PageHeaderFgColor)
	fmt.Fprintf(help,
		"[%s::b]↑/↓[%s::b]: 导航  [%s::b]Enter[%s::b]: 选择  [%s::b]ESC[%s::b]: 返回",
		key, txt, key, txt, key, txt)

	body := tview.NewFlex().SetDirection(tview.FlexColumn)
	body.AddItem(spacer(style.DialogBgColor), 1, 0, true)
	body.AddItem(sm.table, 0, 1, true)
	body.AddItem(spacer(style.DialogBgColor), 1, 0, true)

	sm.layout.SetDirection(tview.FlexRow)
	sm.layout.SetTitle(fmt.Sprintf("[::b]%s", title)).
		SetTitleColor(style.DialogFgColor).
		SetTitleAlign(tview.AlignCenter).
		SetBorder(true).
		SetBorderColor(style.DialogBorderColor).
		SetBackgroundColor(style.DialogBgColor)
	sm.layout.AddItem(body, 0, 1, true)
	sm.layout.AddItem(help, subMenuHelpHeight, 0, true)

	return sm
}

func (m *SubMenu) renderHeader() {
	for col, text := range []string{headerAction, headerDesc} {
		m.table.SetCell(0, col, tview.NewTableCell(
			fmt.Sprintf("[%s::b]%s", style.GetColorHex(style.TableHeaderFgColor), text)).
			SetExpansion(1).
			SetBackgroundColor(style.TableHeaderBgColor).
			SetTextColor(style.TableHeaderFgColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false))
	}
}

func (m *SubMenu) AddItem(item *Item) {
	m.items = append(m.items, item)
	sort.SliceStable(m.items, func(i, j int) bool { return m.items[i].Index < m.items[j].Index })
	m.render()
}

func (m *SubMenu) SetItems(items []*Item) {
	m.items = items
	m.render()
}

func (m *SubMenu) SetCancelFunc(handler func()) *SubMenu {
	m.cancelHandler = handler
	return m
}

func (m *SubMenu) render() {
	m.table.Clear()
	m.renderHeader()

	nameWidth, descWidth := 0, 0
	row := 1
	for _, item := range m.items {
		if item.Hidden {
			continue
		}
		for col, text := range []string{item.Name, item.Description} {
			m.table.SetCell(row, col, tview.NewTableCell(text).
				SetTextColor(style.DialogFgColor).
				SetBackgroundColor(style.DialogBgColor).
				SetReference(item).
				SetAlign(tview.AlignLeft))
		}
		if len(item.Name) > nameWidth {
			nameWidth = len(item.Name)
		}
		if len(item.Description) > descWidth {
			descWidth = len(item.Description)
		}
		row++
	}

	m.width = nameWidth + descWidth + subMenuWidthSlack
	m.height = len(m.items) + subMenuFrameHeight + subMenuHelpHeight
}

func (m *SubMenu) Draw(screen tcell.Screen) {
	m.render()

	m.Box.DrawForSubclass(screen, m)
	m.layout.Draw(screen)
}

// SetRect 将弹窗居中，超出屏幕时压缩到可见范围
func (m *SubMenu) SetRect(x, y, width, height int) {
	bw, bh := m.width, m.height

	dx := x + (width-bw)/2
	if bw > width {
		dx = x
		bw = width - 1
	}

	dy := y + (height-bh)/2
	if bh >= height {
		dy = y + 1
		bh = height - 1
	}

	m.Box.SetRect(dx, dy, bw, bh)

	ix, iy, iw, ih := m.Box.GetInnerRect()
	m.layout.SetRect(ix, iy, iw, ih)
}

func (m *SubMenu) Focus(delegate func(p tview.Primitive)) {
	delegate(m.table)
}

func (m *SubMenu) HasFocus() bool {
	return m.table.HasFocus()
}

func (m *SubMenu) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return m.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		if event.Key() == tcell.KeyEscape && m.cancelHandler != nil {
			m.cancelHandler()
			return
		}
		if handler := m.table.InputHandler(); handler != nil {
			handler(event, setFocus)
		}
	})
}

func spacer(bg tcell.Color) *tview.Box {
	box := tview.NewBox()
	box.SetBackgroundColor(bg)
	box.SetBorder(false)
	return box
}
