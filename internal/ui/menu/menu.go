package menu

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/sarv/procscope/internal/ui/style"
)

const (
	headerAction = "操作"
	headerDesc   = "说明"
)

// Item 菜单项，Index 决定排序，Hidden 的项不渲染
type Item struct {
	Index       int
	Key         string
	Name        string
	Description string
	Hidden      bool
	Selected    func(i *Item)
}

// Menu 主菜单，基于两列表格的可选列表
type Menu struct {
	*tview.Box
	title string
	table *tview.Table
	items []*Item
}

func New(title string) *Menu {
	m := &Menu{
		Box:   tview.NewBox(),
		title: title,
		table: tview.NewTable(),
	}

	m.table.SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	m.table.SetTitle(fmt.Sprintf("[::b]%s", title)).
		SetTitleColor(style.FgColor).
		SetBorderColor(style.BorderColor).
		SetBackgroundColor(style.BgColor)

	m.table.Select(1, 0).SetSelectedFunc(func(row, _ int) {
		if row == 0 {
			// 表头不可选
			return
		}
		if item, ok := m.table.GetCell(row, 0).GetReference().(*Item); ok && item.Selected != nil {
			item.Selected(item)
		}
	})

	m.renderHeader()
	return m
}

func (m *Menu) AddItem(item *Item) {
	m.items = append(m.items, item)
	sort.SliceStable(m.items, func(i, j int) bool { return m.items[i].Index < m.items[j].Index })
	m.render()
}

func (m *Menu) SetItems(items []*Item) {
	m.items = items
	m.render()
}

func (m *Menu) GetItems() []*Item {
	return m.items
}

func (m *Menu) renderHeader() {
	for col, text := range []string{headerAction, headerDesc} {
		m.table.SetCell(0, col, tview.NewTableCell(fmt.Sprintf("[black::b]%s", text)).
			SetExpansion(col+1).
			SetBackgroundColor(style.PageHeaderBgColor).
			SetTextColor(style.PageHeaderFgColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false))
	}
}

func (m *Menu) render() {
	m.table.Clear()
	m.renderHeader()

	row := 1
	for _, item := range m.items {
		if item.Hidden {
			continue
		}
		for col, text := range []string{item.Name, item.Description} {
			m.table.SetCell(row, col, tview.NewTableCell(text).
				SetTextColor(style.FgColor).
				SetBackgroundColor(style.BgColor).
				SetReference(item).
				SetAlign(tview.AlignLeft))
		}
		row++
	}
}

func (m *Menu) Draw(screen tcell.Screen) {
	m.render()

	m.Box.DrawForSubclass(screen, m)
	m.Box.SetBorder(false)

	x, y, w, h := m.GetInnerRect()
	m.table.SetRect(x, y, w, h)
	m.table.SetBorder(true).SetBorderColor(style.BorderColor)
	m.table.Draw(screen)
}

func (m *Menu) Focus(delegate func(p tview.Primitive)) {
	delegate(m.table)
}

func (m *Menu) HasFocus() bool {
	return m.table.HasFocus()
}

func (m *Menu) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return m.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		if handler := m.table.InputHandler(); handler != nil {
			handler(event, setFocus)
		}
	})
}
