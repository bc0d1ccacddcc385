package form

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/sarv/procscope/internal/ui/style"
)

const (
	helpHeight  = 1
	frameHeight = 3  // 边框与内边距
	widthSlack  = 10 // 标签与输入框之间的间距补偿
	minWidth    = 40
)

// Form 居中弹出的表单，ESC 触发 cancelHandler
type Form struct {
	*tview.Box
	title         string
	layout        *tview.Flex
	form          *tview.Form
	width         int
	height        int
	labelWidth    int
	valueWidth    int
	cancelHandler func()
}

func NewForm(title string) *Form {
	f := &Form{
		Box:    tview.NewBox(),
		title:  title,
		layout: tview.NewFlex().SetDirection(tview.FlexRow),
		form:   tview.NewForm(),
	}

	f.form.SetBorderPadding(1, 1, 1, 1)
	f.form.SetBackgroundColor(style.DialogBgColor)
	f.form.SetFieldBackgroundColor(style.BgColor)
	f.form.SetFieldTextColor(style.FgColor)
	f.form.SetButtonBackgroundColor(style.ButtonBgColor)
	f.form.SetButtonTextColor(style.FgColor)
	f.form.SetLabelColor(style.DialogFgColor)
	f.form.SetButtonsAlign(tview.AlignCenter)

	help := tview.NewTextView()
	help.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	help.SetTextColor(style.DialogFgColor).
		SetBackgroundColor(style.DialogBgColor)
	key := style.GetColorHex(style.MenuBgColor)
	txt := style.GetColorHex(style.PageHeaderFgColor)
	fmt.Fprintf(help,
		"[%s::b]Tab[%s::b]: 导航  [%s::b]Enter[%s::b]: 选择  [%s::b]ESC[%s::b]: 返回",
		key, txt, key, txt, key, txt)

	body := tview.NewFlex().SetDirection(tview.FlexColumn)
	body.AddItem(spacer(style.DialogBgColor), 1, 0, false)
	body.AddItem(f.form, 0, 1, true)
	body.AddItem(spacer(style.DialogBgColor), 1, 0, false)

	f.layout.SetTitle(fmt.Sprintf("[::b]%s", title)).
		SetTitleColor(style.DialogFgColor).
		SetTitleAlign(tview.AlignCenter).
		SetBorder(true).
		SetBorderColor(style.DialogBorderColor).
		SetBackgroundColor(style.DialogBgColor)
	f.layout.AddItem(body, 0, 1, true)
	f.layout.AddItem(help, helpHeight, 0, false)

	return f
}

func (f *Form) AddInputField(label, value string, fieldWidth int, accept func(textToCheck string, lastChar rune) bool, changed func(text string)) *Form {
	if len(label) > f.labelWidth {
		f.labelWidth = len(label)
	}
	w := fieldWidth
	if len(value) > w {
		w = len(value)
	}
	if w > f.valueWidth {
		f.valueWidth = w
	}

	f.form.AddInputField(label, value, fieldWidth, accept, changed)
	f.resize()
	return f
}

func (f *Form) AddCheckbox(label string, checked bool, changed func(checked bool)) *Form {
	if len(label) > f.labelWidth {
		f.labelWidth = len(label)
	}
	f.form.AddCheckbox(label, checked, changed)
	f.resize()
	return f
}

func (f *Form) AddButton(label string, selected func()) *Form {
	f.form.AddButton(label, selected)
	f.resize()
	return f
}

func (f *Form) SetCancelFunc(handler func()) *Form {
	f.cancelHandler = handler
	return f
}

// resize 由字段数量和最长标签/值推导弹窗尺寸
func (f *Form) resize() {
	// 每个字段占两行，按钮区占两行
	f.height = f.form.GetFormItemCount()*2 + 2 + frameHeight + helpHeight

	f.width = f.labelWidth + f.valueWidth + widthSlack
	if f.width < minWidth {
		f.width = minWidth
	}
}

func (f *Form) Draw(screen tcell.Screen) {
	f.Box.DrawForSubclass(screen, f)
	f.layout.Draw(screen)
}

// SetRect 将表单居中，超出屏幕时压缩到可见范围
func (f *Form) SetRect(x, y, width, height int) {
	bw, bh := f.width, f.height

	dx := x + (width-bw)/2
	if bw > width {
		dx = x
		bw = width - 1
	}

	dy := y + (height-bh)/2
	if bh > height {
		dy = y
		bh = height - 1
	}

	f.Box.SetRect(dx, dy, bw, bh)

	ix, iy, iw, ih := f.Box.GetInnerRect()
	f.layout.SetRect(ix, iy, iw, ih)
}

func (f *Form) Focus(delegate func(p tview.Primitive)) {
	delegate(f.form)
}

func (f *Form) HasFocus() bool {
	return f.form.HasFocus()
}

func (f *Form) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return f.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		if event.Key() == tcell.KeyEscape && f.cancelHandler != nil {
			f.cancelHandler()
			return
		}
		if handler := f.form.InputHandler(); handler != nil {
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
