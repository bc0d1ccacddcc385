package footer

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/sarv/procscope/internal/ui/style"
	"github.com/sarv/procscope/pkg/version"
)

// Footer 底栏，左侧版本信息，右侧按键提示
type Footer struct {
	*tview.Flex
	brand *tview.TextView
	keys  *tview.TextView
}

func New() *Footer {
	f := &Footer{
		Flex:  tview.NewFlex(),
		brand: tview.NewTextView(),
		keys:  tview.NewTextView(),
	}

	f.brand.SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignLeft)
	f.brand.SetBackgroundColor(tview.Styles.PrimitiveBackgroundColor)
	f.brand.SetText(fmt.Sprintf("[%s::b] @ Sarv's Procscope %s[-:-:-]",
		style.GetColorHex(style.PageHeaderFgColor), version.Version))

	f.keys.SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignRight)
	f.keys.SetBackgroundColor(tview.Styles.PrimitiveBackgroundColor)

	key := style.GetColorHex(style.MenuBgColor)
	txt := style.GetColorHex(style.PageHeaderFgColor)
	fmt.Fprintf(f.keys,
		"[%s::b]↑/↓[%s::b]: 导航  [%s::b]←/→[%s::b]: 切换标签  [%s::b]Enter[%s::b]: 选择  [%s::b]ESC[%s::b]: 返回  [%s::b]Ctrl+C[%s::b]: 退出",
		key, txt, key, txt, key, txt, key, txt, key, txt)

	f.AddItem(f.brand, 0, 1, false).
		AddItem(f.keys, 0, 2, false)

	return f
}
