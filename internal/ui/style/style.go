package style

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// 全局配色，偏冷色调
var (
	// 主视图
	FgColor     = tcell.ColorFloralWhite
	BgColor     = tview.Styles.PrimitiveBackgroundColor
	BorderColor = tcell.NewRGBColor(95, 135, 175)
	MenuBgColor = tcell.ColorSteelBlue

	// 页头
	PageHeaderBgColor = tcell.ColorSteelBlue
	PageHeaderFgColor = tcell.ColorFloralWhite

	// 信息栏
	InfoBarItemFgColor = tcell.ColorSilver

	// 进程状态
	RunningStatusFgColor = tcell.NewRGBColor(95, 215, 0)
	PausedStatusFgColor  = tcell.NewRGBColor(255, 175, 0)

	// 弹窗
	DialogBgColor     = tcell.NewRGBColor(38, 38, 38)
	DialogFgColor     = tcell.ColorFloralWhite
	DialogBorderColor = tcell.ColorSteelBlue
	ButtonBgColor     = tcell.ColorSteelBlue

	// 表头
	TableHeaderBgColor = tcell.ColorSteelBlue
	TableHeaderFgColor = tcell.ColorFloralWhite
)

// GetColorHex converts a tcell color to the hex form used in tview color tags.
func GetColorHex(color tcell.Color) string {
	return fmt.Sprintf("#%x", color.Hex())
}
