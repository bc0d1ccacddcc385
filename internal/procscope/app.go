package procscope

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sarv/procscope/internal/procscope/ctx"
	"github.com/sarv/procscope/internal/ui/footer"
	"github.com/sarv/procscope/internal/ui/form"
	"github.com/sarv/procscope/internal/ui/help"
	"github.com/sarv/procscope/internal/ui/infobar"
	"github.com/sarv/procscope/internal/ui/menu"
	"github.com/sarv/procscope/internal/ui/stats"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	RefreshInterval = 1000 * time.Millisecond
)

type App struct {
	*tview.Application

	ctx         *ctx.Context
	m           *Manager
	stopRefresh chan struct{}

	// page
	mainPages *tview.Pages
	infoBar   *infobar.InfoBar
	tabPages  *tview.Pages
	footer    *footer.Footer

	// tab
	menu      *menu.Menu
	stats     *stats.Stats
	help      *help.Help
	activeTab int
	tabCount  int
}

func NewApp(ctx *ctx.Context, m *Manager) *App {
	app := &App{
		ctx:         ctx,
		m:           m,
		Application: tview.NewApplication(),
		stopRefresh: make(chan struct{}),
		mainPages:   tview.NewPages(),
		infoBar:     infobar.New(),
		tabPages:    tview.NewPages(),
		footer:      footer.New(),
		menu:        menu.New("主菜单"),
		stats:       stats.New(),
		help:        help.New(),
	}

	app.initMenu()
	app.updateMenuItemsState()

	return app
}

func (a *App) Run() error {

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.infoBar, infobar.InfoBarViewHeight, 0, false).
		AddItem(a.tabPages, 0, 1, true).
		AddItem(a.footer, 1, 1, false)

	a.mainPages.AddPage("main", flex, true, true)

	a.tabPages.
		AddPage("0", a.menu, true, true).
		AddPage("1", a.stats, true, false).
		AddPage("2", a.help, true, false)
	a.tabCount = 3

	a.SetInputCapture(a.inputCapture)

	go a.refresh()

	if err := a.SetRoot(a.mainPages, true).EnableMouse(false).Run(); err != nil {
		return err
	}

	return nil
}

func (a *App) Stop() {
	if a.stopRefresh != nil {
		close(a.stopRefresh)
	}
	a.Application.Stop()
}

func (a *App) updateMenuItemsState() {
	for _, item := range a.menu.GetItems() {
		// 更新HTTP服务菜单项
		if item.Index == 4 {
			if a.ctx.HTTPEnabled {
				item.Name = "停止 HTTP 服务"
				item.Description = "停止本地 HTTP API 服务器"
			} else {
				item.Name = "启动 HTTP 服务"
				item.Description = "启动本地 HTTP API 服务器"
			}
		}
	}
}

func (a *App) switchTab(step int) {
	index := (a.activeTab + step) % a.tabCount
	if index < 0 {
		index = a.tabCount - 1
	}
	a.activeTab = index
	a.tabPages.SwitchToPage(fmt.Sprint(a.activeTab))
}

func (a *App) refresh() {
	tick := time.NewTicker(RefreshInterval)
	defer tick.Stop()

	for {
		select {
		case <-a.stopRefresh:
			return
		case <-tick.C:
			status := a.m.sampler.Status()
			snap := a.m.sampler.Snapshot()

			a.infoBar.UpdateState(status.State)
			a.infoBar.UpdateInterval(status.Interval.String())
			a.infoBar.UpdateTargets(len(a.m.sampler.Targets()))
			a.infoBar.UpdateCapacity(status.Capacity)
			a.infoBar.UpdateCycle(status.Cycle)
			a.infoBar.UpdateRetention(status.Retention.String())
			a.infoBar.UpdateConfigDir(a.ctx.ConfigDir)
			if status.LastError != "" {
				a.infoBar.UpdateLastError(fmt.Sprintf("[red]%s[white]", status.LastError))
			} else {
				a.infoBar.UpdateLastError("-")
			}
			if a.ctx.HTTPEnabled {
				a.infoBar.UpdateHTTPServer(fmt.Sprintf("[green][已启动][white] [%s]", a.ctx.GetHTTPAddr()))
			} else {
				a.infoBar.UpdateHTTPServer("[未启动]")
			}

			a.stats.Update(snap)

			a.Draw()
		}
	}
}

func (a *App) inputCapture(event *tcell.EventKey) *tcell.EventKey {

	// 如果当前页面不是主页面，ESC 键返回主页面
	if a.mainPages.HasPage("submenu") && event.Key() == tcell.KeyEscape {
		a.mainPages.RemovePage("submenu")
		a.mainPages.SwitchToPage("main")
		return nil
	}

	if a.tabPages.HasFocus() {
		switch event.Key() {
		case tcell.KeyLeft:
			a.switchTab(-1)
			return nil
		case tcell.KeyRight:
			a.switchTab(1)
			return nil
		}
	}

	switch event.Key() {
	case tcell.KeyCtrlC:
		a.Stop()
	}

	return event
}

func (a *App) initMenu() {
	addTarget := &menu.Item{
		Index:       2,
		Name:        "添加监控目标",
		Description: "从进程列表选择或手动输入监控目标",
		Selected:    a.addTargetSelected,
	}

	removeTarget := &menu.Item{
		Index:       3,
		Name:        "移除监控目标",
		Description: "停止监控指定目标",
		Selected:    a.removeTargetSelected,
	}

	httpServer := &menu.Item{
		Index:       4,
		Name:        "启动 HTTP 服务",
		Description: "启动本地 HTTP API 服务器",
		Selected: func(i *menu.Item) {
			modal := tview.NewModal()

			if !a.ctx.HTTPEnabled {
				modal.SetText("正在启动 HTTP 服务...")
				a.mainPages.AddPage("modal", modal, true, true)
				a.SetFocus(modal)

				go func() {
					err := a.m.StartService()

					// 在主线程中更新UI
					a.QueueUpdateDraw(func() {
						if err != nil {
							modal.SetText("启动 HTTP 服务失败: " + err.Error())
						} else {
							modal.SetText("已启动 HTTP 服务")
						}

						a.updateMenuItemsState()

						modal.AddButtons([]string{"OK"})
						modal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
							a.mainPages.RemovePage("modal")
						})
						a.SetFocus(modal)
					})
				}()
			} else {
				modal.SetText("正在停止 HTTP 服务...")
				a.mainPages.AddPage("modal", modal, true, true)
				a.SetFocus(modal)

				go func() {
					err := a.m.StopService()

					a.QueueUpdateDraw(func() {
						if err != nil {
							modal.SetText("停止 HTTP 服务失败: " + err.Error())
						} else {
							modal.SetText("已停止 HTTP 服务")
						}

						a.updateMenuItemsState()

						modal.AddButtons([]string{"OK"})
						modal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
							a.mainPages.RemovePage("modal")
						})
						a.SetFocus(modal)
					})
				}()
			}
		},
	}

	setting := &menu.Item{
		Index:       5,
		Name:        "设置",
		Description: "调整采样间隔、历史容量等选项",
		Selected:    a.settingSelected,
	}

	a.menu.AddItem(addTarget)
	a.menu.AddItem(removeTarget)
	a.menu.AddItem(httpServer)
	a.menu.AddItem(setting)

	a.menu.AddItem(&menu.Item{
		Index:       6,
		Name:        "退出",
		Description: "退出程序",
		Selected: func(i *menu.Item) {
			a.Stop()
		},
	})
}

// addTargetSelected 添加监控目标：进程列表 + 手动输入
func (a *App) addTargetSelected(i *menu.Item) {
	subMenu := menu.NewSubMenu("添加监控目标")

	subMenu.AddItem(&menu.Item{
		Index:       1,
		Name:        "手动输入",
		Description: "输入进程名、contains:<子串> 或 pid:<PID>",
		Selected: func(*menu.Item) {
			a.addTargetForm()
		},
	})

	rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := a.m.sampler.ListProcesses(rctx)
	if err != nil {
		subMenu.AddItem(&menu.Item{
			Index:       2,
			Name:        "进程列表不可用",
			Description: err.Error(),
		})
	}

	for idx, row := range rows {
		row := row
		subMenu.AddItem(&menu.Item{
			Index:       idx + 10,
			Name:        fmt.Sprintf("%s [%d]", row.Name, row.PID),
			Description: fmt.Sprintf("PPID: %d", row.PPID),
			Selected: func(*menu.Item) {
				if err := a.m.AddTarget(fmt.Sprintf("pid:%d", row.PID), true); err != nil {
					a.mainPages.RemovePage("submenu")
					a.showError(err)
					return
				}
				a.mainPages.RemovePage("submenu")
				a.showInfo(fmt.Sprintf("已添加监控目标 pid:%d (%s)", row.PID, row.Name))
			},
		})
	}

	a.mainPages.AddPage("submenu", subMenu, true, true)
	a.SetFocus(subMenu)
}

func (a *App) addTargetForm() {
	formView := form.NewForm("添加监控目标")

	tempSpec := ""
	tempChildren := true

	formView.AddInputField("目标", tempSpec, 0, nil, func(text string) {
		tempSpec = text
	})
	formView.AddCheckbox("包含子进程", tempChildren, func(checked bool) {
		tempChildren = checked
	})

	formView.AddButton("保存", func() {
		if err := a.m.AddTarget(tempSpec, tempChildren); err != nil {
			a.mainPages.RemovePage("submenu2")
			a.showError(err)
			return
		}
		a.mainPages.RemovePage("submenu2")
		a.showInfo("已添加监控目标 " + tempSpec)
	})

	formView.AddButton("取消", func() {
		a.mainPages.RemovePage("submenu2")
	})

	a.mainPages.AddPage("submenu2", formView, true, true)
	a.SetFocus(formView)
}

// removeTargetSelected 移除监控目标
func (a *App) removeTargetSelected(i *menu.Item) {
	subMenu := menu.NewSubMenu("移除监控目标")

	targets := a.m.sampler.Targets()
	if len(targets) == 0 {
		subMenu.AddItem(&menu.Item{
			Index:       1,
			Name:        "无监控目标",
			Description: "先通过\"添加监控目标\"添加",
		})
	}

	for idx, target := range targets {
		target := target
		description := "仅目标自身"
		if target.IncludeChildren {
			description = "包含子进程"
		}
		subMenu.AddItem(&menu.Item{
			Index:       idx + 1,
			Name:        target.String(),
			Description: description,
			Selected: func(*menu.Item) {
				a.mainPages.RemovePage("submenu")
				if a.m.RemoveTarget(target.Key()) {
					a.showInfo("已移除监控目标 " + target.String())
				} else {
					a.showInfo("目标不存在")
				}
			},
		})
	}

	a.mainPages.AddPage("submenu", subMenu, true, true)
	a.SetFocus(subMenu)
}

// settingItem 表示一个设置项
type settingItem struct {
	name        string
	description string
	action      func()
}

func (a *App) settingSelected(i *menu.Item) {

	settings := []settingItem{
		{
			name:        "设置采样间隔",
			description: "两次采样之间的时间间隔，最小 100ms",
			action:      a.settingInterval,
		},
		{
			name:        "设置历史容量",
			description: "每个进程每项指标保留的采样点数",
			action:      a.settingCapacity,
		},
		{
			name:        "设置保留时间",
			description: "进程退出后历史数据的保留时长",
			action:      a.settingRetention,
		},
		{
			name:        "设置 HTTP 服务地址",
			description: "配置 HTTP 服务监听的地址",
			action:      a.settingHTTPAddr,
		},
	}

	subMenu := menu.NewSubMenu("设置")
	for idx, setting := range settings {
		item := &menu.Item{
			Index:       idx + 1,
			Name:        setting.name,
			Description: setting.description,
			Selected: func(action func()) func(*menu.Item) {
				return func(*menu.Item) {
					action()
				}
			}(setting.action),
		}
		subMenu.AddItem(item)
	}

	a.mainPages.AddPage("submenu", subMenu, true, true)
	a.SetFocus(subMenu)
}

// settingInterval 设置采样间隔
func (a *App) settingInterval() {
	formView := form.NewForm("设置采样间隔")

	tempInterval := a.m.sampler.Interval().String()

	formView.AddInputField("间隔", tempInterval, 0, nil, func(text string) {
		tempInterval = text
	})

	formView.AddButton("保存", func() {
		d, err := time.ParseDuration(tempInterval)
		if err == nil {
			err = a.m.SetInterval(d)
		}
		a.mainPages.RemovePage("submenu2")
		if err != nil {
			a.showError(err)
			return
		}
		a.showInfo("采样间隔已设置为 " + d.String())
	})

	formView.AddButton("取消", func() {
		a.mainPages.RemovePage("submenu2")
	})

	a.mainPages.AddPage("submenu2", formView, true, true)
	a.SetFocus(formView)
}

// settingCapacity 设置历史容量
func (a *App) settingCapacity() {
	formView := form.NewForm("设置历史容量")

	tempCapacity := strconv.Itoa(a.m.sampler.Capacity())

	formView.AddInputField("容量", tempCapacity, 0, nil, func(text string) {
		tempCapacity = text
	})

	formView.AddButton("保存", func() {
		n, err := strconv.Atoi(tempCapacity)
		if err == nil {
			err = a.m.SetCapacity(n)
		}
		a.mainPages.RemovePage("submenu2")
		if err != nil {
			a.showError(err)
			return
		}
		a.showInfo("历史容量已设置为 " + tempCapacity)
	})

	formView.AddButton("取消", func() {
		a.mainPages.RemovePage("submenu2")
	})

	a.mainPages.AddPage("submenu2", formView, true, true)
	a.SetFocus(formView)
}

// settingRetention 设置保留时间
func (a *App) settingRetention() {
	formView := form.NewForm("设置保留时间")

	tempRetention := a.m.sampler.Retention().String()

	formView.AddInputField("保留时间", tempRetention, 0, nil, func(text string) {
		tempRetention = text
	})

	formView.AddButton("保存", func() {
		d, err := time.ParseDuration(tempRetention)
		if err == nil {
			err = a.m.SetRetention(d)
		}
		a.mainPages.RemovePage("submenu2")
		if err != nil {
			a.showError(err)
			return
		}
		a.showInfo("保留时间已设置为 " + d.String())
	})

	formView.AddButton("取消", func() {
		a.mainPages.RemovePage("submenu2")
	})

	a.mainPages.AddPage("submenu2", formView, true, true)
	a.SetFocus(formView)
}

// settingHTTPAddr 设置 HTTP 地址
func (a *App) settingHTTPAddr() {
	formView := form.NewForm("设置 HTTP 地址")

	tempHTTPAddr := a.ctx.GetHTTPAddr()

	formView.AddInputField("地址", tempHTTPAddr, 0, nil, func(text string) {
		tempHTTPAddr = text
	})

	formView.AddButton("保存", func() {
		a.m.SetHTTPAddr(tempHTTPAddr)
		a.mainPages.RemovePage("submenu2")
		a.showInfo("HTTP 地址已设置为 " + a.ctx.GetHTTPAddr())
	})

	formView.AddButton("取消", func() {
		a.mainPages.RemovePage("submenu2")
	})

	a.mainPages.AddPage("submenu2", formView, true, true)
	a.SetFocus(formView)
}

// showModal 显示一个模态对话框
func (a *App) showModal(text string, buttons []string, doneFunc func(buttonIndex int, buttonLabel string)) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons(buttons).
		SetDoneFunc(doneFunc)

	a.mainPages.AddPage("modal", modal, true, true)
	a.SetFocus(modal)
}

// showError 显示错误对话框
func (a *App) showError(err error) {
	a.showModal(err.Error(), []string{"OK"}, func(buttonIndex int, buttonLabel string) {
		a.mainPages.RemovePage("modal")
	})
}

// showInfo 显示信息对话框
func (a *App) showInfo(text string) {
	a.showModal(text, []string{"OK"}, func(buttonIndex int, buttonLabel string) {
		a.mainPages.RemovePage("modal")
	})
}
