package help

import (
	"fmt"

	"github.com/sarv/procscope/internal/ui/style"

	"github.com/rivo/tview"
)

const (
	Title     = "help"
	ShowTitle = "帮助"
	Content   = `[yellow]Procscope 使用指南[white]

[green]基本操作:[white]
• 使用 [yellow]←→[white] 键在主菜单、监控详情和帮助页面之间切换
• 使用 [yellow]↑↓[white] 键在菜单项之间移动
• 按 [yellow]Enter[white] 选择菜单项
• 按 [yellow]Esc[white] 返回上一级菜单
• 按 [yellow]Ctrl+C[white] 退出程序

[green]使用步骤:[white]

[yellow]1. 添加监控目标[white]
   选择"添加监控目标"菜单项，从进程列表中选择，或手动输入：
   • [yellow]chrome[white] — 按进程名精确匹配
   • [yellow]contains:chrome[white] — 进程名包含匹配
   • [yellow]pid:1234[white] — 按 PID 匹配
   • 前缀 [yellow]tree:[white] 同时监控目标的所有子进程，如 [yellow]tree:pid:1234[white]

[yellow]2. 查看监控详情[white]
   按 [yellow]→[white] 切换到"监控详情"页，查看每个进程的
   CPU 当前值/均值/峰值和内存占用，以及每个目标的汇总统计。
   进程退出后会以"已退出"状态在宽限期内保留历史。

[yellow]3. 调整采样设置[white]
   选择"设置"菜单项，可以配置:
   • 采样间隔 - 默认 1s，最小 100ms
   • 历史容量 - 每个进程每项指标保留的采样点数
   • 保留时间 - 进程退出后历史数据的保留时长
   • HTTP 服务地址

[yellow]4. 启动 HTTP 服务[white]
   选择"启动 HTTP 服务"菜单项，即可通过 API 读取监控数据。

[green]HTTP API 使用:[white]
• 最新快照: [yellow]GET http://localhost:5040/api/v1/snapshot[white]
• 采样状态: [yellow]GET http://localhost:5040/api/v1/status[white]
• 进程列表: [yellow]GET http://localhost:5040/api/v1/processes[white]
• 监控目标: [yellow]GET/POST http://localhost:5040/api/v1/targets[white]
• 运行时设置: [yellow]PUT http://localhost:5040/api/v1/settings[white]

[green]常见问题:[white]
• 部分进程需要更高权限才能读取资源占用，读取失败的进程会被跳过且不影响其他进程
• 监控目标和设置会自动保存到配置文件，下次启动时自动加载
• 直接编辑配置文件也会被检测到，外部修改在下一轮采样生效
• 同名进程重启后（PID 复用）历史数据不会串连到新进程
`
)

type Help struct {
	*tview.TextView
	title string
}

func New() *Help {
	help := &Help{
		TextView: tview.NewTextView(),
		title:    Title,
	}

	help.SetDynamicColors(true)
	help.SetRegions(true)
	help.SetWrap(true)
	help.SetTextAlign(tview.AlignLeft)
	help.SetBorder(true)
	help.SetBorderColor(style.BorderColor)
	help.SetTitle(ShowTitle)

	fmt.Fprint(help, Content)

	return help
}
