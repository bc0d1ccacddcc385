package procscope

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sarv/procscope/internal/monitor"
	"github.com/sarv/procscope/internal/procscope/conf"
	"github.com/sarv/procscope/internal/procscope/ctx"
	"github.com/sarv/procscope/internal/procscope/http"
	"github.com/sarv/procscope/pkg/util"
)

// Manager 组装配置、采样器、HTTP 服务和终端 UI
type Manager struct {
	ctx  *ctx.Context
	conf *conf.Service

	// Services
	sampler *monitor.Sampler
	http    *http.Service

	// Terminal UI
	app *App
}

func New() *Manager {
	return &Manager{}
}

// Run 启动 TUI 模式，阻塞直到退出
func (m *Manager) Run(configPath string) error {

	if err := m.setup(configPath); err != nil {
		return err
	}

	if err := m.sampler.Start(); err != nil {
		return err
	}
	defer m.sampler.Stop()

	if m.ctx.HTTPEnabled {
		if err := m.StartService(); err != nil {
			// 配置里的开关保持不变，信息栏按运行时状态显示 [未启动]
			log.Error().Err(err).Msg("http service failed to start, continuing without it")
			m.ctx.SetHTTPRunning(false)
		}
	}
	defer m.stopService()

	if err := m.conf.Watch(m.applyConfig); err != nil {
		log.Warn().Err(err).Msg("config watch unavailable")
	} else {
		defer m.conf.StopWatch()
	}

	// 启动终端UI
	m.app = NewApp(m.ctx, m)
	return m.app.Run() // 阻塞
}

// CommandServer 启动无界面 HTTP 模式，阻塞直到服务退出
func (m *Manager) CommandServer(configPath string, cmdConf map[string]any) error {

	if err := m.setup(configPath); err != nil {
		return err
	}
	for key, value := range cmdConf {
		if err := m.conf.Set(key, value); err != nil {
			return err
		}
	}
	m.applyConfig(m.conf.GetConfig())

	if err := m.sampler.Start(); err != nil {
		return err
	}
	defer m.sampler.Stop()

	if err := m.conf.Watch(m.applyConfig); err != nil {
		log.Warn().Err(err).Msg("config watch unavailable")
	} else {
		defer m.conf.StopWatch()
	}

	return m.http.ListenAndServe()
}

func (m *Manager) setup(configPath string) error {

	var err error
	m.conf, err = conf.Load(configPath)
	if err != nil {
		return err
	}
	m.ctx = ctx.New(m.conf)

	c := m.conf.GetConfig()
	m.sampler = monitor.NewSampler(monitor.NewSystemReader(), monitor.Options{
		Interval:  c.Interval,
		Capacity:  c.Capacity,
		Retention: c.Retention,
	})
	m.applyTargets(c.Targets)

	m.http = http.NewService(m.ctx, m.sampler)
	m.http.OnChange(m.persistTargets, m.persistSettings)

	return nil
}

// applyConfig 将（可能被外部编辑的）配置套用到运行中的采样器。
// 非法值被拒绝并记录日志，之前的有效值保持生效。
func (m *Manager) applyConfig(c *conf.Config) {
	if err := m.sampler.SetInterval(c.Interval); err != nil {
		log.Warn().Err(err).Msg("rejected interval from config")
	}
	if err := m.sampler.SetCapacity(c.Capacity); err != nil {
		log.Warn().Err(err).Msg("rejected capacity from config")
	}
	if err := m.sampler.SetRetention(c.Retention); err != nil {
		log.Warn().Err(err).Msg("rejected retention from config")
	}
	m.applyTargets(c.Targets)
}

func (m *Manager) applyTargets(specs []string) {
	targets := make([]monitor.Target, 0, len(specs))
	for _, spec := range specs {
		target, err := monitor.ParseTarget(spec)
		if err != nil {
			log.Warn().Str("target", spec).Err(err).Msg("skipping invalid target")
			continue
		}
		targets = append(targets, target)
	}
	if err := m.sampler.SetTargets(targets); err != nil {
		log.Warn().Err(err).Msg("rejected targets from config")
	}
}

// persistTargets 将采样器当前目标写回配置文件
func (m *Manager) persistTargets() {
	targets := m.sampler.Targets()
	specs := make([]string, 0, len(targets))
	for _, target := range targets {
		specs = append(specs, target.String())
	}
	if err := m.conf.SetTargets(specs); err != nil {
		log.Warn().Err(err).Msg("persist targets failed")
	}
}

func (m *Manager) persistSettings() {
	if err := m.conf.SetInterval(m.sampler.Interval()); err != nil {
		log.Warn().Err(err).Msg("persist interval failed")
	}
	if err := m.conf.SetCapacity(m.sampler.Capacity()); err != nil {
		log.Warn().Err(err).Msg("persist capacity failed")
	}
	if err := m.conf.SetRetention(m.sampler.Retention()); err != nil {
		log.Warn().Err(err).Msg("persist retention failed")
	}
}

// AddTarget 解析并添加一个监控目标，成功后持久化
func (m *Manager) AddTarget(spec string, includeChildren bool) error {
	target, err := monitor.ParseTarget(spec)
	if err != nil {
		return err
	}
	target.IncludeChildren = includeChildren
	if err := m.sampler.AddTarget(target); err != nil {
		return err
	}
	m.persistTargets()
	return nil
}

func (m *Manager) RemoveTarget(key string) bool {
	if !m.sampler.RemoveTarget(key) {
		return false
	}
	m.persistTargets()
	return true
}

func (m *Manager) SetInterval(d time.Duration) error {
	if err := m.sampler.SetInterval(d); err != nil {
		return err
	}
	m.persistSettings()
	return nil
}

func (m *Manager) SetCapacity(n int) error {
	if err := m.sampler.SetCapacity(n); err != nil {
		return err
	}
	m.persistSettings()
	return nil
}

func (m *Manager) SetRetention(d time.Duration) error {
	if err := m.sampler.SetRetention(d); err != nil {
		return err
	}
	m.persistSettings()
	return nil
}

func (m *Manager) StartService() error {

	if err := m.http.Start(); err != nil {
		return err
	}

	// 更新状态
	m.ctx.SetHTTPEnabled(true)

	return nil
}

func (m *Manager) StopService() error {
	if err := m.stopService(); err != nil {
		return err
	}

	// 更新状态
	m.ctx.SetHTTPEnabled(false)

	return nil
}

func (m *Manager) stopService() error {
	if m.http == nil {
		return nil
	}
	return m.http.Stop()
}

func (m *Manager) SetHTTPAddr(text string) error {
	var addr string
	if util.IsNumeric(text) {
		addr = fmt.Sprintf("127.0.0.1:%s", text)
	} else if strings.HasPrefix(text, "http://") {
		addr = strings.TrimPrefix(text, "http://")
	} else {
		addr = text
	}
	m.ctx.SetHTTPAddr(addr)
	return nil
}
