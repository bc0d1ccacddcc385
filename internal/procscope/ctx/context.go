package ctx

import (
	"sync"

	"github.com/sarv/procscope/internal/procscope/conf"
)

// Context holds shared application state for the TUI and services.
type Context struct {
	conf *conf.Service
	mu   sync.RWMutex

	ConfigDir string

	// HTTP服务相关状态
	HTTPEnabled bool
	HTTPAddr    string
}

func New(conf *conf.Service) *Context {
	ctx := &Context{
		conf: conf,
	}

	c := conf.GetConfig()
	ctx.ConfigDir = c.ConfigDir
	ctx.HTTPEnabled = c.HTTPEnabled
	ctx.HTTPAddr = c.GetHTTPAddr()

	return ctx
}

func (c *Context) SetHTTPEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.HTTPEnabled = enabled
	c.conf.SetHTTPEnabled(enabled)
}

// SetHTTPRunning 只更新运行时状态，不写回配置文件
func (c *Context) SetHTTPRunning(running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.HTTPEnabled = running
}

func (c *Context) SetHTTPAddr(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.HTTPAddr = addr
	c.conf.SetHTTPAddr(addr)
}

func (c *Context) GetHTTPAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.HTTPAddr
}
