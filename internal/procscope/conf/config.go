package conf

import "time"

const (
	DefaultHTTPAddr = "127.0.0.1:5040"
)

type Config struct {
	ConfigDir   string        `mapstructure:"-" json:"-"`
	Targets     []string      `mapstructure:"targets" json:"targets"`
	Interval    time.Duration `mapstructure:"interval" json:"interval"`
	Capacity    int           `mapstructure:"capacity" json:"capacity"`
	Retention   time.Duration `mapstructure:"retention" json:"retention"`
	HTTPEnabled bool          `mapstructure:"http_enabled" json:"http_enabled"`
	HTTPAddr    string        `mapstructure:"http_addr" json:"http_addr"`
}

var Defaults = map[string]any{
	"targets":   []string{},
	"interval":  "1s",
	"capacity":  120,
	"retention": "10s",
	"http_addr": DefaultHTTPAddr,
}

func (c *Config) GetHTTPAddr() string {
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	return c.HTTPAddr
}
