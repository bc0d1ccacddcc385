package conf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/sarv/procscope/pkg/config"
)

const (
	AppName      = "procscope"
	EnvPrefix    = "PROCSCOPE"
	EnvConfigDir = "PROCSCOPE_DIR"
)

// Service 配置服务
type Service struct {
	cm *config.Manager
	mu sync.RWMutex

	conf *Config

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func newManager(configPath string) (*config.Manager, error) {
	cm, err := config.New(AppName, configPath, "", EnvPrefix, true)
	if err != nil {
		return nil, err
	}
	config.SetDefaults(cm.Viper, Defaults)
	return cm, nil
}

// Load 加载配置，configPath 为空时使用 PROCSCOPE_DIR 或 ~/.procscope
func Load(configPath string) (*Service, error) {

	if configPath == "" {
		configPath = os.Getenv(EnvConfigDir)
	}

	cm, err := newManager(configPath)
	if err != nil {
		log.Error().Err(err).Msg("load config failed")
		return nil, err
	}

	conf := &Config{}
	if err := cm.Load(conf); err != nil {
		log.Error().Err(err).Msg("load config failed")
		return nil, err
	}
	conf.ConfigDir = cm.Path

	b, _ := json.Marshal(conf)
	log.Info().Msgf("config: %s", string(b))

	return &Service{cm: cm, conf: conf}, nil
}

// GetConfig 获取配置副本
func (s *Service) GetConfig() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	confCopy := *s.conf
	confCopy.Targets = append([]string(nil), s.conf.Targets...)
	return &confCopy
}

// Set 更新单个配置项并写回配置文件
func (s *Service) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cm.SetConfig(key, value); err != nil {
		return err
	}
	return s.reload()
}

func (s *Service) SetTargets(targets []string) error {
	if targets == nil {
		targets = []string{}
	}
	return s.Set("targets", targets)
}

func (s *Service) SetInterval(d time.Duration) error {
	return s.Set("interval", d.String())
}

func (s *Service) SetCapacity(capacity int) error {
	return s.Set("capacity", capacity)
}

func (s *Service) SetRetention(d time.Duration) error {
	return s.Set("retention", d.String())
}

func (s *Service) SetHTTPEnabled(enabled bool) error {
	return s.Set("http_enabled", enabled)
}

func (s *Service) SetHTTPAddr(addr string) error {
	return s.Set("http_addr", addr)
}

// reload 用全新的 viper 实例重新解析配置，调用方需持有写锁。
// 复用旧实例会让 Set 过的值永久覆盖文件内容，外部编辑将不可见。
func (s *Service) reload() error {
	cm, err := newManager(s.cm.Path)
	if err != nil {
		return err
	}
	conf := &Config{}
	if err := cm.Load(conf); err != nil {
		return err
	}
	conf.ConfigDir = cm.Path
	s.cm = cm
	s.conf = conf
	return nil
}

// Watch 监听配置文件变更，外部编辑在下一轮采样周期生效。
// onChange 在独立 goroutine 中回调，收到的是配置副本。
func (s *Service) Watch(onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// 监听目录而非文件本身，编辑器的原子替换会产生 Rename/Create 事件
	if err := watcher.Add(s.cm.Path); err != nil {
		watcher.Close()
		return err
	}

	s.watcher = watcher
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.watchLoop(onChange)

	log.Debug().Str("path", s.cm.ConfigFile()).Msg("watching config file")
	return nil
}

func (s *Service) watchLoop(onChange func(*Config)) {
	defer s.wg.Done()

	target := filepath.Base(s.cm.ConfigFile())

	for {
		select {
		case <-s.stopCh:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			s.mu.Lock()
			err := s.reload()
			s.mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Msg("config reload failed, keeping previous config")
				continue
			}
			onChange(s.GetConfig())
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("config watcher error")
		}
	}
}

// StopWatch 停止监听配置文件
func (s *Service) StopWatch() {
	if s.watcher == nil {
		return
	}
	close(s.stopCh)
	s.watcher.Close()
	s.wg.Wait()
	s.watcher = nil
}
