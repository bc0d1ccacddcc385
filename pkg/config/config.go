/*
 * Copyright (c) 2023 shenjunzheng@gmail.com
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const DefaultConfigType = "json"

var (
	ErrInvalidDirectory  = errors.New("invalid directory path")
	ErrMissingConfigName = errors.New("config name not specified")
)

// Manager is a thin wrapper around a viper instance bound to a single
// JSON config file, with optional env-var overrides and write-back.
type Manager struct {
	App         string
	EnvPrefix   string
	Path        string
	Name        string
	WriteConfig bool

	Viper *viper.Viper
}

// New builds a Manager for app. An empty path defaults to ~/.{app}
// (or the temp dir when the home dir is unknown); an empty name
// defaults to the app name.
func New(app, path, name, envPrefix string, writeConfig bool) (*Manager, error) {
	if app == "" {
		return nil, ErrMissingConfigName
	}

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		path = filepath.Join(home, "."+app)
	}
	if err := PrepareDir(path); err != nil {
		return nil, err
	}

	if name == "" {
		name = app
	}

	v := viper.New()
	v.SetConfigType(DefaultConfigType)
	v.AddConfigPath(path)
	v.SetConfigName(name)

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	}

	return &Manager{
		App:         app,
		EnvPrefix:   envPrefix,
		Path:        path,
		Name:        name,
		Viper:       v,
		WriteConfig: writeConfig,
	}, nil
}

// Load reads the config file and unmarshals it into conf. A missing
// file is created first when write-back is enabled, so defaults land
// on disk.
func (c *Manager) Load(conf interface{}) error {
	if err := c.Viper.ReadInConfig(); err != nil {
		log.Debug().Err(err).Msg("read config failed")
		if c.WriteConfig {
			if err := c.Viper.SafeWriteConfig(); err != nil {
				return err
			}
		}
	}
	return c.Viper.Unmarshal(conf, decoderConfig())
}

// ConfigFile returns the path of the file backing this manager.
func (c *Manager) ConfigFile() string {
	if used := c.Viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(c.Path, c.Name+"."+DefaultConfigType)
}

// SetConfig sets one key and writes the file back when enabled.
func (c *Manager) SetConfig(key string, value interface{}) error {
	c.Viper.Set(key, value)
	if !c.WriteConfig {
		return nil
	}
	return c.Viper.WriteConfig()
}

// SetDefaults registers defaults for every key in the provided map.
func SetDefaults(v *viper.Viper, defaults map[string]any) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// PrepareDir ensures path exists and is a directory.
func PrepareDir(path string) error {
	stat, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(path, 0o755)
	case err != nil:
		return err
	case !stat.IsDir():
		return ErrInvalidDirectory
	}
	return nil
}
