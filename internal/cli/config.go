package cli

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration file:
//
//	folders:
//	  "std:": /usr/share/lsim/lib
//	max_ticks: 5000
//	quiet: 2
//	db: ~/.cache/lsim/traces.db
type Config struct {
	// Folders maps folder aliases to directories. Relative directories are
	// relative to the configuration file.
	Folders  map[string]string `yaml:"folders"`
	MaxTicks int               `yaml:"max_ticks"`
	Quiet    int               `yaml:"quiet"`
	DB       string            `yaml:"db"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{MaxTicks: 1000, Quiet: 2}
}

// LoadConfig reads a configuration file. Missing settings take their default
// value.
func LoadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "configuration %q", file)
	}
	if cfg.MaxTicks <= 0 || cfg.Quiet <= 0 {
		return nil, errors.Errorf("configuration %q: max_ticks and quiet must be positive", file)
	}
	dir := filepath.Dir(file)
	for k, v := range cfg.Folders {
		if !filepath.IsAbs(v) {
			v = filepath.Join(dir, v)
		}
		// aliases are plain prefixes: "std:gates.lsim" needs "/path/" for std:
		cfg.Folders[k] = filepath.Clean(v) + string(filepath.Separator)
	}
	if cfg.DB != "" && !filepath.IsAbs(cfg.DB) {
		cfg.DB = filepath.Join(dir, cfg.DB)
	}
	return cfg, nil
}

// NewContext returns a library context with the configured folder aliases.
func (c *Config) NewContext() *model.Context {
	ctx := model.NewContext(nil)
	names := make([]string, 0, len(c.Folders))
	for k := range c.Folders {
		names = append(names, k)
	}
	// longest alias first so that prefixes do not shadow each other
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, k := range names {
		ctx.AddFolder(k, c.Folders[k])
	}
	return ctx
}
