package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sava-software/anchor-programs-sub010/pkg/encoding"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Config is the YAML configuration file.
type Config struct {
	LogLevel string `yaml:"log_level"`
	// Store is the BadgerDB directory used by put and scan.
	Store    string `yaml:"store"`
	Encoding string `yaml:"encoding"`
	// Programs maps aliases to program ids, e.g. a merkle distributor
	// deployment.
	Programs map[string]string `yaml:"programs"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "anchorctl.yaml"
	}
	return filepath.Join(dir, "anchorctl", "config.yaml")
}

func defaultConfig() Config {
	store := "anchorctl-accounts"
	if dir, err := os.UserCacheDir(); err == nil {
		store = filepath.Join(dir, "anchorctl", "accounts")
	}
	return Config{
		LogLevel: "warn",
		Store:    store,
		Encoding: string(encoding.Base64),
		Programs: map[string]string{},
	}
}

// loadConfig reads path over the defaults. A missing file is not an error
// unless required is set.
func loadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to parse config file")
	}
	for alias, id := range cfg.Programs {
		if _, err := types.PubkeyFromBase58(id); err != nil {
			return cfg, errors.Wrapf(err, "program alias %q", alias)
		}
	}
	return cfg, nil
}

// globalFlags are accepted by every command.
type globalFlags struct {
	config   string
	logLevel string
	store    string
	encoding string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.config, "config", defaultConfigPath(), "path to YAML configuration file")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&g.store, "store", "", "account store directory")
	fs.StringVarP(&g.encoding, "encoding", "e", "", "account data encoding: base58, base64, base64+zstd")
}

// resolve loads the config file and lets flags set on the command line
// override it.
func (g *globalFlags) resolve(fs *pflag.FlagSet) (Config, error) {
	cfg, err := loadConfig(g.config, fs.Changed("config"))
	if err != nil {
		return cfg, err
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if fs.Changed("store") {
		cfg.Store = g.store
	}
	if fs.Changed("encoding") {
		cfg.Encoding = g.encoding
	}
	return cfg, nil
}
