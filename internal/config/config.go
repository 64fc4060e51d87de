package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment override,
	// e.g. UPDATECTL_FEED_URL
	EnvPrefix = "UPDATECTL"
	fileName  = "updatectl"
)

type Config struct {
	FeedURL        string            `mapstructure:"feed_url"`
	Headers        map[string]string `mapstructure:"headers"`
	ServerType     string            `mapstructure:"server_type"`
	Version        string            `mapstructure:"version"`
	DownloadDir    string            `mapstructure:"download_dir"`
	CheckInterval  time.Duration     `mapstructure:"check_interval"`
	MetricsAddress string            `mapstructure:"metrics_address"`
	LogFile        string            `mapstructure:"log_file"`
	Debug          bool              `mapstructure:"debug"`
	Trace          bool              `mapstructure:"trace"`
}

// envKeys can be set from the environment without appearing in
// the config file
var envKeys = []string{
	"feed_url",
	"server_type",
	"version",
	"download_dir",
	"check_interval",
	"metrics_address",
	"log_file",
	"debug",
	"trace",
}

func Default() *Config {
	return &Config{
		CheckInterval: 12 * time.Hour,
	}
}

// Load reads cfgFile, or updatectl.yaml from the user config
// directory and the working directory when cfgFile is empty.
// A missing default file is not an error. Values already bound
// in v (flags, environment) take precedence over the file.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := Default()
	v.SetDefault("check_interval", cfg.CheckInterval)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	return cfg, nil
}

// Validate checks the settings needed to run an update check
func (c *Config) Validate() error {
	if c.FeedURL == "" {
		return errors.New("feed_url is required")
	}
	if c.Version == "" {
		return errors.New("version is required")
	}
	if c.CheckInterval <= 0 {
		return errors.Errorf("check_interval must be positive, got %s", c.CheckInterval)
	}
	return nil
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, fileName)
}
