package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DatePlaceholder is replaced by the query date in the log file template.
const DatePlaceholder = "{DATE}"

const (
	defaultCephLogDir = "/var/log/ceph"
	defaultLogName    = "ceph-stats." + DatePlaceholder + ".log"
	defaultTimeout    = "5m"
)

// Config holds persistent defaults loaded from config files.
type Config struct {
	Query    QueryConfig    `yaml:"query"`
	Iostat   IostatConfig   `yaml:"iostat"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// QueryConfig holds ceph-stats log defaults.
type QueryConfig struct {
	CephLogDir string `yaml:"ceph_log_dir"`
	LogDir     string `yaml:"log_dir"`
	LogFile    string `yaml:"log_file"`
	Date       string `yaml:"date"`
}

// IostatConfig holds pivot and plotting defaults.
type IostatConfig struct {
	Devices    string `yaml:"devices"`
	Gnuplot    string `yaml:"gnuplot"`
	PlotWidth  int    `yaml:"plot_width"`
	PlotHeight int    `yaml:"plot_height"`
	PlotOffset *int   `yaml:"plot_offset"`
	Upload     string `yaml:"upload"`
}

// DefaultsConfig holds global defaults.
type DefaultsConfig struct {
	Timeout string `yaml:"timeout"`
	Verbose bool   `yaml:"verbose"`
	LogFile string `yaml:"log_file"`
}

// Load reads config from ~/.statlog/config.yaml then CWD .statlog.yaml.
// CWD config values override home config. Missing files are not errors.
// Environment variables override config file values.
func Load() *Config {
	cfg := &Config{}

	// home config
	if home, err := os.UserHomeDir(); err == nil {
		_ = loadFile(filepath.Join(home, ".statlog", "config.yaml"), cfg)
	}

	// CWD config overrides
	_ = loadFile(".statlog.yaml", cfg)

	// env overrides
	applyEnv(cfg)

	return cfg
}

// LoadFrom reads config from a specific path. Used for testing.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// The ceph-stats variables keep the names the collector side exports.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CEPH_LOG_DIR"); v != "" {
		cfg.Query.CephLogDir = v
	}
	if v := os.Getenv("CEPHSTATS_LOG_DIR"); v != "" {
		cfg.Query.LogDir = v
	}
	if v := os.Getenv("CEPHSTATS_LOG_FILE"); v != "" {
		cfg.Query.LogFile = v
	}
	if v := os.Getenv("CEPHSTATS_DATE"); v != "" {
		cfg.Query.Date = v
	}
	if v := os.Getenv("STATLOG_DEVICES"); v != "" {
		cfg.Iostat.Devices = v
	}
	if v := os.Getenv("STATLOG_GNUPLOT"); v != "" {
		cfg.Iostat.Gnuplot = v
	}
	if v := os.Getenv("STATLOG_UPLOAD"); v != "" {
		cfg.Iostat.Upload = v
	}
	if v := os.Getenv("STATLOG_TIMEOUT"); v != "" {
		cfg.Defaults.Timeout = v
	}
	if v := os.Getenv("STATLOG_VERBOSE"); v != "" {
		cfg.Defaults.Verbose = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("STATLOG_LOG_FILE"); v != "" {
		cfg.Defaults.LogFile = v
	}
}

// LogDir returns the ceph-stats log directory: log_dir, else ceph_log_dir,
// else /var/log/ceph.
func (c *Config) LogDir() string {
	switch {
	case c.Query.LogDir != "":
		return c.Query.LogDir
	case c.Query.CephLogDir != "":
		return c.Query.CephLogDir
	default:
		return defaultCephLogDir
	}
}

// LogFileTemplate returns the log path template containing {DATE}.
func (c *Config) LogFileTemplate() string {
	if c.Query.LogFile != "" {
		return c.Query.LogFile
	}
	dir := c.LogDir()
	if strings.Contains(dir, "://") {
		return strings.TrimSuffix(dir, "/") + "/" + defaultLogName
	}
	return filepath.Join(dir, defaultLogName)
}

// DefaultDate returns the configured date or today in YYYY-MM-DD.
func (c *Config) DefaultDate(now time.Time) string {
	if c.Query.Date != "" {
		return c.Query.Date
	}
	return now.Format(time.DateOnly)
}

// Timeout returns the configured run timeout, falling back to 5m on an
// empty or invalid value.
func (c *Config) Timeout() time.Duration {
	if c.Defaults.Timeout != "" {
		if d, err := time.ParseDuration(c.Defaults.Timeout); err == nil {
			return d
		}
	}
	d, _ := time.ParseDuration(defaultTimeout)
	return d
}

// LogFile expands the template for date.
func LogFile(template, date string) string {
	return strings.ReplaceAll(template, DatePlaceholder, date)
}
