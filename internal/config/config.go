package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the alarm scheduler binaries.
type Config struct {
	// ServerAddress is the gRPC address of the admin API.
	ServerAddress string `yaml:"server_addr" validate:"required,hostname_port"`
	// StatsFile is the path of the JSON stats snapshot written by the reporter.
	StatsFile string `yaml:"stats_file" validate:"required"`
	// StatsInterval is the delay between two stats snapshots.
	StatsInterval time.Duration `yaml:"stats_interval" validate:"min=1s"`
	// MaxIdleInterval bounds the scheduler sleep when no alarm is pending.
	MaxIdleInterval time.Duration `yaml:"max_idle_interval" validate:"min=10ms"`
	// HistorySize is the number of completed executions kept for diagnostics.
	HistorySize int `yaml:"history_size" validate:"min=0,max=10000"`
	// Timeout is the duration for RPC calls made by alarm-ctl.
	Timeout time.Duration `yaml:"timeout" validate:"min=1ms"`
	// LogLevel is the minimum level of log messages.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-scheduler-settings.yaml"

	// DefaultStatsFilename is the default filename for the stats snapshot.
	DefaultStatsFilename = "alarm-scheduler-stats.json"

	// DefaultStatsInterval is the default delay between stats snapshots.
	DefaultStatsInterval = 30 * time.Second

	// DefaultMaxIdleInterval is the default scheduler idle sleep.
	DefaultMaxIdleInterval = time.Minute

	// DefaultHistorySize is the default execution history length.
	DefaultHistorySize = 32

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the permission of files written by the binaries.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// validate is shared because validator caches struct metadata.
//
//nolint:gochecknoglobals // validator.Validate is safe for concurrent use and meant to be reused.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for unset optional fields and checks the result.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	setDefaults(cfg)

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	return nil
}

func setDefaults(cfg *Config) {
	if cfg.StatsFile == "" {
		cfg.StatsFile = DefaultStatsFilename
	}

	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = DefaultStatsInterval
	}

	if cfg.MaxIdleInterval <= 0 {
		cfg.MaxIdleInterval = DefaultMaxIdleInterval
	}

	if cfg.HistorySize == 0 {
		cfg.HistorySize = DefaultHistorySize
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}
