// Package config loads the configuration from defaults, an optional yaml
// file and CHUNKDB_* environment variables, in increasing priority.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Exec    ExecConfig    `mapstructure:"exec"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type StorageConfig struct {
	DataDir  string `mapstructure:"data_dir"`
	MetaFile string `mapstructure:"meta_file"` // relative to data_dir unless absolute
}

type ExecConfig struct {
	ChunkDivisor int    `mapstructure:"chunk_divisor"`
	MergeWorkers int    `mapstructure:"merge_workers"`
	OrderByTable string `mapstructure:"order_by_table"`
}

type OutputConfig struct {
	Color   bool `mapstructure:"color"`
	Padding int  `mapstructure:"padding"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the endpoint
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:  "./data",
			MetaFile: "meta.json",
		},
		Exec: ExecConfig{
			ChunkDivisor: 5,
			MergeWorkers: 1,
			OrderByTable: "order_by_result",
		},
		Output: OutputConfig{
			Color:   false,
			Padding: 2,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
		},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.meta_file", cfg.Storage.MetaFile)
	v.SetDefault("exec.chunk_divisor", cfg.Exec.ChunkDivisor)
	v.SetDefault("exec.merge_workers", cfg.Exec.MergeWorkers)
	v.SetDefault("exec.order_by_table", cfg.Exec.OrderByTable)
	v.SetDefault("output.color", cfg.Output.Color)
	v.SetDefault("output.padding", cfg.Output.Padding)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
}

// Load reads the configuration. An empty path searches chunkdb.yaml in the
// working directory and $HOME/.chunkdb, a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix("CHUNKDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("chunkdb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.chunkdb")
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (self *Config) Validate() error {
	if self.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	if self.Storage.MetaFile == "" {
		return fmt.Errorf("storage.meta_file must not be empty")
	}
	if self.Exec.ChunkDivisor < 1 {
		return fmt.Errorf("exec.chunk_divisor must be at least 1, got %d", self.Exec.ChunkDivisor)
	}
	if self.Exec.MergeWorkers < 1 {
		return fmt.Errorf("exec.merge_workers must be at least 1, got %d", self.Exec.MergeWorkers)
	}
	if self.Exec.OrderByTable == "" || strings.HasPrefix(self.Exec.OrderByTable, ".") {
		return fmt.Errorf("invalid exec.order_by_table: %q", self.Exec.OrderByTable)
	}
	if self.Output.Padding < 0 {
		return fmt.Errorf("output.padding must not be negative")
	}
	switch strings.ToLower(self.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", self.Log.Level)
	}
	return nil
}

func (self *Config) MetaPath() string {
	if filepath.IsAbs(self.Storage.MetaFile) {
		return self.Storage.MetaFile
	}
	return filepath.Join(self.Storage.DataDir, self.Storage.MetaFile)
}
