// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cfg loads fsclientd's configuration: flags bound with
// pflag/cobra, resolved through viper so a YAML config file and flag
// overrides merge into one typed Config.
package cfg

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yigfs/fsclient/internal/config"
)

// Config is everything fsclientd needs to construct its collaborators.
type Config struct {
	Metadata MetadataConfig `yaml:"metadata"`
	Segment  SegmentConfig  `yaml:"segment"`
	Backend  BackendConfig  `yaml:"backend"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// MetadataConfig addresses the metadata service this client talks to.
type MetadataConfig struct {
	URL     string `yaml:"url"`
	Region  string `yaml:"region"`
	Bucket  string `yaml:"bucket"`
	Zone    string `yaml:"zone"`
	Machine string `yaml:"machine"`
	Retries int    `yaml:"retries"`
}

// SegmentConfig governs local segment storage and the I/O Thread Pool.
type SegmentConfig struct {
	RootDir    string `yaml:"root-dir" mapstructure:"root-dir"`
	MaxSizeMB  int64  `yaml:"max-size-mb" mapstructure:"max-size-mb"`
	DirShards  uint32 `yaml:"dir-shards" mapstructure:"dir-shards"`
	WorkerPool int    `yaml:"worker-pool" mapstructure:"worker-pool"`
}

// BackendConfig addresses the object-storage backend segments are
// staged to on close.
type BackendConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig governs internal/logger's output.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file-path" mapstructure:"file-path"`
}

// MetricsConfig governs whether the Leader reports through a real
// OpenTelemetry meter provider or a no-op Handle.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// BindFlags registers fsclientd's flags on flagSet and binds each to
// its viper key, the same flagSet-then-BindPFlag shape the teacher's
// generated cfg.BindFlags uses.
func BindFlags(flagSet *pflag.FlagSet) error {
	bind := func(key string) error {
		return viper.BindPFlag(key, flagSet.Lookup(key))
	}

	flagSet.String("metadata.url", "http://localhost:8080", "Base URL of the metadata service.")
	if err := bind("metadata.url"); err != nil {
		return err
	}

	flagSet.String("metadata.region", "", "Region passed on every metadata request.")
	if err := bind("metadata.region"); err != nil {
		return err
	}

	flagSet.String("metadata.bucket", "", "Bucket passed on every metadata request.")
	if err := bind("metadata.bucket"); err != nil {
		return err
	}

	flagSet.String("metadata.zone", "", "Zone this machine belongs to.")
	if err := bind("metadata.zone"); err != nil {
		return err
	}

	flagSet.String("metadata.machine", "", "This machine's id, as known to the metadata service.")
	if err := bind("metadata.machine"); err != nil {
		return err
	}

	flagSet.Int("metadata.retries", 3, "Number of times the metadata HTTP transport retries a failed request.")
	if err := bind("metadata.retries"); err != nil {
		return err
	}

	flagSet.String("segment.root-dir", "/var/lib/fsclient/segments", "Local directory segment files are staged under.")
	if err := bind("segment.root-dir"); err != nil {
		return err
	}

	flagSet.Int64("segment.max-size-mb", 64, "Capacity of a freshly allocated segment, in MiB.")
	if err := bind("segment.max-size-mb"); err != nil {
		return err
	}

	flagSet.Uint32("segment.dir-shards", 16, "Number of directory buckets segment files are partitioned across.")
	if err := bind("segment.dir-shards"); err != nil {
		return err
	}

	flagSet.Int("segment.worker-pool", 8, "Number of I/O Thread Pool workers.")
	if err := bind("segment.worker-pool"); err != nil {
		return err
	}

	flagSet.Bool("backend.enabled", false, "Stage closed segments to the object-storage backend.")
	if err := bind("backend.enabled"); err != nil {
		return err
	}

	flagSet.String("backend.bucket", "", "Object-storage bucket segments are staged to.")
	if err := bind("backend.bucket"); err != nil {
		return err
	}

	flagSet.String("backend.region", "", "Object-storage region.")
	if err := bind("backend.region"); err != nil {
		return err
	}

	flagSet.String("backend.endpoint", "", "Object-storage endpoint override, for S3-compatible services.")
	if err := bind("backend.endpoint"); err != nil {
		return err
	}

	flagSet.String("logging.level", config.INFO, "Minimum severity logged: TRACE, DEBUG, INFO, WARNING, ERROR, or OFF.")
	if err := bind("logging.level"); err != nil {
		return err
	}

	flagSet.String("logging.format", "text", "Log output format: text or json.")
	if err := bind("logging.format"); err != nil {
		return err
	}

	flagSet.String("logging.file-path", "", "Path to a log file; rotated via lumberjack. Empty means stderr.")
	if err := bind("logging.file-path"); err != nil {
		return err
	}

	flagSet.Bool("metrics.enabled", false, "Report Leader operations through an OpenTelemetry meter provider instead of a no-op handle.")
	if err := bind("metrics.enabled"); err != nil {
		return err
	}

	return nil
}

// Load resolves viper's merged flag/config-file state into a Config
// and validates it.
func Load() (*Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("cfg: unmarshal: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Metadata.URL == "" {
		return fmt.Errorf("cfg: metadata.url is required")
	}
	if c.Metadata.Machine == "" {
		return fmt.Errorf("cfg: metadata.machine is required")
	}
	if c.Segment.MaxSizeMB <= 0 {
		return fmt.Errorf("cfg: segment.max-size-mb must be positive")
	}
	if c.Segment.WorkerPool <= 0 {
		return fmt.Errorf("cfg: segment.worker-pool must be positive")
	}
	if c.Backend.Enabled && c.Backend.Bucket == "" {
		return fmt.Errorf("cfg: backend.bucket is required when backend.enabled is true")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("cfg: logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// MaxSizeBytes returns the configured segment capacity in bytes.
func (s SegmentConfig) MaxSizeBytes() uint64 {
	return uint64(s.MaxSizeMB) * 1024 * 1024
}
