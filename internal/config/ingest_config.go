package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type IngestConfig struct {
	DataDir string `mapstructure:"data_dir"`

	// BatchSize > 0 buffers records and flushes them through the unordered
	// bulk insert; 0 keeps per-record upserts.
	BatchSize int `mapstructure:"batch_size"`

	// GateOnDedup makes the dedup store gate persistence instead of being
	// write-only telemetry.
	GateOnDedup bool `mapstructure:"gate_on_dedup"`

	KeepRawData bool `mapstructure:"keep_raw_data"`

	MaxWritesPerSecond float32 `mapstructure:"max_writes_per_second"`

	// Schedule is an optional cron spec for periodic re-ingestion. Empty
	// means one run and exit.
	Schedule string `mapstructure:"schedule"`
}

func (config IngestConfig) validate() error {
	var errs []error

	if config.DataDir == "" {
		errs = append(errs, fmt.Errorf("missing variable: ingest data_dir"))
	}
	if config.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("ingest batch_size must not be negative"))
	}
	if config.MaxWritesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("ingest max_writes_per_second must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config IngestConfig) bindEnvironmentVariables() error {

	if err := viper.BindEnv("ingest.data_dir", "DATA_DIR"); err != nil {
		return err
	}

	if err := viper.BindEnv("ingest.batch_size", "INGEST_BATCH_SIZE"); err != nil {
		return err
	}

	if err := viper.BindEnv("ingest.gate_on_dedup", "INGEST_GATE_ON_DEDUP"); err != nil {
		return err
	}

	return viper.BindEnv("ingest.schedule", "INGEST_SCHEDULE")
}
