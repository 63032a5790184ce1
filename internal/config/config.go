package config

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Logger LoggerConfig `mapstructure:"logger"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Ingest IngestConfig `mapstructure:"ingest"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

var configFile = "./configs/config.yaml"

func Get() *Config {

	if value, ok := os.LookupEnv("CONFIG_PATH"); ok {
		configFile = value
	}

	config, err := loadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func loadConfig(file string) (*Config, error) {

	viper.SetConfigFile(file)
	viper.AutomaticEnv()

	setDefaults()

	if err := bindEnvironmentVariables(); err != nil {
		return nil, err
	}

	// The config file is optional: hardcoded defaults plus environment
	// overrides are enough to run.
	if err := viper.ReadInConfig(); err != nil {
		log.Warnf("config file %s not read, using defaults and environment: %v", file, err)
	}

	config := Config{}
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("metrics_addr", ":9102")
	viper.SetDefault("logger.log_level", string(LevelInfo))
	viper.SetDefault("logger.output_file", "./logs/errors.log")
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017/")
	viper.SetDefault("mongo.database", "jobs_data")
	viper.SetDefault("mongo.collection", "jobs")
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("ingest.data_dir", "./data")
	viper.SetDefault("ingest.batch_size", 0)
}

func bindEnvironmentVariables() error {
	var errs []error

	mongo, redis, ingest, logger := MongoConfig{}, RedisConfig{}, IngestConfig{}, LoggerConfig{}

	if err := mongo.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("MongoConfig: %w", err))
	}

	if err := redis.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("RedisConfig: %w", err))
	}

	if err := ingest.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("IngestConfig: %w", err))
	}

	if err := logger.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config Config) validate() error {
	var errs []error

	if err := config.Mongo.validate(); err != nil {
		errs = append(errs, fmt.Errorf("MongoConfig: %w", err))
	}

	if err := config.Ingest.validate(); err != nil {
		errs = append(errs, fmt.Errorf("IngestConfig: %w", err))
	}

	if err := config.Logger.validate(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}
