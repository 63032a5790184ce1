package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

func (config MongoConfig) validate() error {
	var errs []error

	if config.URI == "" {
		errs = append(errs, fmt.Errorf("missing variable: mongo uri"))
	}
	if config.Database == "" {
		errs = append(errs, fmt.Errorf("missing variable: mongo database"))
	}
	if config.Collection == "" {
		errs = append(errs, fmt.Errorf("missing variable: mongo collection"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config MongoConfig) bindEnvironmentVariables() error {

	if err := viper.BindEnv("mongo.uri", "MONGO_URI"); err != nil {
		return err
	}

	if err := viper.BindEnv("mongo.database", "MONGO_DATABASE"); err != nil {
		return err
	}

	return viper.BindEnv("mongo.collection", "MONGO_COLLECTION")
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

func (config RedisConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("redis.url", "REDIS_URL")
}
