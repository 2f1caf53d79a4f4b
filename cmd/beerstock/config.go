package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	storageMemory = "memory"
	storageMySQL  = "mysql"
)

type config struct {
	HTTPAddress     string        `envconfig:"HTTP_ADDRESS" default:":8080"`
	GRPCAddress     string        `envconfig:"GRPC_ADDRESS" default:":9090"`
	Storage         string        `envconfig:"STORAGE" default:"memory"`
	DatabaseDSN     string        `envconfig:"DATABASE_DSN"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	SeedFile        string        `envconfig:"SEED_FILE"`
	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopic      string        `envconfig:"KAFKA_TOPIC" default:"beerstock.events"`
	OTelEndpoint    string        `envconfig:"OTEL_ENDPOINT"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func parseEnv() (*config, error) {
	c := new(config)
	if err := envconfig.Process(appID, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *config) validate() error {
	switch c.Storage {
	case storageMemory:
	case storageMySQL:
		if c.DatabaseDSN == "" {
			return errors.New("BEERSTOCK_DATABASE_DSN is required for mysql storage")
		}
	default:
		return errors.Errorf("unknown storage %q", c.Storage)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}
