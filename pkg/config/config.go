// Package config defines the runtime configuration and its defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names a person repository implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendBadger   Backend = "badger"
	BackendDynamoDB Backend = "dynamodb"
	BackendNeo4j    Backend = "neo4j"
)

// Config is populated by viper from defaults, the config file, KINSHIP_*
// environment variables and flags.
type Config struct {
	Backend  Backend `mapstructure:"backend"`
	SeedFile string  `mapstructure:"seed_file"`

	Badger   BadgerConfig   `mapstructure:"badger"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`

	Server    ServerConfig    `mapstructure:"server"`
	Export    ExportConfig    `mapstructure:"export"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`

	// ExpandAllConcurrency bounds the relative fetches issued by one ExpandAll.
	ExpandAllConcurrency int `mapstructure:"expand_all_concurrency"`
}

type BadgerConfig struct {
	Path       string `mapstructure:"path"`
	InMemory   bool   `mapstructure:"in_memory"`
	SyncWrites bool   `mapstructure:"sync_writes"`
}

type DynamoDBConfig struct {
	Table   string `mapstructure:"table"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
	// Endpoint points at LocalStack or DynamoDB Local.
	Endpoint string `mapstructure:"endpoint"`
}

type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type ServerConfig struct {
	Addr  string `mapstructure:"addr"`
	Debug bool   `mapstructure:"debug"`
}

type ExportConfig struct {
	// Destination is a local directory or s3://bucket/prefix.
	Destination string `mapstructure:"destination"`
	Format      string `mapstructure:"format"`
}

type TelemetryConfig struct {
	OTelEndpoint string `mapstructure:"otel_endpoint"`
	Disabled     bool   `mapstructure:"disabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendMemory:
	case BackendBadger:
		if !c.Badger.InMemory && c.Badger.Path == "" {
			errs = append(errs, errors.New("badger.path is required unless badger.in_memory is set"))
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			errs = append(errs, errors.New("dynamodb.table is required"))
		}
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			errs = append(errs, errors.New("neo4j.uri is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want memory, badger, dynamodb or neo4j)", c.Backend))
	}

	if c.ExpandAllConcurrency < 1 {
		errs = append(errs, fmt.Errorf("expand_all_concurrency must be at least 1, got %d", c.ExpandAllConcurrency))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Export.Format) {
	case "json", "yaml", "yml", "text", "txt":
	default:
		errs = append(errs, fmt.Errorf("unknown export format %q", c.Export.Format))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	return errors.Join(errs...)
}
