package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// KINSHIP_DYNAMODB_TABLE for dynamodb.table.
const EnvPrefix = "KINSHIP"

// SetDefaults registers every key with its default so that environment
// variables are picked up for keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("backend", string(d.Backend))
	v.SetDefault("seed_file", d.SeedFile)
	v.SetDefault("badger.path", d.Badger.Path)
	v.SetDefault("badger.in_memory", d.Badger.InMemory)
	v.SetDefault("badger.sync_writes", d.Badger.SyncWrites)
	v.SetDefault("dynamodb.table", d.DynamoDB.Table)
	v.SetDefault("dynamodb.region", d.DynamoDB.Region)
	v.SetDefault("dynamodb.profile", d.DynamoDB.Profile)
	v.SetDefault("dynamodb.endpoint", d.DynamoDB.Endpoint)
	v.SetDefault("neo4j.uri", d.Neo4j.URI)
	v.SetDefault("neo4j.username", d.Neo4j.Username)
	v.SetDefault("neo4j.password", d.Neo4j.Password)
	v.SetDefault("neo4j.database", d.Neo4j.Database)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.debug", d.Server.Debug)
	v.SetDefault("export.destination", d.Export.Destination)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("telemetry.otel_endpoint", d.Telemetry.OTelEndpoint)
	v.SetDefault("telemetry.disabled", d.Telemetry.Disabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("expand_all_concurrency", d.ExpandAllConcurrency)
}

// NewViper returns a viper instance with defaults and KINSHIP_* environment
// binding. When path is non-empty it is used as the config file.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

// Load reads the config file (a missing one is not an error), then decodes
// and validates the merged configuration.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
