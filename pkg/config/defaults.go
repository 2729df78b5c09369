package config

// Defaults.
const (
	DefaultRegion      = "us-east-1"
	DefaultTable       = "kinship-people"
	DefaultServerAddr  = ":8080"
	DefaultConcurrency = 4
)

// DefaultConfig returns the configuration used when nothing else is set:
// the in-memory demo family, text logs at info level and exports to ./exports.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Badger: BadgerConfig{
			Path:       "kinship-data",
			SyncWrites: true,
		},
		DynamoDB: DynamoDBConfig{
			Table:  DefaultTable,
			Region: DefaultRegion,
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Export: ExportConfig{
			Destination: "exports",
			Format:      "json",
		},
		Log: LogConfig{
			Level: "info",
		},
		ExpandAllConcurrency: DefaultConcurrency,
	}
}
